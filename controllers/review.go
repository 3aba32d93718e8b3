package controllers

import (
	"net/http"
	"strconv"

	"visa-management-api/services"
	"visa-management-api/utils"

	"github.com/gin-gonic/gin"
)

// ReviewDecision applies an employee decision to an application under
// review. The response outcome is tagged: "approved" only ever means the
// transition happened; a payable application reports "awaiting_payment"
// together with the order the customer must complete.
func ReviewDecision(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application id"})
		return
	}

	type DecisionRequest struct {
		Decision string `json:"decision" binding:"required,oneof=approve reject request-more-info"`
		Comment  string `json:"comment"`
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment := utils.TruncateComment(req.Comment, 2000)

	svc := services.NewReviewService(nil, nil, services.NewNotificationService(nil))
	result, err := svc.ReviewDecision(c.Request.Context(), id, currentActor(c), req.Decision, comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Decision recorded",
		"result":  result,
	})
}
