package controllers

import (
	"errors"
	"net/http"

	"visa-management-api/services"

	"github.com/gin-gonic/gin"
)

// currentActor builds the acting principal from the authenticated context.
func currentActor(c *gin.Context) services.Actor {
	userID, _ := c.Get("userID")
	roleID, _ := c.Get("roleID")
	return services.Actor{UserID: userID.(int), RoleID: roleID.(int)}
}

// respondServiceError maps the workflow error taxonomy onto HTTP responses.
// Raw store or transport errors never reach the client.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action not allowed for the current status"})
	case errors.Is(err, services.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unavailable, please retry", "retryable": true})
	case errors.Is(err, services.ErrPaymentVerificationFailed):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment could not be verified, please contact support", "retryable": false})
	case errors.Is(err, services.ErrPersistenceConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "The application was modified concurrently, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
