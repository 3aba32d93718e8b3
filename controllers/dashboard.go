package controllers

import (
	"net/http"
	"visa-management-api/config"
	"visa-management-api/models"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats returns application counts per status plus payment
// order totals, for the employee review dashboard.
func GetDashboardStats(c *gin.Context) {
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}

	var byStatus []statusCount
	if err := config.DB.Model(&models.VisaApplication{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	type orderCount struct {
		State string `json:"state"`
		Count int64  `json:"count"`
		Total int64  `json:"total"`
	}

	var byOrderState []orderCount
	if err := config.DB.Model(&models.PaymentOrder{}).
		Select("state, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("state").
		Scan(&byOrderState).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications_by_status": byStatus,
		"orders_by_state":        byOrderState,
	})
}
