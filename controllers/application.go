package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
	"visa-management-api/config"
	"visa-management-api/models"
	"visa-management-api/services"
	"visa-management-api/utils"

	"github.com/gin-gonic/gin"
)

// GetApplications returns the caller's applications; employees see all.
func GetApplications(c *gin.Context) {
	userID, _ := c.Get("userID")
	roleID, _ := c.Get("roleID")

	var applications []models.VisaApplication
	query := config.DB.Preload("Country").Preload("VisaType").Preload("User")

	// Customers only see their own applications
	if roleID.(int) == models.RoleCustomer {
		query = query.Where("user_id = ?", userID)
	}

	// Apply filters from query params
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if country := c.Query("country_id"); country != "" {
		query = query.Where("country_id = ?", country)
	}

	if err := query.Order("create_at DESC").Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch applications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": applications,
		"total":        len(applications),
	})
}

// GetApplication returns a single application with its comment history.
func GetApplication(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")
	roleID, _ := c.Get("roleID")

	var application models.VisaApplication
	query := config.DB.Preload("Country").Preload("VisaType").Preload("User").
		Preload("Comments").Preload("Comments.Author").
		Where("application_id = ?", id)

	if roleID.(int) == models.RoleCustomer {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"application": application,
	})
}

// CreateApplication creates a new application in draft state.
func CreateApplication(c *gin.Context) {
	type CreateApplicationRequest struct {
		CountryID  int `json:"country_id" binding:"required"`
		VisaTypeID int `json:"visa_type_id" binding:"required"`
	}

	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get("userID")

	var visaType models.VisaType
	if err := config.DB.Where("visa_type_id = ? AND country_id = ? AND status = 'active'",
		req.VisaTypeID, req.CountryID).First(&visaType).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visa type"})
		return
	}

	now := time.Now()
	application := models.VisaApplication{
		ApplicationNumber: generateApplicationNumber(),
		UserID:            userID.(int),
		CountryID:         req.CountryID,
		VisaTypeID:        req.VisaTypeID,
		Status:            models.StatusDraft,
		CreateAt:          &now,
		UpdateAt:          &now,
	}

	if err := config.DB.Create(&application).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create application"})
		return
	}

	config.DB.Preload("Country").Preload("VisaType").First(&application)

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Application created successfully",
		"application": application,
	})
}

// UpdateApplication lets the owner change country/visa type while the
// application is still editable (draft or resent).
func UpdateApplication(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")

	type UpdateApplicationRequest struct {
		CountryID  int `json:"country_id"`
		VisaTypeID int `json:"visa_type_id"`
	}

	var req UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var application models.VisaApplication
	if err := config.DB.Where("application_id = ? AND user_id = ?", id, userID).
		First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	if application.Status != models.StatusDraft && application.Status != models.StatusResent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Application can no longer be edited"})
		return
	}

	now := time.Now()
	if req.CountryID > 0 {
		application.CountryID = req.CountryID
	}
	if req.VisaTypeID > 0 {
		application.VisaTypeID = req.VisaTypeID
	}
	application.UpdateAt = &now

	if err := config.DB.Save(&application).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update application"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Application updated successfully",
		"application": application,
	})
}

// SubmitApplication moves a draft or resent application into review.
func SubmitApplication(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application id"})
		return
	}

	type SubmitRequest struct {
		Comment string `json:"comment"`
	}
	var req SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	svc := services.NewReviewService(nil, nil, services.NewNotificationService(nil))
	application, err := svc.SubmitForReview(c.Request.Context(), id, currentActor(c), utils.TruncateComment(req.Comment, 2000))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Application submitted for review",
		"application": application,
	})
}

// generateApplicationNumber produces the immutable human-readable number
// assigned at creation. Format: VSA-YYYYMMDD-XXXX.
func generateApplicationNumber() string {
	now := time.Now()
	dateStr := now.Format("20060102")

	var count int64
	config.DB.Model(&models.VisaApplication{}).
		Where("DATE(create_at) = DATE(NOW())").
		Count(&count)

	return fmt.Sprintf("VSA-%s-%04d", dateStr, count+1)
}
