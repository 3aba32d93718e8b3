package controllers

import (
	"net/http"
	"visa-management-api/config"
	"visa-management-api/models"

	"github.com/gin-gonic/gin"
)

// GetCountries returns all active destination countries.
func GetCountries(c *gin.Context) {
	var countries []models.Country
	if err := config.DB.Where("status = 'active' AND delete_at IS NULL").
		Order("country_name ASC").Find(&countries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch countries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"countries": countries,
	})
}

// GetVisaTypes returns visa types with their fees, optionally per country.
func GetVisaTypes(c *gin.Context) {
	countryID := c.Query("country_id")

	var visaTypes []models.VisaType
	query := config.DB.Preload("Country").
		Where("status = 'active' AND delete_at IS NULL")

	if countryID != "" {
		query = query.Where("country_id = ?", countryID)
	}

	if err := query.Find(&visaTypes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch visa types"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visa_types": visaTypes,
	})
}
