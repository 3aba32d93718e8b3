package services

import (
	"log"
	"time"

	"visa-management-api/config"
	"visa-management-api/models"

	"gorm.io/gorm"
)

// NotificationService writes in-app notifications and sends best-effort
// email. Delivery failures are logged and never block the workflow.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService constructs a NotificationService. A nil db falls
// back to the global connection.
func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db}
}

// Notify records a notification for the user and emails them a copy.
func (n *NotificationService) Notify(userID int, applicationID int, kind, title, message string) {
	if n == nil || n.db == nil {
		return
	}

	relatedID := uint(applicationID)
	notification := models.Notification{
		UserID:               uint(userID),
		Title:                title,
		Message:              message,
		Type:                 kind,
		RelatedApplicationID: &relatedID,
		CreateAt:             time.Now(),
	}
	if err := n.db.Create(&notification).Error; err != nil {
		log.Printf("Warning: failed to store notification for user %d: %v", userID, err)
	}

	var user models.User
	if err := n.db.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		return
	}
	if err := config.SendMail([]string{user.Email}, title, "<p>"+message+"</p>"); err != nil {
		log.Printf("Warning: failed to email notification to %s: %v", user.Email, err)
	}
}
