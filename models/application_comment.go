package models

import "time"

// ApplicationComment is an append-only audit record written on every status
// change. Rows are never updated or deleted.
type ApplicationComment struct {
	CommentID     int       `gorm:"primaryKey;column:comment_id" json:"comment_id"`
	ApplicationID int       `gorm:"column:application_id" json:"application_id"`
	UserID        int       `gorm:"column:user_id" json:"user_id"`
	Action        string    `gorm:"column:action" json:"action"`
	Comment       string    `gorm:"column:comment" json:"comment"`
	CreateAt      time.Time `gorm:"column:create_at" json:"create_at"`

	// Relations
	Author *User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

func (ApplicationComment) TableName() string {
	return "application_comments"
}
