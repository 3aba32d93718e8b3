package models

import "time"

// Application statuses. These are the only values ever stored in
// visa_applications.status.
const (
	StatusDraft       = "draft"
	StatusUnderReview = "under_review"
	StatusResent      = "resent"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
)

// VisaApplication is the central entity: one customer's visa request tracked
// through its status lifecycle. Applications are never deleted; only the
// status changes and comments accumulate.
type VisaApplication struct {
	ApplicationID     int        `gorm:"primaryKey;column:application_id" json:"application_id"`
	ApplicationNumber string     `gorm:"column:application_number;unique" json:"application_number"`
	UserID            int        `gorm:"column:user_id" json:"user_id"`
	CountryID         int        `gorm:"column:country_id" json:"country_id"`
	VisaTypeID        int        `gorm:"column:visa_type_id" json:"visa_type_id"`
	Status            string     `gorm:"column:status" json:"status"`
	SubmittedAt       *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	ClosedAt          *time.Time `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CreateAt          *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt          *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	User     User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Country  Country              `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	VisaType VisaType             `gorm:"foreignKey:VisaTypeID" json:"visa_type,omitempty"`
	Comments []ApplicationComment `gorm:"foreignKey:ApplicationID" json:"comments,omitempty"`
}

func (VisaApplication) TableName() string {
	return "visa_applications"
}

// IsTerminal reports whether no further reviewer transitions are permitted.
func (a *VisaApplication) IsTerminal() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}
