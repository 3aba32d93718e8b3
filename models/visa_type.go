package models

import "time"

// VisaType carries the fee charged for one kind of visa in one country.
// FeeAmount is in minor currency units (cents/paise); a zero fee means the
// application is approvable without payment.
type VisaType struct {
	VisaTypeID   int        `gorm:"primaryKey;column:visa_type_id" json:"visa_type_id"`
	CountryID    int        `gorm:"column:country_id" json:"country_id"`
	VisaTypeName string     `gorm:"column:visa_type_name" json:"visa_type_name"`
	FeeAmount    int64      `gorm:"column:fee_amount" json:"fee_amount"`
	Currency     string     `gorm:"column:currency" json:"currency"`
	Status       string     `gorm:"column:status" json:"status"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Country Country `gorm:"foreignKey:CountryID" json:"country,omitempty"`
}

func (VisaType) TableName() string {
	return "visa_types"
}

// RequiresPayment reports whether an approval must be gated behind a
// confirmed payment order.
func (v *VisaType) RequiresPayment() bool {
	return v.FeeAmount > 0
}
