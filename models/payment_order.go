package models

import "time"

// Payment order states. An order in created or awaiting_confirmation holds
// the single open-order slot for its application.
const (
	OrderCreated              = "created"
	OrderAwaitingConfirmation = "awaiting_confirmation"
	OrderConfirmed            = "confirmed"
	OrderCancelled            = "cancelled"
	OrderFailed               = "failed"
)

// PaymentOrder is one attempt to collect a visa fee through the external
// gateway. Amount is in minor currency units, fixed at creation time from
// the visa type; later fee changes never alter an existing order.
type PaymentOrder struct {
	OrderReference   string     `gorm:"primaryKey;column:order_reference" json:"order_reference"`
	ApplicationID    int        `gorm:"column:application_id" json:"application_id"`
	Amount           int64      `gorm:"column:amount" json:"amount"`
	Currency         string     `gorm:"column:currency" json:"currency"`
	State            string     `gorm:"column:state" json:"state"`
	Receipt          string     `gorm:"column:receipt" json:"receipt"`
	PaymentReference *string    `gorm:"column:payment_reference" json:"payment_reference,omitempty"`
	CancelReason     *string    `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	CreateAt         time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`
}

func (PaymentOrder) TableName() string {
	return "payment_orders"
}

// IsOpen reports whether the order still holds its application's open-order
// slot.
func (o *PaymentOrder) IsOpen() bool {
	return o.State == OrderCreated || o.State == OrderAwaitingConfirmation
}
