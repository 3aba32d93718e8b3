package models

import "time"

// Country represents a destination country that issues visas.
type Country struct {
	CountryID   int        `gorm:"primaryKey;column:country_id" json:"country_id"`
	CountryName string     `gorm:"column:country_name" json:"country_name"`
	Code        string     `gorm:"column:code;unique" json:"code"`
	Status      string     `gorm:"column:status" json:"status"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (Country) TableName() string {
	return "countries"
}
