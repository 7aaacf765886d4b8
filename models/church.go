package models

import "time"

type Church struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CompanyID int64      `gorm:"not null;index" json:"company_id"`
	Name      string     `gorm:"not null" json:"name" form:"name"`
	Pastor    string     `json:"pastor" form:"pastor"`
	City      string     `json:"city" form:"city"`
	State     string     `json:"state" form:"state"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
