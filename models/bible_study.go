package models

import "time"

// BibleStudy é um estudo bíblico gerado pela IA.
type BibleStudy struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	CompanyID int64      `gorm:"not null;index" json:"company_id"`
	Title     string     `gorm:"not null" json:"title"`
	BibleText string     `json:"bible_text"`
	Content   string     `gorm:"type:text" json:"content"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
