package models

import "time"

const SERMON_SOURCE_MANUAL = "manual"
const SERMON_SOURCE_AI = "ai"

// Sermon é um sermão salvo. Cada registro conta como uma unidade de uso no mês em que foi criado.
type Sermon struct {
	ID        int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    int64  `gorm:"not null;index" json:"user_id"`
	CompanyID int64  `gorm:"not null;index" json:"company_id"`
	ChurchID  *int64 `gorm:"index" json:"church_id" form:"church_id"`
	Title     string `gorm:"not null" json:"title" form:"title"`
	Theme     string `json:"theme" form:"theme"`
	BibleText string `json:"bible_text" form:"bible_text"`
	Content   string `gorm:"type:text" json:"content" form:"content"`
	Source    string `gorm:"not null" json:"source"`

	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (sermon Sermon) MissingFields() string {
	if sermon.Title == "" {
		return "title"
	} else if sermon.Content == "" {
		return "content"
	}
	return ""
}
