package models

import "time"

// UNLIMITED marca limites sem teto (sermões, usuários, igrejas).
const UNLIMITED = -1

// Plan representa um plano comercial com cotas mensais e recursos habilitados.
type Plan struct {
	ID          int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name        string `gorm:"not null;unique" json:"name" form:"name" yaml:"name"`
	Description string `gorm:"type:text" json:"description" form:"description" yaml:"description"`
	PriceCents  int64  `gorm:"not null" json:"price_cents" form:"price_cents" yaml:"price_cents"`
	Currency    string `gorm:"not null" json:"currency" form:"currency" yaml:"currency"`

	// MaxSermons é a cota mensal de sermões da empresa. -1 significa ilimitado.
	MaxSermons  int64 `gorm:"not null" json:"max_sermons" form:"max_sermons" yaml:"max_sermons"`
	MaxUsers    int64 `gorm:"not null" json:"max_users" form:"max_users" yaml:"max_users"`
	MaxChurches int64 `gorm:"not null" json:"max_churches" form:"max_churches" yaml:"max_churches"`

	AllowAI         bool `gorm:"not null" json:"allow_ai" form:"allow_ai" yaml:"allow_ai"`
	AllowBibleStudy bool `gorm:"not null" json:"allow_bible_study" form:"allow_bible_study" yaml:"allow_bible_study"`
	Active          bool `gorm:"not null" json:"active" form:"active" yaml:"active"`

	CreatedAt *time.Time `json:"created_at" yaml:"-"`
	UpdatedAt *time.Time `json:"updated_at" yaml:"-"`
}

func (plan Plan) MissingFields() string {
	if plan.Name == "" {
		return "name"
	} else if plan.MaxSermons < UNLIMITED {
		return "max_sermons"
	} else if plan.MaxUsers < UNLIMITED {
		return "max_users"
	} else if plan.MaxChurches < UNLIMITED {
		return "max_churches"
	} else if plan.PriceCents < 0 {
		return "price_cents"
	}
	return ""
}
