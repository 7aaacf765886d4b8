package models

import (
	"strings"
	"time"
)

/************************************************
/**** MARK: INVITE STATUS  ****/
/************************************************/
const INVITE_STATUS_PENDING = 0
const INVITE_STATUS_ACCEPTED = 1
const INVITE_STATUS_EXPIRED = 2

// Invite é um convite para um novo usuário entrar em uma empresa.
// O usuário só é criado quando o convite é aceito.
type Invite struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CompanyID int64      `gorm:"not null;index" json:"company_id"`
	InviterID int64      `gorm:"not null" json:"inviter_id"`
	Email     string     `gorm:"not null;index" json:"email" form:"email"`
	Role      string     `gorm:"not null" json:"role" form:"role"`
	Code      string     `gorm:"not null;unique" json:"-"`
	Status    int64      `gorm:"not null" json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (invite Invite) MissingFields() string {
	if strings.TrimSpace(invite.Email) == "" {
		return "email"
	} else if invite.Role == "" {
		return "role"
	}
	return ""
}

func (invite Invite) IsExpired(now time.Time) bool {
	if invite.ExpiresAt == nil {
		return false
	}
	return now.After(*invite.ExpiresAt)
}
