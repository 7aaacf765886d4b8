package models

import (
	"strings"
	"time"
)

/************************************************
/**** MARK: USER ROLES ****/
/************************************************/
const USER_ROLE_MEMBER = "member"
const USER_ROLE_ADMIN = "admin"
const USER_ROLE_OWNER = "owner"

// User representa um usuario de uma empresa.
type User struct {
	ID        int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name      string `gorm:"not null" json:"name" form:"name"`
	Email     string `gorm:"not null;unique" json:"email" form:"email"`
	Password  string `gorm:"not null" json:"-"`
	Role      string `gorm:"not null" json:"role" form:"role"`
	CompanyID int64  `gorm:"not null;index" json:"company_id"`

	// SuperAdmin é a capacidade de operador da plataforma (aprovar trocas de plano, administrar planos).
	SuperAdmin bool `gorm:"not null" json:"super_admin"`

	// SermonLimit sobrescreve a cota da empresa para este usuário.
	// nil = segue a empresa, -1 = ilimitado.
	SermonLimit *int64 `json:"sermon_limit"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (user User) IsOwner() bool {
	return user.Role == USER_ROLE_OWNER
}

// CanManageCompany indica owner ou admin.
func (user User) CanManageCompany() bool {
	return user.Role == USER_ROLE_OWNER || user.Role == USER_ROLE_ADMIN
}

func IsValidRole(role string) bool {
	switch role {
	case USER_ROLE_MEMBER, USER_ROLE_ADMIN, USER_ROLE_OWNER:
		return true
	}
	return false
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
