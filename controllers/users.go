package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"pregador/apperr"
	"pregador/billing"
	"pregador/models"
	"pregador/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

type CreateUserRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

type SermonLimitRequest struct {
	// nil remove a sobrescrita e volta para a cota da empresa.
	SermonLimit *int64 `json:"sermon_limit"`
}

type SuperAdminRequest struct {
	SuperAdmin *bool `json:"super_admin"`
}

// GET /api/users (owner, admin)
func GetUsers(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db, ok := database(c)
	if !ok {
		return
	}
	var users []models.User
	if err := db.Where("company_id = ?", user.CompanyID).Order("id asc").Find(&users).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("list users: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"users": users})
}

// POST /api/users (owner, admin)
func CreateUser(c *gin.Context) {
	actor, _ := GetUserLogged(c)
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	req.Email = models.NormalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = models.USER_ROLE_MEMBER
	}
	if strings.TrimSpace(req.Name) == "" {
		RespondError(c, "Faltando campo name", http.StatusBadRequest)
		return
	}
	if !tools.ValidateEmail(req.Email) {
		RespondError(c, "E-mail inválido!", http.StatusBadRequest)
		return
	}
	if tools.CheckPassword(req.Password, deps.Config.Security.MinPasswordLen) != "" {
		RespondError(c, fmt.Sprintf("a senha deve ter ao menos %d caracteres", deps.Config.Security.MinPasswordLen), http.StatusBadRequest)
		return
	}
	if !assignableRole(actor, req.Role) {
		RespondError(c, "perfil inválido", http.StatusBadRequest)
		return
	}

	db, ok := database(c)
	if !ok {
		return
	}
	if taken, err := emailTaken(db, req.Email); err != nil {
		RespondAppError(c, err)
		return
	} else if taken {
		RespondError(c, "Usuário já existe", http.StatusBadRequest)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		RespondAppError(c, apperr.Server(err))
		return
	}
	user := models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Password:  hash,
		Role:      req.Role,
		CompanyID: actor.CompanyID,
	}
	err = billing.CreateWithinLimit(c.Request.Context(), db, actor.CompanyID, billing.ResourceUsers, func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return apperr.Server(fmt.Errorf("create user: %w", err))
		}
		return nil
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"user": user})
}

// PUT /api/users/:id/sermon-limit (owner, admin)
func SetUserSermonLimit(c *gin.Context) {
	actor, _ := GetUserLogged(c)
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req SermonLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.SermonLimit != nil && *req.SermonLimit < models.UNLIMITED {
		RespondError(c, "sermon_limit deve ser -1 (ilimitado) ou maior ou igual a zero", http.StatusBadRequest)
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}

	target, err := companyUser(db, actor.CompanyID, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	err = db.Model(&models.User{}).Where("id = ?", target.ID).
		Updates(map[string]interface{}{"sermon_limit": req.SermonLimit}).Error
	if err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("update sermon limit: %w", err)))
		return
	}
	target.SermonLimit = req.SermonLimit
	RespondSuccess(c, gin.H{"user": target})
}

// PUT /api/users/:id/super-admin (super-admin)
func SetUserSuperAdmin(c *gin.Context) {
	actor, _ := GetUserLogged(c)
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req SuperAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.SuperAdmin == nil {
		RespondError(c, "super_admin é obrigatório", http.StatusBadRequest)
		return
	}
	if id == actor.ID && !*req.SuperAdmin {
		RespondError(c, "não é possível remover o próprio acesso de administrador", http.StatusBadRequest)
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}

	res := db.Model(&models.User{}).Where("id = ?", id).Update("super_admin", *req.SuperAdmin)
	if res.Error != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("update super admin: %w", res.Error)))
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "usuário não encontrado", http.StatusNotFound)
		return
	}
	zap.L().Info("capacidade de super-admin alterada",
		zap.Int64("user_id", id),
		zap.Bool("super_admin", *req.SuperAdmin),
		zap.Int64("changed_by", actor.ID),
	)
	RespondSuccess(c, gin.H{"id": id, "super_admin": *req.SuperAdmin})
}

// assignableRole: ninguém cria outro proprietário; só o proprietário cria administradores.
func assignableRole(actor models.User, role string) bool {
	switch role {
	case models.USER_ROLE_MEMBER:
		return true
	case models.USER_ROLE_ADMIN:
		return actor.IsOwner()
	}
	return false
}

func companyUser(db *gorm.DB, companyID, userID int64) (models.User, error) {
	var user models.User
	err := db.Where("id = ? AND company_id = ?", userID, companyID).First(&user).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return user, apperr.NotFound("usuário não encontrado")
		}
		return user, apperr.Server(fmt.Errorf("load user: %w", err))
	}
	return user, nil
}
