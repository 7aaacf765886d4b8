package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"pregador/apperr"
	"pregador/models"
	"pregador/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name        string `json:"name" form:"name"`
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	CompanyName string `json:"company_name" form:"company_name"`
}

func (req RegisterRequest) MissingFields() string {
	if strings.TrimSpace(req.Name) == "" {
		return "name"
	} else if strings.TrimSpace(req.Email) == "" {
		return "email"
	} else if req.Password == "" {
		return "password"
	} else if strings.TrimSpace(req.CompanyName) == "" {
		return "company_name"
	}
	return ""
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type AuthResponse struct {
	Token   string         `json:"token"`
	User    models.User    `json:"user"`
	Company models.Company `json:"company"`
}

// POST /api/auth/register
// Cria a empresa no plano padrão e o usuário proprietário na mesma transação.
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if missing := req.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}
	req.Email = models.NormalizeEmail(req.Email)
	if !tools.ValidateEmail(req.Email) {
		RespondError(c, "E-mail inválido!", http.StatusBadRequest)
		return
	}
	if tools.CheckPassword(req.Password, deps.Config.Security.MinPasswordLen) != "" {
		RespondError(c, fmt.Sprintf("a senha deve ter ao menos %d caracteres", deps.Config.Security.MinPasswordLen), http.StatusBadRequest)
		return
	}

	db, ok := database(c)
	if !ok {
		return
	}

	exists, err := emailTaken(db, req.Email)
	if err != nil {
		RespondAppError(c, err)
		return
	} else if exists {
		RespondError(c, "Usuário já existe", http.StatusBadRequest)
		return
	}

	var plan models.Plan
	if err := db.Where("name = ?", deps.Config.DefaultPlan).First(&plan).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("default plan %q: %w", deps.Config.DefaultPlan, err)))
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		RespondAppError(c, apperr.Server(err))
		return
	}

	company := models.Company{Name: strings.TrimSpace(req.CompanyName), Active: true}
	company.ApplyPlan(plan)

	user := models.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      req.Email,
		Password:   hash,
		Role:       models.USER_ROLE_OWNER,
		SuperAdmin: isSeededSuperAdmin(req.Email),
	}

	tx := db.Begin()
	if err := tx.Create(&company).Error; err != nil {
		tx.Rollback()
		RespondAppError(c, apperr.Server(fmt.Errorf("create company: %w", err)))
		return
	}
	user.CompanyID = company.ID
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		RespondAppError(c, apperr.Server(fmt.Errorf("create owner: %w", err)))
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondAppError(c, apperr.Server(fmt.Errorf("commit register: %w", err)))
		return
	}

	token, err := IssueToken(user)
	if err != nil {
		RespondAppError(c, apperr.Server(err))
		return
	}

	zap.L().Info("nova conta cadastrada",
		zap.Int64("company_id", company.ID),
		zap.Int64("user_id", user.ID),
		zap.String("plan", company.Plan),
	)
	RespondCreated(c, AuthResponse{Token: token, User: user, Company: company})
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(c, "email e password são obrigatórios", http.StatusBadRequest)
		return
	}

	db, ok := database(c)
	if !ok {
		return
	}

	var user models.User
	if err := db.Where("email = ?", models.NormalizeEmail(req.Email)).First(&user).Error; err != nil {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}

	var company models.Company
	if err := db.First(&company, user.CompanyID).Error; err != nil {
		RespondError(c, "empresa não encontrada", http.StatusUnauthorized)
		return
	}
	if !company.Active && !user.SuperAdmin {
		RespondError(c, "empresa inativa", http.StatusForbidden)
		return
	}

	token, err := IssueToken(user)
	if err != nil {
		RespondError(c, "erro ao assinar token", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, AuthResponse{Token: token, User: user, Company: company})
}

func hashPassword(password string) (string, error) {
	cost := deps.Config.Security.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func emailTaken(db *gorm.DB, email string) (bool, error) {
	var n int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, apperr.Server(fmt.Errorf("check email: %w", err))
	}
	return n > 0, nil
}

func isSeededSuperAdmin(email string) bool {
	for _, e := range deps.Config.SuperAdmins {
		if models.NormalizeEmail(e) == email {
			return true
		}
	}
	return false
}
