package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"pregador/apperr"
	"pregador/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// PlanUpdate only changes the fields that were sent.
type PlanUpdate struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	PriceCents      *int64  `json:"price_cents"`
	Currency        *string `json:"currency"`
	MaxSermons      *int64  `json:"max_sermons"`
	MaxUsers        *int64  `json:"max_users"`
	MaxChurches     *int64  `json:"max_churches"`
	AllowAI         *bool   `json:"allow_ai"`
	AllowBibleStudy *bool   `json:"allow_bible_study"`
	Active          *bool   `json:"active"`
}

func (body PlanUpdate) apply(plan *models.Plan) {
	if body.Name != nil {
		plan.Name = strings.TrimSpace(*body.Name)
	}
	if body.Description != nil {
		plan.Description = *body.Description
	}
	if body.PriceCents != nil {
		plan.PriceCents = *body.PriceCents
	}
	if body.Currency != nil {
		plan.Currency = *body.Currency
	}
	if body.MaxSermons != nil {
		plan.MaxSermons = *body.MaxSermons
	}
	if body.MaxUsers != nil {
		plan.MaxUsers = *body.MaxUsers
	}
	if body.MaxChurches != nil {
		plan.MaxChurches = *body.MaxChurches
	}
	if body.AllowAI != nil {
		plan.AllowAI = *body.AllowAI
	}
	if body.AllowBibleStudy != nil {
		plan.AllowBibleStudy = *body.AllowBibleStudy
	}
	if body.Active != nil {
		plan.Active = *body.Active
	}
}

// GET /api/plans
// Super-admins also see disabled plans.
func GetPlans(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db, ok := database(c)
	if !ok {
		return
	}

	q := db.Order("price_cents asc, id asc")
	if !user.SuperAdmin {
		q = q.Where("active = ?", true)
	}
	var plans []models.Plan
	if err := q.Find(&plans).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("list plans: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"plans": plans})
}

// GET /api/plans/:id
func GetPlanByID(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}

	plan, err := findPlan(db, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"plan": plan})
}

// POST /api/plans (super-admin)
func CreatePlan(c *gin.Context) {
	var body PlanUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	plan := models.Plan{Currency: "BRL", Active: true}
	body.apply(&plan)
	if missing := plan.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}

	db, ok := database(c)
	if !ok {
		return
	}
	var n int64
	if err := db.Model(&models.Plan{}).Where("name = ?", plan.Name).Count(&n).Error; err != nil {
		RespondAppError(c, apperr.Server(err))
		return
	} else if n > 0 {
		RespondError(c, "já existe um plano com esse nome", http.StatusBadRequest)
		return
	}

	if err := db.Create(&plan).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("create plan: %w", err)))
		return
	}
	RespondCreated(c, gin.H{"plan": plan})
}

// PUT /api/plans/:id (super-admin)
// Empresas já no plano só recebem os novos limites numa próxima troca aprovada.
func UpdatePlan(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var body PlanUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}

	plan, err := findPlan(db, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	body.apply(&plan)
	if missing := plan.MissingFields(); missing != "" {
		RespondError(c, "campo inválido: "+missing, http.StatusBadRequest)
		return
	}

	err = db.Model(&models.Plan{}).Where("id = ?", plan.ID).Updates(map[string]interface{}{
		"name":              plan.Name,
		"description":       plan.Description,
		"price_cents":       plan.PriceCents,
		"currency":          plan.Currency,
		"max_sermons":       plan.MaxSermons,
		"max_users":         plan.MaxUsers,
		"max_churches":      plan.MaxChurches,
		"allow_ai":          plan.AllowAI,
		"allow_bible_study": plan.AllowBibleStudy,
		"active":            plan.Active,
	}).Error
	if err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("update plan: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"plan": plan})
}

// DELETE /api/plans/:id (super-admin)
// Só desativa: empresas e solicitações ainda referenciam o plano.
func DeletePlan(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}
	if _, err := findPlan(db, id); err != nil {
		RespondAppError(c, err)
		return
	}
	if err := db.Model(&models.Plan{}).Where("id = ?", id).Update("active", false).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("disable plan: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"status": "disabled"})
}

func findPlan(db *gorm.DB, id int64) (models.Plan, error) {
	var plan models.Plan
	if err := db.First(&plan, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return plan, apperr.NotFound("plano não encontrado")
		}
		return plan, apperr.Server(fmt.Errorf("load plan: %w", err))
	}
	return plan, nil
}
