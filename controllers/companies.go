package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"pregador/apperr"
	"pregador/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PlanChangeRequest struct {
	PlanID int64 `json:"plan_id" form:"plan_id"`
}

type AIKeyRequest struct {
	Provider string `json:"provider" form:"provider"`
	ApiKey   string `json:"api_key" form:"api_key"`
}

type CompanyStatusRequest struct {
	Active *bool `json:"active"`
}

// GET /api/companies/me
func GetMyCompany(c *gin.Context) {
	company, ok := GetCompanyLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}
	if err := db.Preload("RequestedPlan").First(&company, company.ID).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("load company: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"company": company})
}

// GET /api/companies/me/usage
func GetMyUsage(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}
	report, err := evaluator(db).Usage(c.Request.Context(), user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"usage": report})
}

// PUT /api/companies/me/plan (owner)
func RequestPlanChange(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req PlanChangeRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PlanID <= 0 {
		RespondError(c, "plan_id é obrigatório", http.StatusBadRequest)
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}

	company, err := workflow(db).Request(c.Request.Context(), user, req.PlanID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondSuccess(c, gin.H{
		"company": company,
		"message": "Solicitação enviada. A troca será aplicada após aprovação.",
	})
}

// PUT /api/companies/me/ai-key (owner)
// Chave vazia remove a chave própria e volta a usar a do sistema.
func SetCompanyAIKey(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !user.IsOwner() {
		RespondError(c, "apenas o proprietário da conta pode alterar a chave de IA", http.StatusForbidden)
		return
	}
	var req AIKeyRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	req.ApiKey = strings.TrimSpace(req.ApiKey)
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	if req.Provider == "" {
		req.Provider = models.AI_PROVIDER_GROQ
	}
	if req.Provider != models.AI_PROVIDER_GROQ && req.Provider != models.AI_PROVIDER_OPENAI {
		RespondError(c, "provider inválido (use groq ou openai)", http.StatusBadRequest)
		return
	}
	if req.ApiKey == "" {
		req.Provider = ""
	}

	db, ok := database(c)
	if !ok {
		return
	}
	err := db.Model(&models.Company{}).Where("id = ?", user.CompanyID).Updates(map[string]interface{}{
		"ai_provider": req.Provider,
		"ai_api_key":  req.ApiKey,
	}).Error
	if err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("update ai key: %w", err)))
		return
	}
	zap.L().Info("chave de IA da empresa atualizada",
		zap.Int64("company_id", user.CompanyID),
		zap.String("provider", req.Provider),
		zap.Bool("removed", req.ApiKey == ""),
	)
	RespondSuccess(c, gin.H{"ai_provider": req.Provider, "has_ai_key": req.ApiKey != ""})
}

// GET /api/companies (super-admin)
func GetCompanies(c *gin.Context) {
	db, ok := database(c)
	if !ok {
		return
	}
	var companies []models.Company
	if err := db.Preload("RequestedPlan").Order("id asc").Find(&companies).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("list companies: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"companies": companies})
}

// PUT /api/companies/:id/status (super-admin)
func SetCompanyStatus(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req CompanyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Active == nil {
		RespondError(c, "active é obrigatório", http.StatusBadRequest)
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}

	res := db.Model(&models.Company{}).Where("id = ?", id).Update("active", *req.Active)
	if res.Error != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("update status: %w", res.Error)))
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "empresa não encontrada", http.StatusNotFound)
		return
	}
	RespondSuccess(c, gin.H{"id": id, "active": *req.Active})
}

// GET /api/companies/requests/pending (super-admin)
func GetPendingRequests(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db, ok := database(c)
	if !ok {
		return
	}
	companies, err := workflow(db).Pending(c.Request.Context(), user)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"requests": companies})
}

// POST /api/companies/requests/:id/approve (super-admin)
func ApproveRequest(c *gin.Context) {
	decidePlanRequest(c, true)
}

// POST /api/companies/requests/:id/reject (super-admin)
func RejectRequest(c *gin.Context) {
	decidePlanRequest(c, false)
}

func decidePlanRequest(c *gin.Context, approve bool) {
	user, _ := GetUserLogged(c)
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}

	wf := workflow(db)
	var (
		company models.Company
		err     error
	)
	if approve {
		company, err = wf.Approve(c.Request.Context(), user, id)
	} else {
		company, err = wf.Reject(c.Request.Context(), user, id)
	}
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"company": company})
}
