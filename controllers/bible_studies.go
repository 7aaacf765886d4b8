package controllers

import (
	"fmt"
	"net/http"

	"pregador/apperr"
	"pregador/models"
	"pregador/tools"

	"github.com/gin-gonic/gin"
)

// GET /api/bible-studies
func GetBibleStudies(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db, ok := database(c)
	if !ok {
		return
	}
	var studies []models.BibleStudy
	if err := db.Where("company_id = ?", user.CompanyID).Order("id desc").Find(&studies).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("list bible studies: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"bible_studies": studies})
}

// POST /api/bible-studies/generate
func GenerateBibleStudy(c *gin.Context) {
	user, _ := GetUserLogged(c)
	company, _ := GetCompanyLogged(c)

	if !company.AllowAI || !company.AllowBibleStudy {
		RespondAppError(c, apperr.AIDisabled("Seu plano não inclui estudos bíblicos com IA. Faça upgrade para usar este recurso."))
		return
	}

	var req tools.BibleStudyPrompt
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if missing := req.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}

	provider, err := tools.ResolveProvider(company, deps.Config)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	text, err := deps.AI.Complete(c.Request.Context(), provider, deps.Config.AI.SystemPrompt, req.Build())
	if err != nil {
		RespondAppError(c, err)
		return
	}

	db, ok := database(c)
	if !ok {
		return
	}
	title, content := tools.SplitTitle(text, "Estudo de "+req.BibleText)
	study := models.BibleStudy{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Title:     title,
		BibleText: req.BibleText,
		Content:   content,
	}
	if err := db.Create(&study).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("create bible study: %w", err)))
		return
	}
	RespondCreated(c, gin.H{"bible_study": study})
}
