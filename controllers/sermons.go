package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pregador/apperr"
	"pregador/billing"
	"pregador/models"
	"pregador/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

type SermonInput struct {
	Title     string `json:"title" form:"title"`
	Theme     string `json:"theme" form:"theme"`
	BibleText string `json:"bible_text" form:"bible_text"`
	Content   string `json:"content" form:"content"`
	ChurchID  *int64 `json:"church_id" form:"church_id"`
}

type GenerateSermonRequest struct {
	tools.SermonPrompt
	ChurchID *int64 `json:"church_id" form:"church_id"`
}

// GET /api/sermons
func GetSermons(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db, ok := database(c)
	if !ok {
		return
	}

	q := db.Where("company_id = ?", user.CompanyID)
	if v := c.Query("church_id"); v != "" {
		churchID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			RespondError(c, "church_id inválido", http.StatusBadRequest)
			return
		}
		q = q.Where("church_id = ?", churchID)
	}
	if c.Query("mine") == "true" {
		q = q.Where("user_id = ?", user.ID)
	}

	var sermons []models.Sermon
	if err := q.Order("created_at desc, id desc").Find(&sermons).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("list sermons: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"sermons": sermons})
}

// GET /api/sermons/:id
func GetSermonByID(c *gin.Context) {
	user, _ := GetUserLogged(c)
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}
	sermon, err := companySermon(db, user.CompanyID, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"sermon": sermon})
}

// POST /api/sermons
func CreateSermon(c *gin.Context) {
	user, _ := GetUserLogged(c)
	var in SermonInput
	if err := c.Bind(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	sermon := models.Sermon{
		UserID:    user.ID,
		ChurchID:  in.ChurchID,
		Title:     strings.TrimSpace(in.Title),
		Theme:     strings.TrimSpace(in.Theme),
		BibleText: strings.TrimSpace(in.BibleText),
		Content:   in.Content,
		Source:    models.SERMON_SOURCE_MANUAL,
	}
	if missing := sermon.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}

	db, ok := database(c)
	if !ok {
		return
	}
	if err := checkChurch(db, user.CompanyID, sermon.ChurchID); err != nil {
		RespondAppError(c, err)
		return
	}

	decision, err := evaluator(db).CreateSermon(c.Request.Context(), &sermon, billing.PathManual)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"sermon": sermon, "usage": usageOf(decision)})
}

// POST /api/sermons/generate
// A cota é checada antes da chamada à IA e de novo, com trava, na gravação.
func GenerateSermon(c *gin.Context) {
	user, _ := GetUserLogged(c)
	company, _ := GetCompanyLogged(c)

	var req GenerateSermonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if missing := req.MissingFields(); missing != "" {
		RespondError(c, "Informe o tema ou o texto bíblico", http.StatusBadRequest)
		return
	}

	db, ok := database(c)
	if !ok {
		return
	}
	if err := checkChurch(db, user.CompanyID, req.ChurchID); err != nil {
		RespondAppError(c, err)
		return
	}

	ev := evaluator(db)
	ctx := c.Request.Context()
	if _, err := ev.Check(ctx, user.ID, billing.PathAI); err != nil {
		RespondAppError(c, err)
		return
	}

	provider, err := tools.ResolveProvider(company, deps.Config)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	text, err := deps.AI.Complete(ctx, provider, deps.Config.AI.SystemPrompt, req.Build())
	if err != nil {
		RespondAppError(c, err)
		return
	}

	fallback := req.Theme
	if fallback == "" {
		fallback = req.BibleText
	}
	title, content := tools.SplitTitle(text, fallback)
	sermon := models.Sermon{
		UserID:    user.ID,
		ChurchID:  req.ChurchID,
		Title:     title,
		Theme:     req.Theme,
		BibleText: req.BibleText,
		Content:   content,
		Source:    models.SERMON_SOURCE_AI,
	}
	decision, err := ev.CreateSermon(ctx, &sermon, billing.PathAI)
	if err != nil {
		if apperr.IsLimitExceeded(err) {
			zap.L().Warn("sermão gerado descartado: cota esgotada durante a geração",
				zap.Int64("user_id", user.ID), zap.String("provider", provider.Name))
		}
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"sermon": sermon, "usage": usageOf(decision)})
}

// DELETE /api/sermons/:id (autor, owner ou admin)
func DeleteSermon(c *gin.Context) {
	user, _ := GetUserLogged(c)
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}
	sermon, err := companySermon(db, user.CompanyID, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if sermon.UserID != user.ID && !user.CanManageCompany() {
		RespondError(c, "sem permissão para excluir este sermão", http.StatusForbidden)
		return
	}
	if err := db.Delete(&sermon).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("delete sermon: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"status": "deleted"})
}

func usageOf(d billing.Decision) gin.H {
	return gin.H{"scope": d.Scope, "used": d.Used, "limit": d.Limit}
}

func checkChurch(db *gorm.DB, companyID int64, churchID *int64) error {
	if churchID == nil {
		return nil
	}
	_, err := companyChurch(db, companyID, *churchID)
	return err
}

func companySermon(db *gorm.DB, companyID, id int64) (models.Sermon, error) {
	var sermon models.Sermon
	if err := db.Where("id = ? AND company_id = ?", id, companyID).First(&sermon).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return sermon, apperr.NotFound("sermão não encontrado")
		}
		return sermon, apperr.Server(fmt.Errorf("load sermon: %w", err))
	}
	return sermon, nil
}
