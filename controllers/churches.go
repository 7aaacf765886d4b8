package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"pregador/apperr"
	"pregador/billing"
	"pregador/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// GET /api/churches
func GetChurches(c *gin.Context) {
	user, _ := GetUserLogged(c)
	db, ok := database(c)
	if !ok {
		return
	}
	var churches []models.Church
	if err := db.Where("company_id = ?", user.CompanyID).Order("name asc").Find(&churches).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("list churches: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"churches": churches})
}

// POST /api/churches (owner, admin)
func CreateChurch(c *gin.Context) {
	user, _ := GetUserLogged(c)
	var church models.Church
	if err := c.Bind(&church); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	church.Name = strings.TrimSpace(church.Name)
	if church.Name == "" {
		RespondError(c, "Faltando campo name", http.StatusBadRequest)
		return
	}
	church.ID = 0
	church.CompanyID = user.CompanyID

	db, ok := database(c)
	if !ok {
		return
	}
	err := billing.CreateWithinLimit(c.Request.Context(), db, user.CompanyID, billing.ResourceChurches, func(tx *gorm.DB) error {
		if err := tx.Create(&church).Error; err != nil {
			return apperr.Server(fmt.Errorf("create church: %w", err))
		}
		return nil
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"church": church})
}

// PUT /api/churches/:id (owner, admin)
func UpdateChurch(c *gin.Context) {
	user, _ := GetUserLogged(c)
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var body models.Church
	if err := c.Bind(&body); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}

	church, err := companyChurch(db, user.CompanyID, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if name := strings.TrimSpace(body.Name); name != "" {
		church.Name = name
	}
	church.Pastor = body.Pastor
	church.City = body.City
	church.State = body.State

	if err := db.Save(&church).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("update church: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"church": church})
}

// DELETE /api/churches/:id (owner, admin)
// Sermões da igreja ficam sem vínculo.
func DeleteChurch(c *gin.Context) {
	user, _ := GetUserLogged(c)
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := database(c)
	if !ok {
		return
	}
	church, err := companyChurch(db, user.CompanyID, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	tx := db.Begin()
	if err := tx.Model(&models.Sermon{}).Where("church_id = ?", church.ID).Update("church_id", gorm.Expr("NULL")).Error; err != nil {
		tx.Rollback()
		RespondAppError(c, apperr.Server(fmt.Errorf("unlink sermons: %w", err)))
		return
	}
	if err := tx.Delete(&church).Error; err != nil {
		tx.Rollback()
		RespondAppError(c, apperr.Server(fmt.Errorf("delete church: %w", err)))
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondAppError(c, apperr.Server(fmt.Errorf("commit delete church: %w", err)))
		return
	}
	RespondSuccess(c, gin.H{"status": "deleted"})
}

func companyChurch(db *gorm.DB, companyID, id int64) (models.Church, error) {
	var church models.Church
	if err := db.Where("id = ? AND company_id = ?", id, companyID).First(&church).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return church, apperr.NotFound("igreja não encontrada")
		}
		return church, apperr.Server(fmt.Errorf("load church: %w", err))
	}
	return church, nil
}
