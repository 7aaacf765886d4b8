package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"pregador/apperr"
	"pregador/billing"
	dbpkg "pregador/db"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

func ParamID(c *gin.Context, name string) (int64, bool) {
	v := c.Param(name)
	if v == "" {
		RespondError(c, name+" é obrigatório", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, name+" inválido", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// database returns the request DB or answers 500.
func database(c *gin.Context) (*gorm.DB, bool) {
	db, ok := dbpkg.DBInstance(c)
	if !ok {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return nil, false
	}
	return db, true
}

func evaluator(db *gorm.DB) *billing.Evaluator {
	return billing.NewEvaluator(db).WithClock(deps.Now)
}

func workflow(db *gorm.DB) *billing.Workflow {
	return billing.NewWorkflow(db, deps.Notifier, deps.Config.Mail.FromMail)
}

func asLimit(err error, target **apperr.LimitExceededError) bool {
	return errors.As(err, target)
}
