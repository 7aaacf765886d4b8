package controllers

import (
	"net/http"
	"time"

	"pregador/apperr"
	"pregador/billing"
	"pregador/config"
	"pregador/tools"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the collaborators shared by every handler. The database
// itself travels in the gin context (see db.SetDBtoContext).
type Dependencies struct {
	Config   config.Configuration
	Notifier billing.Notifier
	AI       tools.Generator
	Now      func() time.Time
}

var deps = Dependencies{Now: time.Now}

// Configure installs the handler dependencies. Call once before serving.
func Configure(d Dependencies) {
	if d.Now == nil {
		d.Now = time.Now
	}
	deps = d
}

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondAppError maps a service error to its status and public message.
// Limit errors also carry the usage that caused the rejection.
func RespondAppError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("erro ao processar requisição",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	body := gin.H{"error": apperr.PublicMessage(err)}
	var le *apperr.LimitExceededError
	if asLimit(err, &le) {
		body["used"] = le.Used
		body["limit"] = le.Limit
		body["scope"] = le.Scope
	}
	c.JSON(status, body)
}
