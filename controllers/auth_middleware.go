package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"pregador/models"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserKey    = "auth_user"
	ctxCompanyKey = "auth_company"
)

func tokenFromRequest(c *gin.Context) string {
	if t := strings.TrimSpace(c.GetHeader("x-auth-token")); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AuthRequired validates the token and loads the user and company into context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			RespondError(c, "token de acesso não informado", http.StatusUnauthorized)
			c.Abort()
			return
		}
		claims, err := ParseToken(raw)
		if err != nil {
			RespondError(c, "token inválido ou expirado", http.StatusUnauthorized)
			c.Abort()
			return
		}

		db, ok := database(c)
		if !ok {
			c.Abort()
			return
		}
		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			RespondError(c, "usuário não encontrado", http.StatusUnauthorized)
			c.Abort()
			return
		}
		var company models.Company
		if err := db.First(&company, user.CompanyID).Error; err != nil {
			RespondError(c, "empresa não encontrada", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if !company.Active && !user.SuperAdmin {
			RespondError(c, "empresa inativa", http.StatusForbidden)
			c.Abort()
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxCompanyKey, company)
		c.Next()
	}
}

// GetUserLogged returns the user loaded by AuthRequired.
func GetUserLogged(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func GetCompanyLogged(c *gin.Context) (models.Company, bool) {
	v, ok := c.Get(ctxCompanyKey)
	if !ok {
		return models.Company{}, false
	}
	company, ok := v.(models.Company)
	return company, ok
}

// CompanyKey identifica a empresa do usuário logado (usado pelo rate limiter).
func CompanyKey(c *gin.Context) string {
	user, ok := GetUserLogged(c)
	if !ok {
		return ""
	}
	return strconv.FormatInt(user.CompanyID, 10)
}
