package router

import (
	"net/http"

	"pregador/controllers"

	"github.com/gin-gonic/gin"
)

// Adminizer blocks access when user is not a platform super-admin.
func Adminizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if !user.SuperAdmin {
			controllers.RespondError(c, "acesso restrito ao administrador da plataforma", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
