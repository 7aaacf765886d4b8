package router

import (
	"net/http"

	"pregador/controllers"

	"github.com/gin-gonic/gin"
)

// Authorizer blocks access when the user's role is not one of roles.
func Authorizer(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		controllers.RespondError(c, "seu perfil não tem acesso a esta operação", http.StatusForbidden)
		c.Abort()
	}
}
