package router

import (
	"net/http"

	"pregador/config"
	"pregador/controllers"
	dbpkg "pregador/db"
	"pregador/middleware"
	"pregador/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Initialize wires all routes and middlewares.
// Public routes, authenticated routes, role-gated routes and super-admin routes.
func Initialize(r *gin.Engine, cfg config.Configuration, db *gorm.DB) {
	r.Use(gin.Recovery())
	r.Use(Logger())
	r.Use(middleware.GinMetricsMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CorsOrigins))
	r.Use(dbpkg.SetDBtoContext(db))

	r.GET("/health", func(c *gin.Context) {
		if err := db.DB().PingContext(c.Request.Context()); err != nil {
			controllers.RespondError(c, "banco de dados indisponível", http.StatusServiceUnavailable)
			return
		}
		controllers.RespondSuccess(c, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Public
	api.POST("/auth/register", controllers.Register)
	api.POST("/auth/login", controllers.Login)
	api.POST("/auth/invites/accept", controllers.AcceptInvite)

	// Authenticated
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())

	generation := middleware.NewRateLimiter(
		middleware.PerMinute(cfg.RateLimit.GeneratePerMinute),
		cfg.RateLimit.GenerateBurst,
	).Middleware(controllers.CompanyKey)

	auth.GET("/me", controllers.Me)

	auth.GET("/plans", controllers.GetPlans)
	auth.GET("/plans/:id", controllers.GetPlanByID)

	auth.GET("/companies/me", controllers.GetMyCompany)
	auth.GET("/companies/me/usage", controllers.GetMyUsage)

	auth.GET("/churches", controllers.GetChurches)

	auth.GET("/sermons", controllers.GetSermons)
	auth.GET("/sermons/:id", controllers.GetSermonByID)
	auth.POST("/sermons", controllers.CreateSermon)
	auth.POST("/sermons/generate", generation, controllers.GenerateSermon)
	auth.DELETE("/sermons/:id", controllers.DeleteSermon)

	auth.GET("/bible-studies", controllers.GetBibleStudies)
	auth.POST("/bible-studies/generate", generation, controllers.GenerateBibleStudy)

	// Owner
	owner := auth.Group("")
	owner.Use(Authorizer(models.USER_ROLE_OWNER))
	owner.PUT("/companies/me/plan", controllers.RequestPlanChange)
	owner.PUT("/companies/me/ai-key", controllers.SetCompanyAIKey)

	// Owner or admin
	managers := auth.Group("")
	managers.Use(Authorizer(models.USER_ROLE_OWNER, models.USER_ROLE_ADMIN))
	managers.GET("/users", controllers.GetUsers)
	managers.POST("/users", controllers.CreateUser)
	managers.POST("/users/invites", controllers.CreateInvite)
	managers.PUT("/users/:id/sermon-limit", controllers.SetUserSermonLimit)
	managers.POST("/churches", controllers.CreateChurch)
	managers.PUT("/churches/:id", controllers.UpdateChurch)
	managers.DELETE("/churches/:id", controllers.DeleteChurch)

	// Super-admin
	admin := auth.Group("")
	admin.Use(Adminizer())
	admin.POST("/plans", controllers.CreatePlan)
	admin.PUT("/plans/:id", controllers.UpdatePlan)
	admin.DELETE("/plans/:id", controllers.DeletePlan)
	admin.GET("/companies", controllers.GetCompanies)
	admin.PUT("/companies/:id/status", controllers.SetCompanyStatus)
	admin.GET("/companies/requests/pending", controllers.GetPendingRequests)
	admin.POST("/companies/requests/:id/approve", controllers.ApproveRequest)
	admin.POST("/companies/requests/:id/reject", controllers.RejectRequest)
	admin.PUT("/users/:id/super-admin", controllers.SetUserSuperAdmin)

	zap.L().Info("rotas inicializadas")
}
