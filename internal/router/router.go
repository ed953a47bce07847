package router

import (
	"net/http"
	"time"

	"github.com/codearena/mcq-backend/internal/config"
	"github.com/codearena/mcq-backend/internal/handler"
	"github.com/codearena/mcq-backend/internal/middleware"
	"github.com/codearena/mcq-backend/internal/response"
	"github.com/codearena/mcq-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	Category *handler.CategoryHandler
	Tag      *handler.TagHandler
	Paper    *handler.PaperHandler
	Session  *handler.SessionHandler
	Wrong    *handler.WrongQuestionHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. User Group (JWT) ───────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	{
		api.GET("/categories", handlers.Category.Tree)
		api.GET("/tags", handlers.Tag.List)
		api.GET("/papers", handlers.Paper.ListPublic)

		api.POST("/sessions", handlers.Session.Create)
		api.GET("/sessions", handlers.Session.List)
		api.GET("/sessions/:id", handlers.Session.Get)
		api.POST("/sessions/:id/start", handlers.Session.Start)
		api.POST("/sessions/:id/answer", handlers.Session.SubmitAnswer)
		api.POST("/sessions/:id/autosave", handlers.Session.Autosave)
		api.POST("/sessions/:id/behavior", handlers.Session.RecordBehavior)
		api.POST("/sessions/:id/submit", handlers.Session.Submit)
		api.GET("/sessions/:id/report", handlers.Session.Report)

		api.GET("/wrong-questions", handlers.Wrong.List)
		api.GET("/wrong-questions/practice", handlers.Wrong.PracticeFeed)
		api.PUT("/wrong-questions/:id", handlers.Wrong.Update)
		api.POST("/wrong-questions/:id/mastered", handlers.Wrong.SetMastered)
		api.DELETE("/wrong-questions/:id", handlers.Wrong.Delete)
	}

	// ─── 3. WebSocket Group (WS Auth via ?token=) ──────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Admin Group (JWT + admin flag) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdmin(authService))
	{
		adminAPI.GET("/questions", handlers.Question.List)
		adminAPI.GET("/questions/:id", handlers.Question.Get)
		adminAPI.POST("/questions", handlers.Question.Create)
		adminAPI.PUT("/questions/:id", handlers.Question.Update)
		adminAPI.DELETE("/questions/:id", handlers.Question.Delete)

		adminAPI.POST("/categories", handlers.Category.Create)
		adminAPI.PUT("/categories/:id", handlers.Category.Update)
		adminAPI.DELETE("/categories/:id", handlers.Category.Delete)

		adminAPI.POST("/tags", handlers.Tag.Create)
		adminAPI.DELETE("/tags/:id", handlers.Tag.Delete)

		adminAPI.GET("/papers", handlers.Paper.List)
		adminAPI.GET("/papers/:id", handlers.Paper.Get)
		adminAPI.GET("/papers/:id/preview", handlers.Paper.Preview)
		adminAPI.POST("/papers", handlers.Paper.Create)
		adminAPI.PUT("/papers/:id", handlers.Paper.Update)
		adminAPI.DELETE("/papers/:id", handlers.Paper.Delete)
	}

	return router
}
