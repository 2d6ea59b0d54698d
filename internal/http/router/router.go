package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/config"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/http/handlers"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/http/middleware"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	preferenceHandler *handlers.PreferenceHandler,
	profileHandler *handlers.ProfileHandler,
	adminHandler *handlers.AdminHandler,
	sweepHandler *handlers.SweepHandler,
	wsHandler *handlers.WSHandler,
	tokenManager *service.TokenManager,
	profiles middleware.ProfileProvisioner,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// Публичные маршруты
	api.GET("/reports", reportHandler.ListVerified)
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager, profiles))
	{
		writeRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitPeriod)

		protected.POST("/reports", writeRateLimit, reportHandler.Submit)
		protected.GET("/reports/my", reportHandler.ListMy)
		protected.GET("/reports/:id", middleware.UUIDValidator("id"), reportHandler.Get)

		protected.GET("/preferences", preferenceHandler.ListMine)
		protected.POST("/preferences", writeRateLimit, preferenceHandler.Upsert)
		protected.DELETE("/preferences", preferenceHandler.DeleteAll)
		protected.DELETE("/preferences/:id", middleware.UUIDValidator("id"), preferenceHandler.Delete)

		protected.GET("/me", profileHandler.GetMe)
		protected.PUT("/me", profileHandler.UpdateMe)
	}

	// Модерация
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager, profiles), middleware.AdminOnly())
	{
		admin.GET("/reports", adminHandler.ListReports)
		admin.GET("/reports/:id", middleware.UUIDValidator("id"), adminHandler.GetReport)
		admin.POST("/reports/:id/decision", middleware.UUIDValidator("id"), adminHandler.Decide)
		admin.GET("/stats", adminHandler.Stats)
	}

	// Служебные эндпоинты внешнего cron'а
	worker := api.Group("/worker")
	worker.Use(middleware.WorkerAuth(cfg.WorkerSecret))
	{
		worker.POST("/alerts/run", sweepHandler.RunAlerts)
		worker.POST("/purge/run", sweepHandler.RunPurge)
	}

	return r
}
