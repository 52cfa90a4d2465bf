package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/resumetailor/internal/api/handler"
	"github.com/timmy/resumetailor/internal/api/middleware"
	"github.com/timmy/resumetailor/internal/config"
	"github.com/timmy/resumetailor/internal/logger"
	"github.com/timmy/resumetailor/internal/service"
	"github.com/timmy/resumetailor/internal/source"
)

// Services bundles the service instances the router wires into handlers.
type Services struct {
	Uploads *service.UploadService
	Extract *service.ExtractService
	Tailor  *service.TailorService
	Jobs    source.JobSource
}

// SetupRouter configures the Gin router with all routes.
// Parameters:
//   - services: service instances for the handlers.
//   - cfg: server configuration (mode, CORS).
//   - log: base logger for request-scoped logging.
//
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(services *Services, cfg *config.ServerConfig, log *logger.Logger) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler()
	resumeHandler := handler.NewResumeHandler(services.Uploads, services.Extract)
	tailorHandler := handler.NewTailorHandler(services.Tailor)
	jobsHandler := handler.NewJobsHandler(services.Jobs)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Root info
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "resumetailor",
			"status":  "running",
		})
	})

	api := r.Group("/api")
	{
		// Resume upload and extraction
		api.POST("/save-resume", resumeHandler.SaveResume)
		api.POST("/upload", resumeHandler.Upload)
		api.POST("/extract/:id", resumeHandler.StartExtract)
		api.GET("/extract/:id/status", resumeHandler.ExtractStatus)

		// Tailoring runs
		api.POST("/tailor", tailorHandler.StartTailor)
		api.GET("/tailor/:id/status", tailorHandler.Status)
		api.POST("/tailor/:id/cancel", tailorHandler.Cancel)
		api.GET("/tailor/:id/bundle", tailorHandler.Bundle)
		api.GET("/download-resume/:recordId", tailorHandler.DownloadRecord)
		api.GET("/download/*file", tailorHandler.DownloadFile)

		// Job search
		api.GET("/search", jobsHandler.Search)
	}

	return r
}
