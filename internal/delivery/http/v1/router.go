package v1

import (
	"net/http"
	"time"

	"inclusive-matching-api/internal/delivery/http/middleware"
	"inclusive-matching-api/internal/delivery/http/response"
	"inclusive-matching-api/internal/domain"
	"inclusive-matching-api/internal/usecase"
	"inclusive-matching-api/pkg/apperror"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const statusMessage = "Inclusive Matching API is running!"

type RouterDeps struct {
	ProfileUC domain.ProfileUsecase
	MatchUC   domain.MatchUsecase
	HealthUC  usecase.HealthUsecase
	// RateStore backs the /ai/match limiter; nil means in-memory only
	RateStore       middleware.RateLimitStore
	MatchRateLimit  int
	MatchRateWindow time.Duration
	CORS            middleware.CORSConfig
	Logger          *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.RedirectTrailingSlash = false

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.CORS)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler(log))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Not Found", nil)
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": statusMessage})
	})

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		if deps.HealthUC == nil {
			response.Success(c, http.StatusOK, "System operational", gin.H{"status": "ok"})
			return
		}
		status, healthy := deps.HealthUC.Check(c.Request.Context())
		if !healthy {
			unavailable := apperror.ServiceUnavailable("Dependency unavailable", nil)
			unavailable.Details = status
			response.AppError(c, unavailable)
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	NewProfileHandler(r, deps.ProfileUC)
	NewMatchHandler(r, deps.MatchUC,
		middleware.RateLimitMiddleware(
			middleware.MatchRateLimitConfig(deps.MatchRateLimit, deps.MatchRateWindow),
			deps.RateStore,
			log.Named("ratelimit"),
		),
	)

	return r
}
