package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/SscSPs/maika_backend/cmd/docs"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portssvc "github.com/SscSPs/maika_backend/internal/core/ports/services"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/SscSPs/maika_backend/internal/platform/config"
	"github.com/SscSPs/maika_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	posthogClient *utils.PosthogClientWrapper,
) error {
	if err := RegisterValidators(); err != nil {
		return err
	}

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	if err := setupAPIV1Routes(r, cfg, services, posthogClient); err != nil {
		return err
	}

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
	return nil
}

// RegisterValidators adds the domain binding tags to gin's validator engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return domain.IsKnownCurrency(strings.ToLower(fl.Field().String()))
	}); err != nil {
		return fmt.Errorf("failed to register currency validator: %w", err)
	}
	if err := v.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
		_, err := domain.TransactionType(strings.ToLower(fl.Field().String())).Routing()
		return err == nil
	}); err != nil {
		return fmt.Errorf("failed to register txtype validator: %w", err)
	}
	return nil
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *portssvc.ServiceContainer,
	posthogClient *utils.PosthogClientWrapper,
) error {
	// API tokens are tried first; requests without one must carry a JWT.
	v1 := r.Group("/api/v1",
		middleware.APITokenAuth(service.APIToken),
		middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer),
		middleware.ActorMiddleware(service.Permission),
		middleware.PosthogMiddleware(posthogClient),
	)

	var write []gin.HandlerFunc
	if cfg.RateLimit != "" {
		limiter, err := middleware.NewRateLimiter(cfg.RateLimit)
		if err != nil {
			return err
		}
		write = append(write, middleware.RateLimit(limiter))
	}

	registerMeRoutes(v1)
	registerLedgerRoutes(v1, service.Ledger, write...)
	registerBalanceRoutes(v1, service.Balance)
	registerHierarchyRoutes(v1, service.Tag, service.Entity)
	registerPermissionRoutes(v1, service.Permission)
	registerExchangeRateRoutes(v1, service.ExchangeRate, write...)
	RegisterAPITokenRoutes(v1, service.APIToken)
	return nil
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
