package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pagoseguro-auth/internal/config"
	"github.com/prperemyshlev/pagoseguro-auth/internal/handler"
	"github.com/prperemyshlev/pagoseguro-auth/internal/mailer"
	"github.com/prperemyshlev/pagoseguro-auth/internal/repository"
	"github.com/prperemyshlev/pagoseguro-auth/internal/service"
	"github.com/prperemyshlev/pagoseguro-auth/internal/utils"
	"github.com/prperemyshlev/pagoseguro-auth/internal/validation"
	"github.com/prperemyshlev/pagoseguro-auth/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra   Infrastructure
	config  *config.Config
	router  *gin.Engine
	server  *http.Server
	sweeper *service.TokenSweeper
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	validation.Init()

	repos := repository.NewRepositories(infra.Postgres())
	logger := infra.Logger()

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	metrics, err := service.NewMetrics(infra.MeterProvider().Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	authService := service.NewAuthService(service.Deps{
		Accounts:      repos.Account,
		RefreshTokens: repos.RefreshToken,
		Audit:         repos.Audit,
		Tokens:        jwtManager,
		Mailer: mailer.NewJobSender(infra.MailTransport(), mailer.Options{
			AppName:     cfg.Mail.AppName,
			FrontendURL: cfg.Mail.FrontendURL,
		}),
		Blacklist:       service.NewTokenBlacklistService(infra.Redis()),
		ResetCodes:      service.NewRedisResetCodeStore(infra.Redis()),
		Metrics:         metrics,
		Logger:          logger,
		BCryptCost:      cfg.Security.BCryptCost,
		RefreshTokenTTL: cfg.JWT.RefreshTokenExpiry.Duration,
	})

	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authHandler := handler.NewAuthHandler(authService, logger, handler.CookieOptions{
		Domain: cfg.Server.CookieDomain,
		Secure: cfg.Server.CookieSecure,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, logger, authHandler, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:   infra,
		config:  cfg,
		router:  router,
		server:  srv,
		sweeper: service.NewTokenSweeper(repos.RefreshToken, cfg.Security.TokenSweepInterval.Duration, logger),
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	authHandler *handler.AuthHandler,
	authService service.AuthService,
	rateLimiter service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	limited := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.IPRouteKey,
		logger,
	)
	authenticated := handler.AuthMiddleware(authService)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limited, authHandler.Register)
			auth.POST("/login", limited, authHandler.Login)
			auth.POST("/recover-password", limited, authHandler.RecoverPassword)
			auth.POST("/recover-password/confirm", limited, authHandler.ConfirmResetCode)
			auth.POST("/reset-password", limited, authHandler.ResetPassword)
			auth.POST("/verify-email", limited, authHandler.VerifyEmail)
			auth.POST("/verify-email/resend", limited, authHandler.ResendVerification)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authenticated, authHandler.Logout)
			auth.GET("/me", authenticated, authHandler.GetMe)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.sweeper.Run(sweepCtx)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	stopSweeper()

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

// Shutdown drains the HTTP server before closing the infrastructure it depends on
func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := errors.Join(
		a.server.Shutdown(ctx),
		a.infra.Shutdown(ctx),
	)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
