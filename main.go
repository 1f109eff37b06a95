package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"controlia/internal/config"
	"controlia/internal/handlers"
	"controlia/internal/llm"
	"controlia/internal/metrics"
	"controlia/internal/middleware"
	"controlia/internal/models"
	natsClient "controlia/internal/nats"
	redisClient "controlia/internal/redis"
	"controlia/internal/repository"
	"controlia/internal/services"
)

func main() {
	// Load configuration
	cfg := config.New()

	// Billing webhooks cannot be verified without the signing secret,
	// so refuse to start without the payment secrets.
	if err := cfg.Stripe.Validate(); err != nil {
		log.Fatalf("Invalid payment configuration: %v", err)
	}
	if cfg.App.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is required")
	}

	logger := initLogger(cfg)

	// Initialize database connection
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto-migrate models
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis connection (optional: usage mirror only)
	var cache *redisClient.Client
	cache, err = redisClient.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, usage counters served from PostgreSQL only")
		cache = nil
	}

	// Initialize NATS connection for event publishing (optional)
	var events *natsClient.Client
	events, err = natsClient.NewClient(cfg.NATS.URL, logger)
	if err != nil {
		logger.WithError(err).Warn("NATS unavailable, event publishing disabled")
		events = nil
	} else {
		defer events.Close()
	}

	// Initialize metrics
	metricsCollector := metrics.New()
	stopMetrics := make(chan struct{})
	go metricsCollector.WatchDBPool(db, stopMetrics)

	// Initialize repositories
	tenantRepo := repository.NewTenantRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	planRepo := repository.NewPlanRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Initialize services
	auditSvc := services.NewAuditService(auditRepo, logger)
	authSvc := services.NewAuthService(db, profileRepo, tenantRepo, auditSvc, cfg.App.JWTSecret, cfg.App.SessionHours, logger)
	usageSvc := services.NewUsageService(usageRepo, profileRepo, agentRepo, cache, logger)
	tenantSvc := services.NewTenantService(tenantRepo, profileRepo, planRepo, auditSvc, events, logger)
	planSvc := services.NewPlanService(planRepo, tenantRepo, auditSvc, logger)
	profileSvc := services.NewProfileService(profileRepo, usageSvc, auditSvc, logger)
	agentSvc := services.NewAgentService(agentRepo, usageSvc, auditSvc, logger)
	conversationSvc := services.NewConversationService(conversationRepo, logger)
	billingSvc := services.NewBillingService(cfg, tenantRepo, planRepo, auditSvc, events, logger)
	dashboardSvc := services.NewDashboardService(tenantRepo, profileRepo, agentRepo, conversationRepo, usageRepo, usageSvc, logger)

	llmClient := llm.NewClient(llm.Config{
		OpenAIModel:    cfg.LLM.OpenAIModel,
		AnthropicModel: cfg.LLM.AnthropicModel,
		Timeout:        time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}, logger)
	chatSvc := services.NewChatService(tenantRepo, agentRepo, conversationRepo, usageSvc, llmClient, events, logger)

	// Initialize handlers
	secureCookie := cfg.App.Environment == "production"
	healthHandler := handlers.NewHealthHandler(db, cache, events)
	authHandler := handlers.NewAuthHandler(authSvc, cfg.App.SessionHours, secureCookie)
	chatHandler := handlers.NewChatHandler(chatSvc, metricsCollector, logger)
	conversationHandler := handlers.NewConversationHandler(conversationSvc)
	agentHandler := handlers.NewAgentHandler(agentSvc)
	profileHandler := handlers.NewProfileHandler(profileSvc)
	tenantHandler := handlers.NewTenantHandler(tenantSvc)
	planHandler := handlers.NewPlanHandler(planSvc)
	dashboardHandler := handlers.NewDashboardHandler(dashboardSvc, usageSvc)
	billingHandler := handlers.NewBillingHandler(billingSvc)
	webhookHandler := handlers.NewWebhookHandler(billingSvc, cfg.Stripe.WebhookSecret, logger)
	auditHandler := handlers.NewAuditHandler(auditSvc)

	router := setupRouter(
		cfg,
		logger,
		metricsCollector,
		authSvc,
		healthHandler,
		authHandler,
		chatHandler,
		conversationHandler,
		agentHandler,
		profileHandler,
		tenantHandler,
		planHandler,
		dashboardHandler,
		billingHandler,
		webhookHandler,
		auditHandler,
	)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.WithField("addr", server.Addr).Info("Starting controlia")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	close(stopMetrics)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	if err := cache.Close(); err != nil {
		logger.WithError(err).Warn("Error closing Redis connection")
	}

	logger.Info("Server stopped")
}

func setupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	metricsCollector *metrics.Metrics,
	authSvc *services.AuthService,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	conversationHandler *handlers.ConversationHandler,
	agentHandler *handlers.AgentHandler,
	profileHandler *handlers.ProfileHandler,
	tenantHandler *handlers.TenantHandler,
	planHandler *handlers.PlanHandler,
	dashboardHandler *handlers.DashboardHandler,
	billingHandler *handlers.BillingHandler,
	webhookHandler *handlers.WebhookHandler,
	auditHandler *handlers.AuditHandler,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000",
		cfg.App.PublicAppURL,
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true

	// Global middleware
	router.Use(cors.New(corsConfig))
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(metricsCollector.Middleware())

	// Metrics endpoint (Prometheus scraping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	api := router.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
		}
		api.POST("/stripe/webhook", webhookHandler.HandleStripe)
		api.GET("/planos", planHandler.List)

		// Authenticated routes (any role)
		authed := api.Group("")
		authed.Use(middleware.Authenticate(authSvc))
		{
			authed.GET("/auth/me", authHandler.Me)
			authed.POST("/chat", chatHandler.Chat)

			authed.GET("/conversas", conversationHandler.List)
			authed.GET("/conversas/:uuid", conversationHandler.Get)
			authed.PATCH("/conversas/:uuid", conversationHandler.Rename)
			authed.DELETE("/conversas/:uuid", conversationHandler.Delete)

			authed.GET("/agentes", agentHandler.List)
			authed.GET("/agentes/:id", agentHandler.Get)

			authed.GET("/dashboard", dashboardHandler.Tenant)
			authed.GET("/limites", dashboardHandler.Limits)
			authed.GET("/uso", dashboardHandler.UsageHistory)

			// Company admin routes
			admin := authed.Group("")
			admin.Use(middleware.MinRole(models.RoleAdmin))
			{
				admin.GET("/empresa", tenantHandler.GetOwn)
				admin.PATCH("/empresa", tenantHandler.UpdateOwn)

				admin.POST("/agentes", agentHandler.Create)
				admin.PATCH("/agentes/:id", agentHandler.Update)
				admin.DELETE("/agentes/:id", agentHandler.Delete)

				admin.GET("/usuarios", profileHandler.List)
				admin.POST("/usuarios", profileHandler.Create)
				admin.PATCH("/usuarios/:id", profileHandler.Update)
				admin.DELETE("/usuarios/:id", profileHandler.Delete)

				admin.POST("/billing/checkout", billingHandler.Checkout)
				admin.GET("/auditoria", auditHandler.ListTenant)
			}

			// Platform master routes
			master := authed.Group("/admin")
			master.Use(middleware.MinRole(models.RoleMaster))
			{
				master.GET("/dashboard", dashboardHandler.Platform)

				master.GET("/empresas", tenantHandler.List)
				master.POST("/empresas", tenantHandler.Create)
				master.GET("/empresas/:id", tenantHandler.Get)
				master.PATCH("/empresas/:id", tenantHandler.Update)
				master.PATCH("/empresas/:id/status", tenantHandler.UpdateStatus)
				master.DELETE("/empresas/:id", tenantHandler.Delete)

				master.GET("/planos", planHandler.ListAll)
				master.POST("/planos", planHandler.Create)
				master.PATCH("/planos/:id", planHandler.Update)
				master.DELETE("/planos/:id", planHandler.Delete)

				master.GET("/auditoria", auditHandler.ListAll)
			}
		}
	}

	return router
}

func initLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	log.Println("Starting database migration...")

	// Enable UUID extension in PostgreSQL
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		log.Printf("Warning: Failed to create uuid-ossp extension: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Plan{},
		&models.Tenant{},
		&models.Profile{},
		&models.Agent{},
		&models.Conversation{},
		&models.UsageRecord{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	log.Println("Database migration completed")
	return nil
}
