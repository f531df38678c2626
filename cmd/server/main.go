package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chantierpro/chantierpro/internal/config"
	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/handler"
	"github.com/chantierpro/chantierpro/internal/middleware"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/chantierpro/chantierpro/internal/sse"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("fichier .env absent, variables d'environnement utilisées")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("chargement de la configuration: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("initialisation du logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("démarrage chantierpro",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connexion à la base impossible", zap.Error(err))
	}

	if err := migrate(db); err != nil {
		zapLogger.Fatal("migration du schéma", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)
	hub := sse.NewHub()

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, hub, cfg)
	handlers := handler.NewHandlers(services, hub)

	if err := services.Document.EnsureBucket(context.Background()); err != nil {
		zapLogger.Warn("création du bucket MinIO", zap.Error(err))
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout désactivé : connexions SSE longue durée
		WriteTimeout: 0,
	}

	go func() {
		zapLogger.Info("serveur à l'écoute", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("démarrage du serveur", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("arrêt du serveur...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("arrêt forcé", zap.Error(err))
	}

	zapLogger.Info("serveur arrêté")
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Chantier{},
		&entity.Devis{},
		&entity.LigneDevis{},
		&entity.Paiement{},
		&entity.SequenceNumero{},
		&entity.Document{},
		&entity.Message{},
		&entity.MessageReaction{},
		&entity.PlanningEvent{},
	); err != nil {
		return err
	}

	// Amorce des compteurs de numérotation (un par type de document)
	db.Exec(`INSERT INTO sequences_numero (type, compteur) VALUES ('DEVIS', 0) ON CONFLICT (type) DO NOTHING`)
	db.Exec(`INSERT INTO sequences_numero (type, compteur) VALUES ('FACTURE', 0) ON CONFLICT (type) DO NOTHING`)

	return nil
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connexion à la base: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("accès au pool de connexions: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")

	// Routes publiques
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	// Routes authentifiées
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		authorized.POST("/auth/logout", h.Auth.Logout)
		authorized.GET("/auth/me", h.Auth.Me)

		// Flux SSE (token en query param)
		authorized.GET("/events", h.SSE.Stream)

		users := authorized.Group("/users")
		{
			users.GET("", middleware.RequirePermission("users:read"), h.User.List)
			users.GET("/:id", middleware.RequirePermission("users:read"), h.User.Get)
			users.GET("/:id/permissions", middleware.RequirePermission("users:read"), h.User.Permissions)
			users.POST("", middleware.RequireRole(entity.RoleAdmin), h.User.Create)
			users.PUT("/:id", middleware.RequireRole(entity.RoleAdmin), h.User.Update)
			users.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.User.Delete)
		}

		chantiers := authorized.Group("/chantiers")
		{
			chantiers.GET("", middleware.RequirePermission("chantiers:read"), h.Chantier.List)
			chantiers.GET("/:id", middleware.RequirePermission("chantiers:read"), h.Chantier.Get)
			chantiers.POST("", middleware.RequirePermission("chantiers:write"), h.Chantier.Create)
			chantiers.PUT("/:id", middleware.RequirePermission("chantiers:write"), h.Chantier.Update)
			chantiers.PATCH("/:id/statut", middleware.RequirePermission("chantiers:write"), h.Chantier.ChangeStatut)
			chantiers.PATCH("/:id/avancement", middleware.RequirePermission("chantiers:write"), h.Chantier.SetAvancement)
			chantiers.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Chantier.Delete)
		}

		devis := authorized.Group("/devis")
		{
			devis.GET("", middleware.RequirePermission("devis:read"), h.Devis.List)
			devis.GET("/stats", middleware.RequirePermission("devis:read"), h.Devis.Stats)
			devis.GET("/export", middleware.RequirePermission("devis:read"), h.Devis.Export)
			devis.GET("/:id", middleware.RequirePermission("devis:read"), h.Devis.Get)
			devis.POST("", middleware.RequirePermission("devis:write"), h.Devis.Create)
			devis.PUT("/:id", middleware.RequirePermission("devis:write"), h.Devis.Update)
			devis.DELETE("/:id", middleware.RequirePermission("devis:write"), h.Devis.Delete)
			devis.POST("/:id/send", middleware.RequirePermission("devis:send"), h.Devis.Send)
			devis.PATCH("/:id/statut", middleware.RequirePermission("devis:write"), h.Devis.ChangeStatut)
			devis.POST("/:id/accepter", middleware.RequirePermission("devis:write"), h.Devis.Accepter)
			devis.POST("/:id/refuser", middleware.RequirePermission("devis:write"), h.Devis.Refuser)
			devis.POST("/:id/annuler", middleware.RequirePermission("devis:write"), h.Devis.Annuler)
			devis.POST("/:id/convert", middleware.RequirePermission("devis:write"), h.Devis.Convert)
			devis.GET("/:id/situations", middleware.RequirePermission("devis:read"), h.Devis.ListSituations)
			devis.POST("/:id/situations", middleware.RequirePermission("devis:write"), h.Devis.CreateSituation)
			devis.PUT("/:id/autoliquidation", middleware.RequirePermission("devis:write"), h.Devis.ToggleAutoliquidation)
			devis.GET("/:id/tva-multitaux", middleware.RequirePermission("devis:read"), h.Devis.GetTVAMultitaux)
			devis.PUT("/:id/tva-multitaux", middleware.RequirePermission("devis:write"), h.Devis.UpdateTVAMultitaux)
			devis.GET("/:id/paiements", middleware.RequirePermission("devis:read"), h.Devis.ListPaiements)
			devis.POST("/:id/paiements", middleware.RequirePermission("devis:write"), h.Devis.RecordPaiement)
		}

		documents := authorized.Group("/documents")
		{
			documents.GET("", middleware.RequirePermission("documents:read"), h.Document.List)
			documents.GET("/:id", middleware.RequirePermission("documents:read"), h.Document.Get)
			documents.GET("/:id/download", middleware.RequirePermission("documents:read"), h.Document.Download)
			documents.POST("", middleware.RequirePermission("documents:write"), h.Document.Upload)
			documents.PUT("/:id", middleware.RequirePermission("documents:write"), h.Document.Update)
			documents.DELETE("/:id", middleware.RequirePermission("documents:write"), h.Document.Delete)
		}

		messages := authorized.Group("/messages")
		{
			messages.POST("", middleware.RequirePermission("messages:write"), h.Message.Send)
			messages.GET("/recent", middleware.RequirePermission("messages:read"), h.Message.Recent)
			messages.GET("/conversations/:id", middleware.RequirePermission("messages:read"), h.Message.History)
			messages.POST("/conversations/:id/read", middleware.RequirePermission("messages:read"), h.Message.MarkRead)
			messages.POST("/:id/reactions", middleware.RequirePermission("messages:write"), h.Message.ToggleReaction)
			messages.DELETE("/:id", middleware.RequirePermission("messages:write"), h.Message.Delete)
		}

		planning := authorized.Group("/planning")
		{
			planning.GET("", middleware.RequirePermission("planning:read"), h.Planning.List)
			planning.GET("/:id", middleware.RequirePermission("planning:read"), h.Planning.Get)
			planning.POST("", middleware.RequirePermission("planning:write"), h.Planning.Create)
			planning.PUT("/:id", middleware.RequirePermission("planning:write"), h.Planning.Update)
			planning.DELETE("/:id", middleware.RequirePermission("planning:write"), h.Planning.Delete)
			planning.POST("/conflicts", middleware.RequirePermission("planning:read"), h.Planning.CheckConflicts)
		}
	}
}
