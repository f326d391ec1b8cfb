package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pressroom/admin"
	"pressroom/analytics"
	"pressroom/blog"
	"pressroom/cache"
	"pressroom/common"
	"pressroom/content"
	"pressroom/database"
	"pressroom/images"
	"pressroom/logger"
	"pressroom/metrics"
	"pressroom/middleware"
	"pressroom/publication"
	"pressroom/site"
	"pressroom/templates"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	if err := logger.Init(cfg.Log, cfg.LogLevel, cfg.LogDir); err != nil {
		log.Fatal("Failed to initialise logger: ", err)
	}
	defer logger.Sync()

	db, err := common.ConnectDb(cfg)
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(db); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}
	if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Log.Fatal("failed to seed admin user", zap.Error(err))
	}

	if cfg.Log != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery(), middleware.Logging(), middleware.Metrics())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})
	router.Use(sessions.Sessions("pressroom-session", store))

	tmpl, err := templates.Load()
	if err != nil {
		logger.Log.Fatal("failed to parse templates", zap.Error(err))
	}
	router.SetHTMLTemplate(tmpl)

	router.Static("/media", cfg.MediaRoot)
	router.GET("/metrics", metrics.Handler())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	storage := images.NewStorage(cfg.MediaRoot)
	pipeline := content.NewPipeline(db, storage, images.NewProcessor(storage))

	pageCache := cache.New(cfg.CacheDir, cfg.CacheMaxAge)
	if err := pageCache.ClearOld(); err != nil {
		logger.Log.Warn("prune page cache", zap.Error(err))
	}
	pipeline.OnSaved(pageCache.Clear)
	router.Use(pageCache.Middleware())

	analyticsModule := analytics.NewAnalyticsModule(common.ConnectAnalyticsDb(cfg.AnalyticsDB))

	adminModule := admin.NewAdminModule(db, pipeline, analyticsModule)
	adminModule.RegisterRoutes(router)

	siteModule := site.NewSiteModule(db, cfg.Domain)
	siteModule.RegisterRoutes(router)

	blogModule := blog.NewBlogModule(db, publication.NewService(db, cfg.PerPage), analyticsModule)
	blogModule.RegisterRoutes(router)

	logger.Log.Info("starting server", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}
