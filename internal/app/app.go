package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/insight-deck/core/internal/config"
	"github.com/insight-deck/core/internal/database"
	"github.com/insight-deck/core/internal/middleware"
	"github.com/insight-deck/core/internal/modules/admission"
	pkgcron "github.com/insight-deck/core/internal/pkg/cron"
	pkgredis "github.com/insight-deck/core/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	engine *admission.Engine
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler
}

// New initializes the application: config → DB → Redis → engine → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.Redis.URL != "" {
		rc, err = pkgredis.Connect(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Info("redis not configured, IP rate limiting and idempotence disabled")
	}

	secret := resolvePowSecret(cfg, logger)
	engine := admission.NewEngine(db,
		admission.NewPowAdapter(secret, cfg.Admission.PowMaxNumber),
		admission.WithLogger(logger),
		admission.WithCleanup(cfg.Admission.EnableCleanup),
		admission.WithDailyReportLimit(cfg.Report.DailyLimit),
	)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(buildCORSConfig(cfg)))

	ctx, cancel := context.WithCancel(context.Background())

	sched := pkgcron.New()
	registerCronJobs(sched, engine, cfg, logger)
	go sched.Start(ctx)

	app := &App{
		cfg:    cfg,
		router: router,
		db:     db,
		engine: engine,
		logger: logger,
		cancel: cancel,
		sched:  sched,
	}
	app.registerRoutes(rc)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines.
func (a *App) Shutdown() { a.cancel() }

func (a *App) uptime() time.Duration {
	return time.Since(processStart)
}

var processStart = time.Now()
