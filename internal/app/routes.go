package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/insight-deck/core/internal/middleware"
	"github.com/insight-deck/core/internal/modules/admission"
	"github.com/insight-deck/core/internal/modules/deck"
	"github.com/insight-deck/core/internal/modules/events"
	"github.com/insight-deck/core/internal/modules/reflect"
	"github.com/insight-deck/core/internal/modules/report"
	pkgredis "github.com/insight-deck/core/internal/pkg/redis"
	"github.com/insight-deck/core/internal/pkg/response"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "insight-deck-core",
		"version": "1.0.0",
	}

	var rdb *goredis.Client
	if rc != nil {
		rdb = rc.Raw()
	}
	r.Use(middleware.RateLimit(rdb))
	// The verify endpoint is exempt: replayed challenges must surface the
	// ledger's 409 challenge_replayed, not a middleware 409.
	r.Use(middleware.Idempotence(rdb, apiPrefix+"/pow/verify"))

	api := r.Group(apiPrefix)

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/health", a.health(rc))

	admissionH := admission.NewHandler(a.engine, a.logger)
	admissionH.RegisterRoutes(api)

	deck.NewHandler(a.db, a.logger).RegisterRoutes(api)
	reflect.NewHandler(a.cfg.AI, a.logger).RegisterRoutes(api, admissionH.Budget(reflect.Cost))
	report.NewHandler(a.engine, admissionH, a.logger).RegisterRoutes(api, admissionH.Budget(report.Cost))
	events.NewHandler(a.cfg.Events, a.logger).RegisterRoutes(api)
}

func (a *App) health(rc *pkgredis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			a.logger.Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}

		body := gin.H{
			"status":  "ok",
			"uptime":  humanizeDuration(a.uptime()),
			"jobs":    a.sched.List(),
			"version": "1.0.0",
		}
		if rc != nil {
			if err := rc.Ping(c.Request.Context()); err != nil {
				body["redis"] = "unreachable"
			} else {
				body["redis"] = "ok"
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
