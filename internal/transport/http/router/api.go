package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"portfolio-api/internal/core/server"
	mdw "portfolio-api/internal/transport/http/middleware"
)

type Options struct {
	CookieName     string
	AllowedOrigins []string
	RPS            float64
	Burst          int
	MaxConcurrent  int64
	MaxBodyBytes   int64
	Timeout        time.Duration
}

func NewAPIEngine(l *zap.Logger, o Options, sessions mdw.SessionResolver, reg *Registry) *gin.Engine {
	r := server.NewEngine(l, o.AllowedOrigins)

	chain := []gin.HandlerFunc{mdw.RequestID()}
	if o.RPS > 0 {
		chain = append(chain, mdw.RateLimit(rate.Limit(o.RPS), o.Burst))
	}
	if o.MaxConcurrent > 0 {
		chain = append(chain, mdw.ConcurrencyLimit(o.MaxConcurrent))
	}
	if o.MaxBodyBytes > 0 {
		chain = append(chain, mdw.MaxBodyBytes(o.MaxBodyBytes))
	}
	if o.Timeout > 0 {
		chain = append(chain, mdw.Timeout(o.Timeout))
	}
	chain = append(chain, mdw.Metrics(), mdw.AccessLog(l))
	r.Use(chain...)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", mdw.Session(sessions, o.CookieName))
	reg.MountAPI(api)
	reg.MountAdmin(api.Group("/admin"))

	return r
}
