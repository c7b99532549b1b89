// Package router assembles the gin engine: middleware chain and the
// versioned API group.
package router

import (
	"fmt"
	"time"

	"github.com/erp/provisioner/internal/infrastructure/logger"
	"github.com/erp/provisioner/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DefaultAPIPrefix is where the routes are mounted when Config.APIPrefix is empty.
const DefaultAPIPrefix = "/api/v1"

// Routes is implemented by the HTTP handlers.
type Routes interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouteFunc lets a plain function serve as Routes.
type RouteFunc func(rg *gin.RouterGroup)

func (f RouteFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

type Config struct {
	APIPrefix      string
	ServiceName    string
	TracingEnabled bool
	// Meter records HTTP metrics. Nil disables them.
	Meter          metric.Meter
	MaxBodySize    int64
	RequestTimeout time.Duration
	CORSOrigins    []string
	TrustedProxies []string
}

func (c Config) prefix() string {
	if c.APIPrefix == "" {
		return DefaultAPIPrefix
	}
	return c.APIPrefix
}

// New returns an engine running the middleware chain in front of every
// route, with routes mounted under the API prefix in the given order.
func New(cfg Config, log *zap.Logger, routes ...Routes) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	chain, err := middlewareChain(cfg, log)
	if err != nil {
		return nil, err
	}
	engine.Use(chain...)

	api := engine.Group(cfg.prefix())
	for _, r := range routes {
		r.RegisterRoutes(api)
	}
	return engine, nil
}

// middlewareChain is ordered outermost first. Recovery wraps everything and
// the request ID exists before tracing and logging read it.
func middlewareChain(cfg Config, log *zap.Logger) ([]gin.HandlerFunc, error) {
	metrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("create http metrics: %w", err)
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSOrigins

	return []gin.HandlerFunc{
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		metrics,
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.MaxBodySize),
		middleware.Timeout(cfg.RequestTimeout),
	}, nil
}
