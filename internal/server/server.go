package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/settlement/internal/clock"
	"github.com/smallbiznis/settlement/internal/config"
	demandplandomain "github.com/smallbiznis/settlement/internal/demandplan/domain"
	"github.com/smallbiznis/settlement/internal/observability"
	obsmiddleware "github.com/smallbiznis/settlement/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/settlement/internal/observability/metrics"
	obstracing "github.com/smallbiznis/settlement/internal/observability/tracing"
	"github.com/smallbiznis/settlement/internal/ratelimit"
	"github.com/smallbiznis/settlement/internal/receipt"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(provideStatementRenderer),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// StatementRenderer produces downloadable monthly statements.
type StatementRenderer interface {
	MonthlyPDF(view settlementdomain.MonthlyView) ([]byte, error)
	MonthlyXLSX(view settlementdomain.MonthlyView) ([]byte, error)
}

func provideStatementRenderer(e *receipt.Exporter) StatementRenderer {
	return e
}

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	loc        *time.Location
	clock      clock.Clock
	generator  settlementdomain.Generator
	query      settlementdomain.Query
	lifecycle  settlementdomain.Lifecycle
	statements StatementRenderer
	demandPlan demandplandomain.Service
	limiter    *ratelimit.GenerationLimiter
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Clock      clock.Clock
	Generator  settlementdomain.Generator
	Query      settlementdomain.Query
	Lifecycle  settlementdomain.Lifecycle
	Statements StatementRenderer             `optional:"true"`
	DemandPlan demandplandomain.Service
	Limiter    *ratelimit.GenerationLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics          `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		loc:        p.Cfg.Location(),
		clock:      p.Clock,
		generator:  p.Generator,
		query:      p.Query,
		lifecycle:  p.Lifecycle,
		statements: p.Statements,
		demandPlan: p.DemandPlan,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Settlements --------
	settlements := api.Group("/settlements")
	settlements.GET("/daily", s.GetDailySettlement)
	settlements.GET("/monthly", s.GetMonthlySettlement)
	settlements.GET("/monthly/download", s.DownloadMonthlyStatement)
	settlements.GET("/monthly/export", s.ExportMonthlyStatement)
	settlements.GET("/stats", s.GetSettlementStats)
	settlements.GET("/list", s.ListSettlements)
	settlements.GET("/orders", s.ListSettlementOrders)
	settlements.POST("/generate", s.GenerationRateLimit(), s.GenerateSettlement)
	settlements.POST("/generate/bulk", s.GenerateSettlements)
	settlements.GET("/:id", s.GetSettlementByID)
	settlements.GET("/:id/receipt", s.DownloadReceipt)
	settlements.POST("/:id/receipt", s.RegenerateReceipt)

	// -------- Lifecycle --------
	settlements.POST("/:id/paid", s.MarkSettlementPaid)
	settlements.POST("/:id/completed", s.MarkSettlementCompleted)
	settlements.POST("/:id/failed", s.MarkSettlementFailed)

	// -------- Forecast --------
	forecast := api.Group("/forecast")
	forecast.GET("/order-count", s.GetOrderCountForecast)
	forecast.GET("/recommendation", s.GetReorderRecommendation)
}
