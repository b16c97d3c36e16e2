// Package server exposes the HTTP API: catalog and contract administration
// plus the cost engine endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
	"github.com/smallbiznis/procura/internal/config"
	contractdomain "github.com/smallbiznis/procura/internal/contract/domain"
	costingdomain "github.com/smallbiznis/procura/internal/costing/domain"
	"github.com/smallbiznis/procura/internal/observability/logger"
	"github.com/smallbiznis/procura/internal/observability/metrics"
	"github.com/smallbiznis/procura/internal/observability/tracing"
	offerdomain "github.com/smallbiznis/procura/internal/offer/domain"
	volumedomain "github.com/smallbiznis/procura/internal/volume/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(Run),
)

type ServerParam struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Metrics *metrics.Metrics

	CatalogSvc  catalogdomain.Service
	ContractSvc contractdomain.Service
	OfferSvc    offerdomain.Service
	VolumeSvc   volumedomain.Service
	CostingSvc  costingdomain.Service
}

type Server struct {
	cfg     config.Config
	log     *zap.Logger
	db      *gorm.DB
	metrics *metrics.Metrics

	catalogSvc  catalogdomain.Service
	contractSvc contractdomain.Service
	offerSvc    offerdomain.Service
	volumeSvc   volumedomain.Service
	costingSvc  costingdomain.Service

	calcLimiter *rateLimiter
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:     p.Config,
		log:     p.Log.Named("server"),
		db:      p.DB,
		metrics: p.Metrics,

		catalogSvc:  p.CatalogSvc,
		contractSvc: p.ContractSvc,
		offerSvc:    p.OfferSvc,
		volumeSvc:   p.VolumeSvc,
		costingSvc:  p.CostingSvc,

		calcLimiter: newRateLimiter(120, time.Minute),
	}
}

// Router assembles the gin engine with the full route table.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(metrics.GinMiddleware(s.metrics))
	r.Use(tracing.GinMiddleware("procura"))

	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		s.metrics.Registry(),
		promhttp.HandlerOpts{},
	)))

	api := r.Group("/api")
	if s.cfg.Auth.RequireAPIKey {
		api.Use(s.APIKeyRequired())
	}

	providers := api.Group("/providers")
	{
		providers.POST("", s.CreateProvider)
		providers.GET("", s.ListProviders)
		providers.GET("/:id", s.GetProvider)
		providers.PATCH("/:id", s.UpdateProvider)
		providers.DELETE("/:id", s.DeleteProvider)
	}

	items := api.Group("/items")
	{
		items.POST("", s.CreateItem)
		items.GET("", s.ListItems)
		items.GET("/:id", s.GetItem)
		items.PATCH("/:id", s.UpdateItem)
		items.DELETE("/:id", s.DeleteItem)
	}

	products := api.Group("/products")
	{
		products.POST("", s.CreateProduct)
		products.GET("", s.ListProducts)
		products.GET("/:id", s.GetProduct)
		products.PATCH("/:id", s.UpdateProduct)
		products.DELETE("/:id", s.DeleteProduct)

		products.PUT("/:id/items", s.SetProductItems)
		products.GET("/:id/items", s.ListProductItems)
		products.PUT("/:id/allocations", s.SetAllocation)
		products.GET("/:id/allocations", s.GetAllocation)
		products.PUT("/:id/multipliers", s.SetMultipliers)
		products.GET("/:id/multipliers", s.GetMultipliers)

		products.PUT("/:id/forecasts", s.UpsertForecast)
		products.GET("/:id/forecasts", s.ListForecasts)
		products.DELETE("/:id/forecasts", s.DeleteForecast)
		products.PUT("/:id/actuals", s.UpsertActual)
		products.GET("/:id/actuals", s.ListActuals)
		products.DELETE("/:id/actuals", s.DeleteActual)
	}

	processes := api.Group("/processes")
	{
		processes.POST("", s.CreateProcess)
		processes.GET("", s.ListProcesses)
		processes.GET("/:id", s.GetProcess)
		processes.PATCH("/:id", s.UpdateProcess)
		processes.DELETE("/:id", s.DeleteProcess)
	}

	contracts := api.Group("/contracts")
	{
		contracts.POST("", s.CreateContract)
		contracts.GET("", s.ListContracts)
		contracts.GET("/:id", s.GetContract)
		contracts.PATCH("/:id", s.UpdateContract)
		contracts.DELETE("/:id", s.DeleteContract)

		contracts.PUT("/:id/tiers", s.SetTiers)
		contracts.GET("/:id/tiers", s.ListTiers)
		contracts.POST("/:id/tiers/:tier/select", s.SelectTier)
		contracts.DELETE("/:id/tiers/selection", s.ClearSelectedTier)
	}

	offers := api.Group("/offers")
	{
		offers.POST("", s.CreateOffer)
		offers.GET("", s.ListOffers)
		offers.GET("/:id", s.GetOffer)
		offers.PATCH("/:id", s.UpdateOffer)
		offers.DELETE("/:id", s.DeleteOffer)
	}

	costing := api.Group("/costing")
	costing.Use(s.CalculationRateLimit())
	{
		costing.POST("/calculate", s.Calculate)
		costing.POST("/compare", s.Compare)
		costing.POST("/tier-status", s.TierStatus)
		costing.GET("/rank", s.RankOffers)
		costing.GET("/products", s.ActiveProducts)
	}

	return r
}

// CalculationRateLimit bounds calculation bursts per client address.
func (s *Server) CalculationRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.calcLimiter.Allow(c.ClientIP()) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// Healthz verifies store connectivity.
func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run binds the HTTP listener to the fx lifecycle.
func Run(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
