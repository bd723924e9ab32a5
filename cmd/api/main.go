package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/cart"
	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/config"
	"github.com/noah-isme/toko-promo/internal/db"
	"github.com/noah-isme/toko-promo/internal/health"
	"github.com/noah-isme/toko-promo/internal/lock"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/promotion"
	"github.com/noah-isme/toko-promo/internal/ratelimit"
	"github.com/noah-isme/toko-promo/internal/resilience"
	"github.com/noah-isme/toko-promo/internal/security"
)

const serviceName = "toko-promo"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	if cfg.MetricsEnabled {
		resilience.MustRegisterMetrics(cfg.MetricsNamespace, nil)
	}

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   serviceName,
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migrate database")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, serviceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	cacheBreaker := resilience.NewBreaker("catalog-cache", 5, 0.5, 30*time.Second).WithLogger(logger)
	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store:  catalog.PGStore{DB: pool},
		Cache:  catalog.NewCache(redisClient, cfg.CatalogCacheTTL).WithBreaker(cacheBreaker),
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	promotionService, err := promotion.NewService(promotion.ServiceConfig{
		Store:    promotion.PGStore{DB: pool},
		Products: catalogService,
		Logger:   &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise promotion service")
	}
	promotionHandler := &promotion.Handler{Svc: promotionService}

	cartService, err := cart.NewService(cart.ServiceConfig{
		Store:    cart.PGStore{DB: pool},
		Products: catalogService,
		Pricer:   promotionService,
		Locker:   lock.Locker{R: redisClient, MaxWait: 2 * time.Second},
		LockTTL:  cfg.CartLockTTL,
		Logger:   &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise cart service")
	}
	cartHandler := &cart.Handler{Svc: cartService}

	var limiter ratelimit.Limiter
	switch cfg.RateLimitBackend {
	case "memory":
		limiter = ratelimit.NewMemory("rl")
	case "redis-fixed":
		limiter, err = ratelimit.NewFixedRedis(redisClient, "rl")
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise rate limiter")
		}
	default:
		limiter = ratelimit.SlidingRedis{Client: redisClient, Prefix: "rl:"}
	}
	cartLimit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Key: ratelimit.ClientCartKey, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PprofUser, cfg.PprofPass))
	}

	healthHandler := health.Handler{Probes: []health.Probe{
		health.PingProbe("db", 500*time.Millisecond, pool),
		{Name: "redis", Timeout: 300 * time.Millisecond, Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.Headers{Enable: true, NoStore: true}.Middleware)
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

		v.Route("/products", catalogHandler.Routes)
		v.Route("/promotions", promotionHandler.Routes)
		v.Route("/carts", func(c chi.Router) {
			cartHandler.Routes(c, cartLimit.Middleware, idem.Middleware)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := serve(srv, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// serve runs srv until SIGINT or SIGTERM, then drains in-flight requests.
func serve(srv *http.Server, logger zerolog.Logger) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorised", nil)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
