package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/printhaus/storefront-api/db"
	"github.com/printhaus/storefront-api/internal/app"
	"github.com/printhaus/storefront-api/internal/bundle"
	"github.com/printhaus/storefront-api/internal/cache"
	"github.com/printhaus/storefront-api/internal/catalog"
	"github.com/printhaus/storefront-api/internal/common"
	"github.com/printhaus/storefront-api/internal/config"
	"github.com/printhaus/storefront-api/internal/health"
	"github.com/printhaus/storefront-api/internal/lock"
	"github.com/printhaus/storefront-api/internal/obs"
	"github.com/printhaus/storefront-api/internal/pricing"
	"github.com/printhaus/storefront-api/internal/ratelimit"
	"github.com/printhaus/storefront-api/internal/resilience"
	"github.com/printhaus/storefront-api/internal/security"
	"github.com/printhaus/storefront-api/internal/selection"
	"github.com/printhaus/storefront-api/internal/upload"
)

const metricsNamespace = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := cfg.OTLPEndpoint != ""
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "storefront-api",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TraceRatio,
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "storefront-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	migrator, err := db.Migrator(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise migrator")
	}
	if err := app.RunMigrations(migrator); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store: catalog.NewRepo(pool),
		Cache: cache.New(redisClient, cfg.CatalogCacheTTL),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	pricingBreaker := resilience.NewBreaker(5, 0.5, 30*time.Second)
	pricingBreaker.WithTarget("pricing-authority").WithLogger(logger)
	fetcher := &pricing.Fetcher{
		Provider: &pricing.AuthorityClient{
			BaseURL: cfg.PricingURL,
			HTTP: &resilience.HTTPClient{
				Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
				Breaker:     pricingBreaker,
				BaseBackoff: cfg.PricingBackoff,
				MaxAttempts: cfg.PricingMaxAttempts,
				Jitter:      0.2,
				Timeout:     cfg.PricingTimeout,
			},
		},
		Timeout: cfg.PricingTimeout,
		Logger:  logger,
	}

	sessionManager := selection.NewManager(selection.ManagerConfig{
		Catalog:     catalogService,
		Fetcher:     fetcher,
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.SessionsMax,
		Logger:      logger,
	})
	sessionHandler := selection.NewHandler(selection.HandlerConfig{
		Manager:  sessionManager,
		Validate: validate,
	})

	bundleService, err := bundle.NewService(bundle.ServiceConfig{
		Store:   bundle.NewRepo(pool),
		Regions: catalogService,
		Cache:   cache.New(redisClient, cfg.BundleCacheTTL),
		Locker:  &lock.Locker{R: redisClient},
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise bundle service")
	}
	bundleHandler := bundle.NewHandler(bundle.HandlerConfig{Service: bundleService})

	taskClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	uploadHandler := upload.NewHandler(upload.HandlerConfig{
		Enqueuer: taskClient,
		Sessions: sessionManager,
		Validate: validate,
		MaxBytes: cfg.UploadMaxBytes,
		Logger:   logger,
	})

	rateLimiter := newRateLimiter(cfg, redisClient, logger)

	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(""), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	if envBool("SECURE_ENABLE_PPROF", false) {
		user := os.Getenv("SECURE_PPROF_BASIC_AUTH_USER")
		pass := os.Getenv("SECURE_PPROF_BASIC_AUTH_PASS")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker: health.Probes{DB: pool, Redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(rateLimiter.Middleware)

		v.Get("/regions", catalogHandler.Regions)
		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{handle}", catalogHandler.ProductDetail)

		v.Get("/bundles", bundleHandler.Bundles)
		v.Get("/bundles/{id}", bundleHandler.BundleDetail)

		v.Route("/sessions", func(s chi.Router) {
			s.Post("/", sessionHandler.Create)
			s.Get("/{id}", sessionHandler.Get)
			s.Put("/{id}/options/{optionID}", sessionHandler.SetOption)
			s.Put("/{id}/dimensions", sessionHandler.SetDimensions)
		})

		v.With(security.BodyLimit{Max: cfg.UploadMaxBytes * 2}.Middleware).
			Post("/uploads", uploadHandler.Upload)
	})

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionManager.Sweep()
		}
	}()

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

// newRateLimiter selects the limiter driver: the sorted-set sliding window by
// default, or the ulule fixed-window store when configured.
func newRateLimiter(cfg *config.Config, redisClient *redis.Client, logger zerolog.Logger) ratelimit.Handler {
	var limiter ratelimit.Limiter
	switch cfg.RateLimitDriver {
	case "store":
		store, err := app.NewLimiterStore(redisClient)
		if err != nil {
			logger.Error().Err(err).Msg("initialise limiter store, falling back to sliding window")
			limiter = ratelimit.SlidingWindow{Client: redisClient, Prefix: "rl:"}
		} else {
			limiter = ratelimit.StoreLimiter{Store: store, Prefix: "rl:"}
		}
	default:
		limiter = ratelimit.SlidingWindow{Client: redisClient, Prefix: "rl:"}
	}
	return ratelimit.Handler{
		Limiter: limiter,
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter unavailable")
		},
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
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
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
