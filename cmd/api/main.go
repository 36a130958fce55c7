package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/storelinehq/storeline-api/internal/analytics"
	"github.com/storelinehq/storeline-api/internal/app"
	"github.com/storelinehq/storeline-api/internal/audit"
	"github.com/storelinehq/storeline-api/internal/auth"
	"github.com/storelinehq/storeline-api/internal/cache"
	"github.com/storelinehq/storeline-api/internal/cart"
	"github.com/storelinehq/storeline-api/internal/catalog"
	"github.com/storelinehq/storeline-api/internal/common"
	"github.com/storelinehq/storeline-api/internal/config"
	"github.com/storelinehq/storeline-api/internal/coupon"
	"github.com/storelinehq/storeline-api/internal/events"
	"github.com/storelinehq/storeline-api/internal/health"
	"github.com/storelinehq/storeline-api/internal/obs"
	"github.com/storelinehq/storeline-api/internal/ratelimit"
	"github.com/storelinehq/storeline-api/internal/remote"
	"github.com/storelinehq/storeline-api/internal/resilience"
	"github.com/storelinehq/storeline-api/internal/security"
	"github.com/storelinehq/storeline-api/internal/shipping"
	"github.com/storelinehq/storeline-api/internal/store"
	"github.com/storelinehq/storeline-api/internal/tax"
	"github.com/storelinehq/storeline-api/internal/wishlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "storeline")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "storeline-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := app.OpenPostgres(ctx, cfg.DatabaseURL, "storeline-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	if cfg.Migrationsup {
		if err := app.RunMigrations("file://migrations", cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	redisClient, err := app.OpenRedis(ctx, cfg.RedisURL, metricsEnabled)
	if err != nil {
		logger.Fatal().Err(err).Msg("open redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	st := store.New(pool)

	catalogCache := cache.New(redisClient, cfg.CatalogCacheTTL)
	couponCache := cache.New(redisClient, cfg.CatalogCacheTTL)
	taxCache := cache.New(redisClient, cfg.TaxConfigTTL)
	zoneCache := cache.New(redisClient, cfg.ShippingZoneTTL)

	breaker := resilience.NewBreaker(cfg.BreakerMinRequests, cfg.BreakerRatio, cfg.BreakerOpenFor).
		WithTarget("subgraphs").
		WithLogger(logger)
	remoteClient := &remote.Client{
		HTTP: &resilience.HTTPClient{
			Client:      &http.Client{},
			Breaker:     breaker,
			BaseBackoff: 100 * time.Millisecond,
			MaxAttempts: 3,
			Jitter:      0.2,
			Timeout:     cfg.RemoteCallTimeout,
		},
		UserServiceURL:  cfg.UserServiceURL,
		SiteSettingsURL: cfg.SiteSettingsURL,
	}

	bus := &events.Bus{
		Store:     st.Events,
		Notifiers: []events.Notifier{&events.LogNotifier{Logger: logger}},
	}

	catalogSvc := &catalog.Service{Products: st.Products, Taxonomy: st.Taxonomy, Cache: catalogCache}
	couponSvc := &coupon.Service{Coupons: st.Coupons, Cache: couponCache}
	taxSvc := &tax.Service{Tax: st.Tax, Cache: taxCache}
	shippingSvc := &shipping.Service{Shipping: st.Shipping, Cache: zoneCache}
	analyticsSvc := &analytics.Service{R: redisClient}
	auditSvc := &audit.Service{Audit: st.Audit}
	wishlistSvc := &wishlist.Service{Wishlists: st.Wishlists, Products: st.Products}

	aggregator := &cart.Aggregator{
		Catalog:  st.Products,
		Coupons:  st.Coupons,
		Tax:      taxSvc,
		Shipping: shippingSvc,
		Remote:   remoteClient,
		Currency: cfg.CurrencyCode,
	}
	cartSvc := &cart.Service{
		Carts:   st.Carts,
		Tx:      st,
		Coupons: st.Coupons,
		Agg:     aggregator,
		Events:  bus,
	}

	production := cfg.Production()
	catalogHandler := &catalog.Handler{Service: catalogSvc, Views: analyticsSvc, Production: production}
	couponHandler := &coupon.Handler{Service: couponSvc, Production: production}
	taxHandler := &tax.Handler{Service: taxSvc, Production: production}
	shippingHandler := &shipping.Handler{Service: shippingSvc, Production: production}
	cartHandler := &cart.Handler{Service: cartSvc, Production: production}
	wishlistHandler := &wishlist.Handler{Service: wishlistSvc, Production: production}
	analyticsHandler := &analytics.Handler{Service: analyticsSvc, Production: production}
	auditHandler := &audit.Handler{Service: auditSvc, Production: production}
	eventsHandler := &events.Handler{Events: st.Events, Production: production}

	authMW := auth.Middleware{
		Verifier:    auth.NewVerifier(cfg.JWTSecret),
		Permissions: auth.DefaultPermissions(),
		Production:  production,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	cartLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:cart"},
		Config: ratelimit.Config{
			Key:    rateKey,
			Window: cfg.CartMutationsWin,
			Max:    cfg.CartMutationsMax,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: production}.Middleware)
	r.Use(security.BodyLimit{Max: envInt64("SECURE_MAX_BODY_BYTES", 1<<20)}.Middleware)
	r.Use(security.CSRF{}.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		catalogHandler.Routes(v)

		v.Group(func(buyer chi.Router) {
			buyer.Use(authMW.RequireAuth)

			buyer.Group(func(c chi.Router) {
				c.Use(cartLimit.Middleware)
				c.Use(idem.Middleware)
				cartHandler.Routes(c)
			})

			wishlistHandler.Routes(buyer)
			couponHandler.Routes(buyer)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMW.RequireAuth)
			admin.Use(audit.Middleware(auditSvc))

			admin.Group(func(g chi.Router) {
				g.Use(permitByMethod(authMW, "catalog"))
				catalogHandler.AdminRoutes(g)
			})
			admin.Group(func(g chi.Router) {
				g.Use(permitByMethod(authMW, "coupon"))
				couponHandler.AdminRoutes(g)
			})
			admin.Group(func(g chi.Router) {
				g.Use(permitByMethod(authMW, "tax"))
				taxHandler.AdminRoutes(g)
			})
			admin.Group(func(g chi.Router) {
				g.Use(permitByMethod(authMW, "shipping"))
				shippingHandler.AdminRoutes(g)
			})
			admin.Group(func(g chi.Router) {
				g.Use(permitByMethod(authMW, "analytics"))
				analyticsHandler.AdminRoutes(g)
			})
			admin.Group(func(g chi.Router) {
				g.Use(permitByMethod(authMW, "audit"))
				auditHandler.AdminRoutes(g)
			})
			admin.Group(func(g chi.Router) {
				g.Use(permitByMethod(authMW, "events"))
				eventsHandler.AdminRoutes(g)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		health.SetReady(false)
		logger.Info().Msg("shutdown signal received, draining")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	<-shutdownDone
	logger.Info().Msg("server stopped")
}

// rateKey buckets authenticated callers by user id and the rest by client ip.
func rateKey(r *http.Request) string {
	if id, ok := common.UserID(r.Context()); ok {
		return "user:" + id
	}
	return "ip:" + common.ClientIP(r)
}

// permitByMethod maps the HTTP method onto a permission action for the entity.
func permitByMethod(m auth.Middleware, entity string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action := auth.ActionRead
			switch r.Method {
			case http.MethodPost:
				action = auth.ActionCreate
			case http.MethodPut, http.MethodPatch:
				action = auth.ActionUpdate
			case http.MethodDelete:
				action = auth.ActionDelete
			}
			m.RequirePermission(action, entity)(next).ServeHTTP(w, r)
		})
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
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

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
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
