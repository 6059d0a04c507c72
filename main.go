package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"paystream/internal/audit"
	"paystream/internal/auth"
	"paystream/internal/eventing"
	eventingrepo "paystream/internal/eventing/infrastructure/postgres"
	ledgerrepo "paystream/internal/ledger/postgres"
	"paystream/internal/observability/metrics"
	pg "paystream/internal/postgres"
	"paystream/internal/stream/application"
	streamrepo "paystream/internal/stream/infrastructure/postgres"
	"paystream/internal/stream/infrastructure/rediscache"
	streaminterfaces "paystream/internal/stream/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	baseBus := eventing.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(application.StreamCreated{})
	registry.Register(application.StreamWithdrawn{})
	registry.Register(application.StreamCancelled{})

	outboxStore := eventingrepo.NewOutboxStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, baseBus)

	feeRegistry := rediscache.NewFeeRegistry(redisClient, rediscache.WithTTL(cfg.FeeCacheTTL))
	ledger := ledgerrepo.NewLedger(db)
	txRunner := pg.NewTxRunner(db)

	service, err := application.NewService(
		streamrepo.NewRepository(db),
		streamrepo.NewSettingsStore(db),
		ledger,
		feeRegistry,
		streaminterfaces.NewOutboxPublisher(publisher),
		auth.ContextAuthorizer{},
		application.SystemClock{},
		txRunner,
		cfg.CustodyAccount,
	)
	if err != nil {
		logger.Fatalf("stream service error: %v", err)
	}

	handler, err := streaminterfaces.NewHandler(service, auditRepo)
	if err != nil {
		logger.Fatalf("stream handler error: %v", err)
	}

	loggingSub := streaminterfaces.NewLoggingPublisher(logger)
	baseBus.Subscribe(eventing.EventTypeOf[application.StreamCreated](), func(ctx context.Context, event any) error {
		evt, ok := event.(application.StreamCreated)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		return loggingSub.PublishStreamCreated(ctx, evt)
	})
	baseBus.Subscribe(eventing.EventTypeOf[application.StreamWithdrawn](), func(ctx context.Context, event any) error {
		evt, ok := event.(application.StreamWithdrawn)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		return loggingSub.PublishStreamWithdrawn(ctx, evt)
	})
	baseBus.Subscribe(eventing.EventTypeOf[application.StreamCancelled](), func(ctx context.Context, event any) error {
		evt, ok := event.(application.StreamCancelled)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		return loggingSub.PublishStreamCancelled(ctx, evt)
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/initialize", handler)
	mux.Handle("/api/v1/settings", handler)
	mux.Handle("/api/v1/streams", handler)
	mux.Handle("/api/v1/streams/", handler)
	mux.Handle("/api/v1/fees/", handler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL    string        `yaml:"database_url"`
	HTTPAddr       string        `yaml:"http_addr"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisPassword  string        `yaml:"redis_password"`
	JWTSecret      string        `yaml:"jwt_secret"`
	CustodyAccount string        `yaml:"custody_account"`
	FeeCacheTTL    time.Duration `yaml:"fee_cache_ttl"`
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:    getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		RedisAddr:      getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getenvDefault("REDIS_PASSWORD", ""),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		CustodyAccount: getenvDefault("CUSTODY_ACCOUNT", ""),
		FeeCacheTTL:    getenvDuration("FEE_CACHE_TTL", 24*time.Hour),
	}

	if path := os.Getenv("PAYSTREAM_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("config read error: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("config parse error: %v", err)
		}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	if cfg.CustodyAccount == "" {
		log.Fatal("CUSTODY_ACCOUNT is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
