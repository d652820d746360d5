package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/racha/internal/auth"
	"github.com/mmynk/racha/internal/config"
	"github.com/mmynk/racha/internal/ledger"
	"github.com/mmynk/racha/internal/metrics"
	"github.com/mmynk/racha/internal/middleware"
	"github.com/mmynk/racha/internal/notify"
	"github.com/mmynk/racha/internal/realtime"
	"github.com/mmynk/racha/internal/service"
	"github.com/mmynk/racha/internal/storage"
	"github.com/mmynk/racha/internal/storage/memory"
	redisstore "github.com/mmynk/racha/internal/storage/redis"
	"github.com/mmynk/racha/internal/storage/sqlite"
	"github.com/mmynk/racha/pkg/api"
	"github.com/mmynk/racha/pkg/logging"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logging.Configure(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, redisClient, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := notify.NewHub()
	hub.OnDrop = m.DroppedEvent

	var notifier notify.Notifier = hub
	if cfg.Notify.Backend == config.NotifyRedis {
		if redisClient == nil {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer redisClient.Close()
		}
		// Events go through Redis and come back to this instance's hub via the relay.
		notifier = notify.NewRedisPublisher(redisClient, cfg.Redis.Prefix)
		go func() {
			if err := notify.Relay(ctx, redisClient, cfg.Redis.Prefix, hub); err != nil {
				slog.Error("Event relay stopped", "error", err)
			}
		}()
	}
	slog.Info("Notifications initialized", "backend", cfg.Notify.Backend)

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = randomSecret()
		if err != nil {
			return err
		}
		slog.Warn("No JWT secret configured; using a random one, sessions end on restart")
	}
	jwtManager := auth.NewJWTManager(jwtSecret, cfg.Auth.TokenTTL)

	if cfg.Auth.AdminSecret == "" {
		slog.Warn("No admin secret configured; DeleteAllTables is disabled")
	}
	manager := ledger.NewManager(store, notifier,
		ledger.WithAdminSecret(cfg.Auth.AdminSecret),
		ledger.WithMetrics(m),
	)

	mux := http.NewServeMux()

	// Register Connect services
	interceptors := connect.WithInterceptors(
		m.Interceptor(),
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)
	tablePath, tableHandler := api.NewTableServiceHandler(service.NewTableService(manager), interceptors)
	mux.Handle(tablePath, tableHandler)

	accountSvc := service.NewAccountService(auth.NewPasswordAuthenticator(store), jwtManager, slog.Default())
	accountPath, accountHandler := api.NewAccountServiceHandler(accountSvc, interceptors)
	mux.Handle(accountPath, accountHandler)

	mux.Handle("GET /ws/{code}", realtime.NewHandler(hub, manager, m))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	staticDir, err := filepath.Abs(cfg.Server.StaticPath)
	if err != nil {
		return fmt.Errorf("failed to resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)
	mux.HandleFunc("/", staticHandler(staticDir))

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(loggedHandler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore opens the configured table store. For the redis driver the
// client is returned too so notifications can share it.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, redis.UniversalClient, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		slog.Warn("Using in-memory storage; tables are lost on restart")
		return memory.New(), nil, nil

	case config.DriverRedis:
		store, err := redisstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", "redis", "addr", cfg.Redis.Addr)
		return store, store.Client(), nil

	default:
		store, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", "sqlite", "database", cfg.Store.SQLitePath)
		return store, nil, nil
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// staticHandler serves the web client from dir. Unknown paths get index.html.
func staticHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Unknown Connect procedures must not fall through to the web client.
		if strings.HasPrefix(r.URL.Path, "/racha.v1.") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(dir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
