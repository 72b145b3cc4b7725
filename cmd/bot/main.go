package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"kinobot/internal/app"
	"kinobot/internal/bot"
	"kinobot/internal/converter"
	"kinobot/internal/metrics"
	"kinobot/internal/providers/jacred"
	"kinobot/internal/providers/kinopoisk"
	"kinobot/internal/store"
	"kinobot/internal/telemetry"
	"kinobot/internal/transport/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	if cfg.BotToken == "" {
		logger.Error("BOT_TOKEN is required")
		os.Exit(1)
	}
	if len(cfg.KinopoiskAPIKeys) == 0 {
		logger.Error("KINOPOISK_API_KEYS is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.Init(context.Background(), "kinobot", "1.0")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "kinobot"),
		slog.Int("kinopoiskKeys", len(cfg.KinopoiskAPIKeys)),
		slog.String("jacredEndpoint", cfg.JacredEndpoint),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Int("admins", len(cfg.AdminIDs)),
		slog.Duration("stateTTL", cfg.StateTTL),
		slog.String("metricsAddr", cfg.MetricsAddr),
	)

	redisClient := connectRedis(cfg.RedisURL, logger)
	backend := buildStateBackend(redisClient, logger)
	state := store.NewSearchState(backend, cfg.StateTTL)

	kinopoiskClient := kinopoisk.NewClient(kinopoisk.Config{
		Keys:      cfg.KinopoiskAPIKeys,
		BaseURL:   cfg.KinopoiskBaseURL,
		Client:    &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Redis:     redisClient,
		RateLimit: float64(cfg.KinopoiskRPS),
	})
	jacredClient := jacred.NewClient(jacred.Config{
		Endpoint:  cfg.JacredEndpoint,
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{Timeout: cfg.RequestTimeout * 2, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})

	conv, err := converter.New(converter.Config{
		OutDir:  cfg.TorrentDir,
		Timeout: cfg.ConvertTimeout,
	})
	if err != nil {
		logger.Error("converter init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer conv.Close()

	tgClient := telegram.NewClient(telegram.Config{
		Token:   cfg.BotToken,
		BaseURL: cfg.TelegramAPIURL,
		Client:  &http.Client{Timeout: cfg.PollTimeout + 30*time.Second},
	})

	router := bot.NewRouter(bot.Deps{
		Transport: tgClient,
		State:     state,
		Metadata:  kinopoiskClient,
		Index:     jacredClient,
		Converter: conv,
		Logger:    logger,
	},
		bot.WithAdmins(cfg.AdminIDs),
		bot.WithSpamLimit(cfg.SpamLimit, cfg.SpamWindow),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opsServer := startOpsServer(cfg.MetricsAddr, backend, logger)

	poller := telegram.NewPoller(tgClient, router, logger, cfg.PollTimeout)
	logger.Info("bot started")

	if err := poller.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("poller stopped", slog.String("error", err.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ops server shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("bot stopped")
}

func connectRedis(redisURL string, logger *slog.Logger) *redis.Client {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("redis connected", slog.String("addr", opts.Addr))
	return client
}

// buildStateBackend prefers Redis; without it conversation state lives
// in process memory and dies with it, which is fine for development.
func buildStateBackend(client *redis.Client, logger *slog.Logger) store.Backend {
	if client != nil {
		return store.NewRedisBackend(client)
	}
	logger.Warn("no redis configured, using in-memory state")
	return store.NewMemoryBackend()
}

// startOpsServer serves Prometheus metrics and a liveness probe.
func startOpsServer(addr string, backend store.Backend, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := backend.Ping(r.Context()); err != nil {
			http.Error(w, "state backend unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", slog.String("error", err.Error()))
		}
	}()
	return server
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	if strings.ToLower(strings.TrimSpace(formatRaw)) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
