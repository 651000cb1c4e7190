package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"muxlive/internal/core/domain"
	"muxlive/internal/core/ports"
	"muxlive/internal/core/services"
	httphandlers "muxlive/internal/handlers/http"
	"muxlive/internal/infrastructure/events"
	"muxlive/internal/infrastructure/monitoring"
	"muxlive/internal/infrastructure/mux"
	"muxlive/pkg/config"
	"muxlive/pkg/logger"
	"muxlive/pkg/tracing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// listenFunc opens the HTTP listener. It is net.Listen outside of tests.
type listenFunc func(network, address string) (net.Listener, error)

func main() {
	// Variables already present in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Getenv, net.Listen, os.Stderr)
	stop()
	os.Exit(code)
}

// run starts the service and blocks until ctx is cancelled or the server
// fails. Configuration and credential errors return before listen is called.
func run(ctx context.Context, getenv func(string) string, listen listenFunc, stderr io.Writer) int {
	startTime := time.Now()

	cfg, err := config.LoadWithEnv(getenv("LIVESTREAM_CONFIG"), getenv)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	permanentMode := cfg.Mode == config.ModePermanent
	creds, err := config.LoadCredentials(getenv, permanentMode)
	if err != nil {
		log.Errorw("cannot start without platform credentials", "error", err)
		return 1
	}
	if !creds.Complete() {
		log.Warnw("platform credentials incomplete; remote calls will fail",
			"token_id_set", creds.TokenID != "",
			"token_secret_set", creds.TokenSecret != "",
		)
	}

	tracingCfg := tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "muxlive",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	}
	tp, err := tracing.Init(tracingCfg)
	if err != nil {
		log.Warnw("tracing disabled", "error", err)
		tracingCfg.Enabled = false
		if tp, err = tracing.Init(tracingCfg); err != nil {
			log.Errorw("failed to initialize tracing", "error", err)
			return 1
		}
	}

	collector := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)

	client := mux.NewClient(mux.Config{
		BaseURL:        cfg.Mux.BaseURL,
		IngestURL:      cfg.Mux.IngestURL,
		TokenID:        creds.TokenID,
		TokenSecret:    creds.TokenSecret,
		RequestTimeout: cfg.Mux.RequestTimeout,
		RetryMax:       cfg.Mux.RetryMax,
		RetryWaitMin:   cfg.Mux.RetryWaitMin,
		RetryWaitMax:   cfg.Mux.RetryWaitMax,
	}, collector, log)

	publisher := events.NewPublisher(cfg, uuid.NewString(), log)
	defer publisher.Close()

	permanent := services.NewPermanentStreamService(
		client,
		domain.LiveStreamID(cfg.Mux.LiveStreamID),
		publisher,
		collector,
		log,
	)
	liveStreams := services.NewLiveStreamService(client, permanent, publisher, collector, log)

	checker := monitoring.NewHealthChecker()
	// Status routes exist only when this process owns a permanent stream.
	var permanentRoutes ports.PermanentStream
	if permanentMode {
		checker.AddPermanentStreamCheck(permanent)
		permanentRoutes = permanent
	}
	if redisClient, ok := events.RedisClient(publisher); ok {
		checker.AddRedisCheck(redisClient, 2*time.Second)
	}

	router := httphandlers.NewRouter(cfg, httphandlers.RouterDeps{
		LiveStreams: httphandlers.NewLiveStreamHandler(liveStreams, permanentRoutes),
		Health:      httphandlers.NewHealthHandler(checker, startTime),
		Metrics:     httphandlers.MetricsHandler(cfg),
	}, zapLogger)

	ln, err := listen("tcp", cfg.Server.Address)
	if err != nil {
		log.Errorw("failed to listen", "address", cfg.Server.Address, "error", err)
		return 1
	}

	initCtx, cancelInit := context.WithCancel(ctx)
	defer cancelInit()

	if permanentMode {
		permanent.Start(initCtx, cfg.Mux.InitTimeout)
	} else {
		log.Info("ad-hoc mode: permanent stream initialization skipped")
	}

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if addr, ok := ln.Addr().(*net.TCPAddr); ok {
			log.Infof("server running on http://localhost:%d", addr.Port)
		}
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
		exitCode = 1
	case <-ctx.Done():
		log.Info("shutdown requested")
	}

	// Abandon a still-running initialization.
	cancelInit()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warnw("error shutting down tracer", "error", err)
	}

	log.Info("server stopped")
	return exitCode
}
