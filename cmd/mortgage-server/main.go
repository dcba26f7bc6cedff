package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/config"
	"github.com/iwvelando/mortgage-calculator/internal/history"
	"github.com/iwvelando/mortgage-calculator/internal/keyrate"
	"github.com/iwvelando/mortgage-calculator/internal/logging"
	"github.com/iwvelando/mortgage-calculator/internal/retention"
	"github.com/iwvelando/mortgage-calculator/internal/server"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to calculator configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	serverConf, err := server.LoadConfig(*serverConfigLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfigLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		serverConf.Address = *address
	}

	logger, err := logging.New(serverConf.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		if _, statErr := os.Stat(*configLocation); !errors.Is(statErr, fs.ErrNotExist) {
			logger.Fatal(fmt.Sprintf("failed to load configuration at %s", *configLocation),
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		logger.Info("no calculator configuration found, using defaults",
			zap.String("op", "main"),
		)
		conf = config.Default()
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(ctx, 15*time.Second)
	store, closer, err := history.Open(openCtx, logger, conf.History)
	cancelOpen()
	if err != nil {
		logger.Fatal("failed to open calculation history",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer closer.Close()

	scheduler, err := retention.Start(conf.History.RetentionSchedule,
		retention.NewJob(store, conf.History.MaxEntries, logger))
	if err != nil {
		logger.Fatal("failed to schedule history retention",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer scheduler.Stop()

	handler := server.NewHandler(server.Options{
		Logger:      logger,
		MaxBodySize: serverConf.BodySizeBytes(),
		Version:     version,
		Defaults:    conf.Defaults.Params,
		History:     history.NewService(store, logger),
		KeyRate:     keyrate.NewClient(conf.KeyRate, logger),
	})

	srv := &http.Server{
		Addr:              serverConf.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("starting server on %s", serverConf.Address),
			zap.String("op", "main"),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server",
		zap.String("op", "main"),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConf.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
