package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/common/config"
	"github.com/ceramicnetwork/go-mint/common/loggers"
	"github.com/ceramicnetwork/go-mint/common/metrics"
	"github.com/ceramicnetwork/go-mint/server"
	"github.com/ceramicnetwork/go-mint/services"
)

const shutdownTimeout = 30 * time.Second
const readHeaderTimeout = 10 * time.Second

func main() {
	var args struct {
		Addr    string `arg:"--addr" help:"listen address, overrides PIN_SERVER_ADDR"`
		EnvFile string `arg:"--env-file" default:".env" help:"dotenv file to load"`
	}
	arg.MustParse(&args)
	if err := godotenv.Load(args.EnvFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("pinserver: error loading %s: %v", args.EnvFile, err)
	}

	logger := loggers.NewLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("pinserver: error loading config: %v", err)
	}
	if cfg.PublicPinataJwtSet {
		logger.Warnf("pinserver: %s is set but ignored, the pinning credential is only read from %s", mint.Env_PinataPublicJwt, mint.Env_PinataJwt)
	}
	if len(args.Addr) > 0 {
		cfg.PinServerAddr = args.Addr
	}
	logger.Infof("pinserver: config: %s", cfg)

	metricService, err := metrics.NewOtelMetricService(context.Background(), logger)
	if err != nil {
		logger.Fatalf("pinserver: error creating metric service: %v", err)
	}
	defer metricService.Shutdown(context.Background())

	// A missing credential does not stop the server. Pin routes report it per request instead.
	if err = cfg.RequirePinning(); err != nil {
		logger.Warnf("pinserver: %v", err)
	}
	pinner, err := services.NewContentPinner(logger, cfg, metricService)
	if err != nil {
		logger.Fatalf("pinserver: error creating pinner: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.PinServerAddr,
		Handler:           server.NewRouter(logger, pinner, cfg),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		logger.Infof("pinserver: listening on %s", cfg.PinServerAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("pinserver: http server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("pinserver: error shutting down: %v", err)
	}
	logger.Infof("pinserver: stopped")
}
