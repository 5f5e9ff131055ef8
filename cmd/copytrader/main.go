// Command copytrader runs the copy-trading engine: it watches a leader
// wallet's trades on Polymarket and mirrors them onto a follower account
// (in simulation or live, order-placing mode), exposing an HTTP control
// plane for starting/stopping the monitor and inspecting state.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vngelio/polystation/config"
	"github.com/vngelio/polystation/internal/adapters/polymarket"
	"github.com/vngelio/polystation/internal/adapters/signer"
	"github.com/vngelio/polystation/internal/adapters/store"
	"github.com/vngelio/polystation/internal/application/copyengine"
	"github.com/vngelio/polystation/internal/control"
	"github.com/vngelio/polystation/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	once := flag.Bool("once", false, "run one monitor cycle and exit")
	negRisk := flag.Bool("neg-risk", false, "sign orders against the negative-risk exchange contract")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)
	logger := slog.Default()

	logger.Info("copytrader starting",
		"config", *configPath,
		"leader", cfg.Copy.Leader,
		"mode", cfg.Copy.Mode().String(),
		"execute_orders", cfg.Copy.ExecuteOrders,
	)

	venue := polymarket.NewClient(cfg.API.DataAPIBase, cfg.API.CLOBBase, cfg.API.GammaBase)

	fileStore, err := store.New(cfg.Storage.Dir)
	if err != nil {
		logger.Error("failed to open movement store", "err", err, "dir", cfg.Storage.Dir)
		os.Exit(1)
	}

	var follower ports.Signer
	if cfg.Copy.ExecuteOrders {
		pk := os.Getenv("FOLLOWER_PRIVATE_KEY")
		if pk == "" {
			logger.Error("execute_orders is set but FOLLOWER_PRIVATE_KEY is empty")
			os.Exit(1)
		}
		eoaSigner, err := signer.New(pk, *negRisk)
		if err != nil {
			logger.Error("failed to build signer", "err", err)
			os.Exit(1)
		}
		follower = eoaSigner
		logger.Info("follower wallet resolved", "address", eoaSigner.Address())

		if err := venue.EnsureCreds(context.Background(), pk); err != nil {
			logger.Error("failed to derive CLOB API credentials", "err", err)
			os.Exit(1)
		}
	}

	events, err := copyengine.NewFileEventLogger(filepath.Join(cfg.Storage.Dir, "copy_trader.log"))
	if err != nil {
		logger.Error("failed to open event log", "err", err)
		os.Exit(1)
	}

	engine := copyengine.New(venue, follower, fileStore, events, cfg.Copy)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		result, err := engine.RunOnce(ctx)
		if err != nil {
			logger.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		logger.Info("cycle complete",
			"trades_seen", result.TradesSeen,
			"new_copies", result.NewCopies,
			"skipped", result.Skipped,
			"settled", result.Settled,
			"warnings", len(result.Warnings),
		)
		return
	}

	handlers := control.NewHandlers(engine, fileStore, logger).WithPersistence(cfg, *configPath)
	server := control.New(control.Config{Addr: cfg.Control.Addr, BearerToken: cfg.Control.BearerToken}, handlers, logger)

	engine.SetMonitoring(true)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	go func() {
		errCh <- engine.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("copytrader shutting down")
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			logger.Error("copytrader exited with error", "err", err)
		}
	}

	if err := server.Stop(); err != nil {
		logger.Error("control plane shutdown error", "err", err)
	}

	logger.Info("copytrader stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
