package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/dmaranges/cryptopilot/config"
	"github.com/dmaranges/cryptopilot/internal/adapters/coingecko"
	"github.com/dmaranges/cryptopilot/internal/adapters/cryptocompare"
	"github.com/dmaranges/cryptopilot/internal/adapters/feargreed"
	"github.com/dmaranges/cryptopilot/internal/adapters/gemini"
	"github.com/dmaranges/cryptopilot/internal/adapters/notify"
	"github.com/dmaranges/cryptopilot/internal/adapters/storage"
	"github.com/dmaranges/cryptopilot/internal/engine"
	"github.com/dmaranges/cryptopilot/internal/ledger"
	"github.com/dmaranges/cryptopilot/internal/monitor"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	stats := flag.Bool("stats", false, "print portfolio stats and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
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

	slog.Info("cryptopilot starting",
		"config", *configPath,
		"symbols", len(cfg.Symbols),
		"model", cfg.LLM.Model,
		"once", *once,
		"stats", *stats,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN, decimal.NewFromFloat(cfg.Trading.InitialBalance))
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	book := ledger.New(store, ledger.ConfigFrom(cfg.Trading))
	console := notify.NewConsole()

	if *stats {
		runStats(ctx, book, console)
		return
	}

	llm, err := gemini.NewClient(ctx, cfg.APIKey(), cfg.LLM.Model)
	if err != nil {
		slog.Error("failed to initialize LLM client", "err", err)
		os.Exit(1)
	}

	prices := coingecko.NewClient(cfg.API.CoinGeckoBase, cfg.Symbols)
	news := cryptocompare.NewClient(cfg.API.CryptoCompareBase)
	sentiment := feargreed.NewClient(cfg.API.FearGreedBase)

	mon := monitor.New(prices, news, sentiment, cfg.Symbols)
	eng := engine.New(mon, llm, llm, prices, book)

	if *once {
		runOnce(ctx, eng, book, console)
		return
	}

	if err := serve(ctx, cfg, eng, book, mon, llm, prices); err != nil {
		slog.Error("service exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("cryptopilot stopped cleanly")
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
