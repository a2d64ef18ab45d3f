package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmaranges/cryptopilot/config"
	"github.com/dmaranges/cryptopilot/internal/adapters/gemini"
	"github.com/dmaranges/cryptopilot/internal/engine"
	"github.com/dmaranges/cryptopilot/internal/ledger"
	"github.com/dmaranges/cryptopilot/internal/monitor"
	"github.com/dmaranges/cryptopilot/internal/ports"
	"github.com/dmaranges/cryptopilot/internal/scheduler"
	"github.com/dmaranges/cryptopilot/internal/server"
)

const shutdownGrace = 10 * time.Second

// serve runs the long-lived service: scheduled trading cycles, the fast
// price tick, and the HTTP API, until the context is cancelled.
func serve(ctx context.Context, cfg *config.Config, eng *engine.Engine, book *ledger.Ledger, mon *monitor.Monitor, llm *gemini.Client, prices ports.PriceProvider) error {
	sched := scheduler.New()

	err := sched.AddJob(cfg.Scheduler.Cycle, scheduler.JobFunc{
		JobName: "trading-cycle",
		Fn: func() error {
			_, err := eng.RunOnce(ctx)
			return err
		},
	})
	if err != nil {
		return err
	}

	err = sched.AddJob(cfg.Scheduler.Update, scheduler.JobFunc{
		JobName: "price-update",
		Fn: func() error {
			_, err := eng.UpdateOnce(ctx)
			return err
		},
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server.Port, server.Deps{
		Book:     book,
		Cycler:   eng,
		Monitor:  mon,
		Analyzer: llm,
		Advisor:  llm,
		Prices:   prices,
	})

	sched.Start()
	defer sched.Stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
