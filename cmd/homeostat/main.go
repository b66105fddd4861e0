// Command homeostat runs the zone regulation daemon: a ticking regulator,
// a sqlite event log, and the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/citygrid/homeostat/internal/config"
	"github.com/citygrid/homeostat/internal/provenance"
	"github.com/citygrid/homeostat/internal/regulator"
	"github.com/citygrid/homeostat/internal/scheduler"
	"github.com/citygrid/homeostat/internal/server"
)

// #region main

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.Kitchen,
		}),
	))

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	regCfg := regulator.DefaultConfig()
	regCfg.Target = cfg.Target
	regCfg.Eta = cfg.Eta
	regCfg.Alpha = cfg.Alpha
	reg, err := regulator.New(regCfg)
	if err != nil {
		return fmt.Errorf("build regulator: %w", err)
	}

	events, err := provenance.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer events.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(reg, cfg.TickPeriod, slog.Default())
	go sched.Run(ctx)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.New(reg, events, slog.Default()).Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("homeostat listening", "addr", cfg.Addr, "zones", reg.ZoneCount(), "tick", cfg.TickPeriod)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	slog.Info("homeostat stopped")
	return nil
}

// #endregion main
