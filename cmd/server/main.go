package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/BioHazard786/roomdrop/internal/config"
	"github.com/BioHazard786/roomdrop/internal/hub"
	"github.com/BioHazard786/roomdrop/internal/ledger"
	"github.com/BioHazard786/roomdrop/internal/logging"
	"github.com/BioHazard786/roomdrop/internal/server"
	"github.com/BioHazard786/roomdrop/internal/version"
)

const shutdownTimeout = 15 * time.Second

func main() {
	fs := pflag.NewFlagSet("roomdrop-server", pflag.ExitOnError)
	addr := fs.String("addr", "", "listen address (env ROOMDROP_ADDR, default "+config.DefaultAddr+")")
	dsn := fs.String("ledger-dsn", "", "transfer ledger data source, e.g. sqlite://ledger.db (env LEDGER_DSN)")
	workers := fs.Int("ledger-workers", 0, "goroutines writing to the ledger (env LEDGER_WORKERS)")
	showVersion := fs.BoolP("version", "v", false, "print the version and exit")
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println("roomdrop-server", version.Version)
		return
	}

	logger := logging.InitServer()

	cfg, err := config.LoadServer(config.ServerOptions{
		Addr:          *addr,
		LedgerDSN:     *dsn,
		LedgerWorkers: *workers,
	})
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.ServerConfig, logger *slog.Logger) error {
	l, err := ledger.Open(cfg.LedgerDSN)
	if err != nil {
		return err
	}
	defer l.Close()

	h, err := hub.New(hub.Config{
		Recorder: l,
		Logger:   logger,
		Workers:  cfg.LedgerWorkers,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ledger writes outlive the signal so queued outcomes drain on shutdown
	if err := h.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:   cfg.Addr,
		Hub:    h,
		Logger: logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), h.Stop(shutdownCtx))
	})
	return g.Wait()
}
