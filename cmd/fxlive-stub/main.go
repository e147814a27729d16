package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tinytelemetry/fxlive/internal/logging"
	"github.com/tinytelemetry/fxlive/internal/ratestub"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	var configPath string
	var listenAddr string

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/fxlive/stub.yml)")
	flag.StringVar(&listenAddr, "addr", "", "override listen address")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	if err := runStub(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStub(cfg stubConfig) error {
	logger, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	table, err := ratestub.LoadTable(cfg.RatesFile)
	if err != nil {
		return err
	}

	srv := ratestub.NewServer(cfg.ListenAddr, table, ratestub.Options{
		Jitter:    cfg.Jitter,
		FailEvery: cfg.FailEvery,
	}, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting stub server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Serve)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down stub rate service")
		return srv.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Error("stub rate service stopped", zap.Error(err))
		return err
	}
	return nil
}
