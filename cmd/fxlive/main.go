package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tinytelemetry/fxlive/internal/currency"
	"github.com/tinytelemetry/fxlive/internal/logging"
	"github.com/tinytelemetry/fxlive/internal/pipeline"
	"github.com/tinytelemetry/fxlive/internal/rates"
	"github.com/tinytelemetry/fxlive/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var once bool
	var amount string

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/fxlive/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&once, "once", false, "fetch the rate once, print the conversion and exit")
	flag.StringVar(&amount, "amount", "", "amount to convert in -once mode")
	flag.Parse()

	if showVersion {
		fmt.Printf("fxlive - Live Currency Converter\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	run := runTUI
	if once {
		run = func(cfg appConfig) error { return runOnce(cfg, amount) }
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newPipeline wires the rates client and country table into a pipeline.
func newPipeline(cfg appConfig, logger *zap.Logger) (*pipeline.Pipeline, *currency.Table, error) {
	countries, err := currency.Load(cfg.CountriesFile)
	if err != nil {
		return nil, nil, err
	}

	client := rates.NewClient(cfg.BaseURL, cfg.RequestTimeout, logger.Named("rates"))
	p, err := pipeline.New(client, countries, pipeline.Config{
		Markup:      decimal.NewFromFloat(cfg.Markup),
		Cooldown:    cfg.Cooldown,
		SeedRate:    cfg.SeedRate,
		SellCountry: cfg.SellCountry,
		BuyCountry:  cfg.BuyCountry,
		HistorySize: cfg.HistorySize,
	}, logger.Named("pipeline"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return p, countries, nil
}

func runTUI(cfg appConfig) error {
	logger, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("starting fxlive",
		zap.String("version", version),
		zap.String("base_url", cfg.BaseURL),
		zap.String("config", cfg.ConfigPath),
	)

	p, countries, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ratesModel := tui.NewRatesModel(p, tui.Options{
		FrameInterval: cfg.FrameInterval,
		Poll:          cfg.pollConfig(),
		Countries:     countries,
		Logger:        logger.Named("tui"),
	})
	app := tui.NewApp(tui.NewRatesPage(ratesModel))
	defer app.Close()

	prog := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal (try -once)")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// runOnce performs one lookup and prints the conversion to stdout.
func runOnce(cfg appConfig, amount string) error {
	logger, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg.Cooldown = 0
	p, _, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if amount != "" {
		p.SetAmount(amount)
	}
	p.RefreshNow(ctx)

	st := p.State()
	if st.Err != "" {
		return fmt.Errorf("%s", st.Err)
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen, color.Bold)

	bold.Printf("%s → %s", st.Pair.Sell, st.Pair.Buy)
	fmt.Printf("  rate %s\n", decimal.NewFromFloat(*st.Rate).String())

	if amount == "" {
		return nil
	}
	if !st.Result.Complete() {
		return fmt.Errorf("cannot parse amount %q", amount)
	}
	fmt.Print("  True Amount (No Markup):       ")
	green.Printf("%s %s\n", *st.Result.True, st.Pair.Buy)
	fmt.Printf("  Marked Up Amount (%s%% Markup): ", p.Markup().Shift(2).String())
	green.Printf("%s %s\n", *st.Result.MarkedUp, st.Pair.Buy)
	return nil
}
