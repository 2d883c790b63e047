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
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-actors/browser"
	"github.com/aluiziolira/go-scrape-actors/config"
	"github.com/aluiziolira/go-scrape-actors/models"
	"github.com/aluiziolira/go-scrape-actors/pipeline"
	"github.com/aluiziolira/go-scrape-actors/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()

	configFile := flag.String("config", "", "Optional YAML config file")
	startURL := flag.String("start-url", defaultCfg.StartURL, "Store listing URL to scrape")
	maxAttempts := flag.Int("max-attempts", defaultCfg.MaxAttempts, "Scroll attempt ceiling")
	headless := flag.Bool("headless", defaultCfg.Headless, "Run the browser headless")
	outputFile := flag.String("output", defaultCfg.OutputFile, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	checkpointPrefix := flag.String("checkpoint-prefix", defaultCfg.CheckpointPrefix, "Filename prefix for checkpoint snapshots")
	metricsAddr := flag.String("metrics-addr", defaultCfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	force := flag.Bool("force", false, "Scrape even if the output file already exists")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	// Precedence, lowest to highest: defaults, config file, environment,
	// explicitly passed flags.
	cfg := config.DefaultConfig()
	if *configFile != "" {
		if err := config.LoadFile(cfg, *configFile); err != nil {
			slog.Error("loading config file", slog.String("path", *configFile), slog.Any("error", err))
			os.Exit(1)
		}
	}
	if err := applyEnv(cfg); err != nil {
		slog.Error("invalid environment override", slog.Any("error", err))
		os.Exit(1)
	}
	applyFlags(cfg, flagOverrides{
		startURL:         startURL,
		maxAttempts:      maxAttempts,
		headless:         headless,
		outputFile:       outputFile,
		outputFormat:     outputFormat,
		checkpointPrefix: checkpointPrefix,
		metricsAddr:      metricsAddr,
	})
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// A completed run already sits at the output path; reuse it unless asked
	// not to.
	if !*force {
		actors, err := (pipeline.CSVStore{}).ReadAll(cfg.OutputFile)
		switch {
		case err == nil:
			slog.Info("existing output found, skipping scrape",
				slog.String("path", cfg.OutputFile),
				slog.Int("actors", len(actors)),
			)
			fmt.Printf("Loaded %d actors from %s (use -force to scrape again)\n", len(actors), cfg.OutputFile)
			return
		case !errors.Is(err, os.ErrNotExist):
			slog.Warn("existing output unreadable, scraping fresh",
				slog.String("path", cfg.OutputFile),
				slog.Any("error", err),
			)
		}
	}

	slog.Info("starting scrape",
		slog.String("start_url", cfg.StartURL),
		slog.Int("max_attempts", cfg.MaxAttempts),
		slog.Bool("headless", cfg.Headless),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, saving captured records")
	}()

	opts := browser.DefaultOptions()
	opts.Headless = cfg.Headless
	opts.UserAgent = cfg.UserAgent
	session, err := browser.NewSession(opts)
	if err != nil {
		slog.Error("launching browser", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Error("closing browser", slog.Any("error", err))
		}
	}()

	page, err := session.Open(ctx, cfg.StartURL, cfg.NavigationTimeout)
	if err != nil {
		slog.Error("opening listing page", slog.Any("error", err))
		os.Exit(1)
	}

	s := scraper.NewScraper(cfg, page, pipeline.CSVStore{})

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, err := s.Run(ctx)
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := exportResult(result, cfg.OutputFormat, cfg.OutputFile); err != nil {
		slog.Error("exporting records", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg.OutputFile)
}

// exportResult writes the canonical output for a finished run. An interrupted
// run keeps only its interrupted snapshot: writing the partial set to the
// output path would make the next invocation's reuse shortcut treat it as a
// completed scrape.
func exportResult(result *models.ScrapeResult, format, path string) error {
	if result.Reason == models.ReasonCancelled {
		slog.Info("run interrupted, skipping canonical export",
			slog.String("path", path),
			slog.Int("actors", len(result.Actors)),
		)
		return nil
	}
	exporter, err := pipeline.NewExporter(format, path)
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}
	return exporter.Export(result.Actors)
}

// applyEnv overlays SCRAPER_* environment variables onto the config.
func applyEnv(cfg *config.Config) error {
	if value, ok := config.EnvString("SCRAPER_START_URL"); ok {
		cfg.StartURL = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_MAX_ATTEMPTS"); err != nil {
		return fmt.Errorf("SCRAPER_MAX_ATTEMPTS: %w", err)
	} else if ok {
		cfg.MaxAttempts = value
	}
	if value, ok, err := config.EnvBool("SCRAPER_HEADLESS"); err != nil {
		return fmt.Errorf("SCRAPER_HEADLESS: %w", err)
	} else if ok {
		cfg.Headless = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	return nil
}

type flagOverrides struct {
	startURL         *string
	maxAttempts      *int
	headless         *bool
	outputFile       *string
	outputFormat     *string
	checkpointPrefix *string
	metricsAddr      *string
}

// applyFlags layers explicitly passed flags over the config file values. A
// flag left at its default does not clobber what the file set.
func applyFlags(cfg *config.Config, overrides flagOverrides) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "start-url":
			cfg.StartURL = *overrides.startURL
		case "max-attempts":
			cfg.MaxAttempts = *overrides.maxAttempts
		case "headless":
			cfg.Headless = *overrides.headless
		case "output":
			cfg.OutputFile = *overrides.outputFile
		case "format":
			cfg.OutputFormat = strings.ToLower(*overrides.outputFormat)
		case "checkpoint-prefix":
			cfg.CheckpointPrefix = *overrides.checkpointPrefix
		case "metrics-addr":
			cfg.MetricsAddr = *overrides.metricsAddr
		}
	})
}

func printSummary(result *models.ScrapeResult, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	duration := result.EndTime.Sub(result.StartTime)
	itemsPerSec := 0.0
	if duration.Seconds() > 0 {
		itemsPerSec = float64(len(result.Actors)) / duration.Seconds()
	}

	fmt.Printf("  Total actors:  %d\n", len(result.Actors))
	if result.TargetCount > 0 {
		fmt.Printf("  Page total:    %d\n", result.TargetCount)
	}
	fmt.Printf("  Stopped:       %s\n", result.Reason)
	fmt.Printf("  Attempts:      %d\n", result.Attempts)
	fmt.Printf("  Stalls:        %d\n", result.Stalls)
	fmt.Printf("  Recoveries:    %d\n", result.Recoveries)
	fmt.Printf("  Checkpoints:   %d\n", result.Checkpoints)
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Actors/sec:    %.2f\n", itemsPerSec)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
