// Command pulse runs one offline pipeline pass: load the export files from a
// directory, clean them, and print the business pulse or growth insights as
// indented JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"merchantpulse/internal/analytics"
	"merchantpulse/internal/config"
	"merchantpulse/internal/infrastructure"
	"merchantpulse/internal/loader"
	"merchantpulse/internal/normalize"
	"merchantpulse/internal/services"
)

func main() {
	dir := flag.String("dir", "", "data directory containing the export files (defaults to the configured data dir)")
	window := flag.Int("window", 30, "trailing window in days")
	insightsOnly := flag.Bool("insights-only", false, "print growth insights instead of the full pulse")
	summaryOnly := flag.Bool("summary", false, "print the dataset summary instead of the pulse")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *dir == "" {
		*dir = cfg.Data.Dir
	}
	if *window < 1 || *window > 365 {
		slog.Error("window must be between 1 and 365", "window", *window)
		os.Exit(1)
	}

	logger := infrastructure.InitializeLogger(cfg.Logging)

	files := loader.Files{
		Transactions: cfg.Data.TransactionsFile,
		Settlements:  cfg.Data.SettlementsFile,
		Support:      cfg.Data.SupportFile,
	}
	norm := normalize.New(normalize.Config{
		SparseThreshold:    cfg.Normalize.SparseThreshold,
		MaxAmount:          cfg.Normalize.MaxAmount,
		MinorUnitColumn:    cfg.Normalize.MinorUnitColumn,
		MinorUnitThreshold: cfg.Normalize.MinorUnitThreshold,
	}, logger)

	data := services.NewDataService(loader.New(*dir, files, logger), norm, logger)
	if err := data.Reload(context.Background()); err != nil {
		logger.Error("dataset load failed", "error", err)
		os.Exit(1)
	}

	aggregator := analytics.New(logger)
	txns := data.Transactions(*window)

	var out interface{}
	switch {
	case *summaryOnly:
		out = data.Summary()
	case *insightsOnly:
		out = aggregator.GrowthInsights(txns)
	default:
		out = aggregator.BusinessPulse(txns)
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Error("failed to encode output", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}
