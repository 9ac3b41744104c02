// Command import loads a local Joconde export into the catalog database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/segmentio/encoding/json"

	"github.com/DavidDuveau/openjoconde-sub000/internal/config"
	"github.com/DavidDuveau/openjoconde-sub000/internal/db"
	"github.com/DavidDuveau/openjoconde-sub000/internal/db/repositories"
	"github.com/DavidDuveau/openjoconde-sub000/internal/importer"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	"github.com/DavidDuveau/openjoconde-sub000/internal/parser"
)

func main() {
	configPath := flag.String("config", "config.yaml", "optional YAML config file")
	file := flag.String("file", "", "path to the XML or JSON export")
	validate := flag.Bool("validate", false, "parse only, without touching the database")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import -file <export.xml|export.json> [-validate] [-config config.yaml]")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	if err := logging.Init(cfg.Env, cfg.LogLevel); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parserOpts := parser.Options{
		BatchSize:     cfg.Import.ParseBatchSize,
		ProgressEvery: cfg.Import.ProgressEvery,
	}

	var out any
	if *validate {
		out, err = parseOnly(ctx, *file, parserOpts)
	} else {
		out, err = importFile(ctx, cfg, *file, parserOpts)
	}
	if out != nil {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
	}
	if err != nil {
		logging.Fatal("Import failed", "file", *file, "error", err)
	}
}

func parseOnly(ctx context.Context, path string, opts parser.Options) (*dtos.ParseSummary, error) {
	format, err := parser.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	p, err := parser.New(format, opts)
	if err != nil {
		return nil, err
	}
	return p.ParseBatches(ctx, path,
		func(*dtos.ParsingResult) error { return nil },
		func(processed, total int) {
			logging.Debug("Parsing", "processed", processed, "total", total)
		})
}

func importFile(ctx context.Context, cfg *config.Config, path string, opts parser.Options) (*dtos.ImportReport, error) {
	orm, err := db.InitORM(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(orm); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	engine := importer.NewEngine(repositories.NewCatalogRepository(orm), importer.Options{
		ReferenceBatchSize:      cfg.Import.ReferenceBatchSize,
		ArtworkBatchSize:        cfg.Import.ArtworkBatchSize,
		ParallelReferenceStages: cfg.Import.ParallelReferenceStages,
		Parser:                  opts,
	}, nil)

	return engine.ImportFromSource(ctx, path, func(stage string, current, total int) {
		logging.Info("Import progress", "stage", stage, "current", current, "total", total)
	})
}
