package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"realty-rag/internal/chromemdb"
	"realty-rag/internal/config"
	"realty-rag/internal/correlate"
	"realty-rag/internal/db"
	"realty-rag/internal/enrich"
	"realty-rag/internal/helper"
	"realty-rag/internal/models"
	"realty-rag/internal/sourcedata"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configPath := flag.String("config", configFilePath, "Path to the config file")
	embeddingID := flag.String("correlate", "", "Correlate one embedding id")
	collection := flag.String("collection", "", "Collection to correlate against")
	report := flag.Bool("report", false, "Run a bulk correlation report over the configured collections")
	validate := flag.Bool("validate", false, "Validate a collection's embedding metadata")
	cacheStats := flag.Bool("cache-stats", false, "Print cache statistics after the run")
	entityTypes := flag.String("entity-types", "", "Comma-separated entity type filter")
	output := flag.String("output", "summary", "Bulk report output format: summary or json")
	workers := flag.Int("workers", 0, "Enrichment worker count (default from config)")
	noCache := flag.Bool("no-cache", false, "Bypass the source data caches")
	skipEnrich := flag.Bool("skip-enrich", false, "Skip enrichment after bulk correlation")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	switch {
	case *embeddingID != "":
		correlateOne(ctx, cfg, *embeddingID, *collection, !*noCache)
	case *report:
		runReport(ctx, cfg, parseEntityTypes(*entityTypes), *workers, !*noCache, *skipEnrich, *cacheStats, *output)
	case *validate:
		validateCollection(ctx, cfg, *collection)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func correlateOne(ctx context.Context, cfg *config.Config, embeddingID, collection string, useCache bool) {
	mgr, cleanup := buildManager(cfg)
	defer cleanup()

	if collection == "" {
		collection = firstCollection(cfg)
	}
	result := mgr.CorrelateOne(ctx, embeddingID, collection, useCache)
	if err := helper.PrettyPrint(result); err != nil {
		log.Error().Err(err).Msg("Error rendering result")
	}
	if !result.Correlated {
		os.Exit(1)
	}
}

func runReport(ctx context.Context, cfg *config.Config, entityTypes []models.EntityType, workers int, useCache, skipEnrich, cacheStats bool, output string) {
	mgr, cleanup := buildManager(cfg)
	defer cleanup()

	if workers <= 0 {
		workers = cfg.Correlation.Workers
	}
	req := correlate.BulkRequest{
		Collections:          cfg.VectorDB.Collections,
		EntityTypes:          entityTypes,
		BatchSize:            cfg.Correlation.BatchSize,
		Workers:              workers,
		UseCache:             useCache,
		ValidateCompleteness: true,
		OutputFormat:         output,
	}
	entities, report := mgr.CorrelateBulk(ctx, req)

	if !skipEnrich {
		entities = enrich.Bulk(ctx, entities, enrich.DefaultOptions(), workers)
	}

	log.Info().Int("entities", len(entities)).Msg("Bulk correlation finished")
	rendered, err := renderReport(report, req.OutputFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("Error rendering report")
	}
	fmt.Println(rendered)
	if cacheStats {
		if err := helper.PrettyPrint(mgr.CacheStatistics()); err != nil {
			log.Error().Err(err).Msg("Error rendering cache statistics")
		}
	}
}

// renderReport renders a bulk report as its one-line summary or as
// indented JSON.
func renderReport(report *correlate.Report, format string) (string, error) {
	if format == "json" {
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return report.Summary(), nil
}

func validateCollection(ctx context.Context, cfg *config.Config, collection string) {
	store, err := chromemdb.NewVectorDBManager(cfg.VectorDB.Path, cfg.VectorDB.InMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector database")
	}
	if collection == "" {
		collection = firstCollection(cfg)
	}

	records, err := store.Search(ctx, collection, models.Filter{}, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Error fetching collection metadata")
	}

	result := correlate.ValidateBatch(records)
	files := declaredSourceFiles(records)
	fileResult := correlate.ValidateSourceFiles(files, cfg.Sources.RootDirs)
	result.Errors = append(result.Errors, fileResult.Errors...)
	result.Warnings = append(result.Warnings, fileResult.Warnings...)
	result.IsValid = result.IsValid && fileResult.IsValid

	if err := helper.PrettyPrint(result); err != nil {
		log.Error().Err(err).Msg("Error rendering validation result")
	}
	if !result.IsValid {
		os.Exit(1)
	}
}

// buildManager wires the vector store, relational handle and source data
// registry into a correlation manager.
func buildManager(cfg *config.Config) (*correlate.Manager, func()) {
	store, err := chromemdb.NewVectorDBManager(cfg.VectorDB.Path, cfg.VectorDB.InMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector database")
	}

	var bunDB *bun.DB
	cleanup := func() {}
	if cfg.Database.DSN != "" {
		bunDB, err = db.Connect(cfg.Database.DSN, cfg.Database.Debug)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}
		cleanup = func() { bunDB.Close() }
	}

	registry := sourcedata.NewRegistry(sourcedata.Config{
		PropertyFiles:     cfg.Sources.PropertyFiles,
		NeighborhoodFiles: cfg.Sources.NeighborhoodFiles,
		DB:                bunDB,
		WithSummaries:     cfg.Database.WithSummaries,
	})

	mgr, err := correlate.NewManager(store, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating correlation manager")
	}
	return mgr, cleanup
}

func parseEntityTypes(raw string) []models.EntityType {
	if raw == "" {
		return nil
	}
	var types []models.EntityType
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			types = append(types, models.EntityType(part))
		}
	}
	return types
}

func firstCollection(cfg *config.Config) string {
	if len(cfg.VectorDB.Collections) == 0 {
		log.Fatal().Msg("No collections configured; pass -collection or set vector_db.collections")
	}
	return cfg.VectorDB.Collections[0]
}

func declaredSourceFiles(records []models.EmbeddingMetadata) []string {
	seen := make(map[string]bool)
	var files []string
	for _, rec := range records {
		if rec.SourceFile != "" && !seen[rec.SourceFile] {
			seen[rec.SourceFile] = true
			files = append(files, rec.SourceFile)
		}
	}
	return files
}
