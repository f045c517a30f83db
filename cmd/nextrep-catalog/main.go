package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/nextrep/internal/config"
	"github.com/claude/nextrep/internal/importer"
	"github.com/claude/nextrep/internal/logging"
	"github.com/claude/nextrep/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	wgerURL := flag.String("wger-url", "", "wger API base URL to fetch from, e.g. https://wger.de/api/v2")
	wgerToken := flag.String("wger-token", os.Getenv("WGER_API_TOKEN"), "wger API token")
	pageSize := flag.Int("page-size", 50, "entries per API page")
	pageDelay := flag.Duration("page-delay", 500*time.Millisecond, "pause between API pages")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to the database")
	flag.Parse()

	files := flag.Args()
	if *wgerURL == "" && len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: nextrep-catalog -config config.yaml [-dry-run] exerciseinfo.json[.gz]...\n")
		fmt.Fprintf(os.Stderr, "       nextrep-catalog -config config.yaml -wger-url https://wger.de/api/v2\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, logCloser := logging.New(cfg.Log, os.Stdout)
	defer logCloser.Close()

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		log.Info("dry run: no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	imp := importer.New(db, log, *dryRun)
	var stats *importer.Stats
	if *wgerURL != "" {
		stats, err = imp.ImportAPI(ctx, importer.APIOptions{
			BaseURL:   *wgerURL,
			Token:     *wgerToken,
			PageSize:  *pageSize,
			PageDelay: *pageDelay,
		})
	} else {
		stats, err = imp.ImportFiles(ctx, files)
	}
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	if n, err := db.CountExercises(ctx); err == nil {
		log.Info("import complete", "catalog_size", n)
	}
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"pages_read", stats.PagesRead,
		"fetched", stats.Fetched,
		"skipped", stats.Skipped,
		"upserted", stats.Upserted,
	)
}
