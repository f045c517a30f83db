package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/nextrep/internal/client"
	"github.com/claude/nextrep/internal/config"
	"github.com/claude/nextrep/internal/ingest"
	"github.com/claude/nextrep/internal/ingest/alpha"
	"github.com/claude/nextrep/internal/logging"
	"github.com/claude/nextrep/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	csvPath := flag.String("csv", "", "path to an Alpha Progression CSV export (required)")
	local := flag.Bool("local", false, "write straight to the database instead of the server")
	login := flag.String("login", "", "user login in local mode (defaults to server.dev_user)")
	apiKey := flag.String("api-key", os.Getenv("NEXTREP_AUTH_API_KEY"), "import API key for the server")
	dryRun := flag.Bool("dry-run", false, "parse the export and report what it contains")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("nextrep-import", Version)
		return
	}
	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: nextrep-import -csv export.csv [-local -login you@example.com] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log, _ := logging.New(config.LogConfig{Level: "info"}, os.Stdout)
	ctx := context.Background()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Error("opening export failed", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if *dryRun {
		sessions, err := alpha.Parse(f)
		if err != nil {
			log.Error("parse failed", "error", err)
			os.Exit(1)
		}
		sets := 0
		for _, s := range sessions {
			for _, e := range s.Exercises {
				sets += len(e.WorkingSets())
			}
		}
		log.Info("dry run: nothing imported", "sessions", len(sessions), "working_sets", sets)
		return
	}

	var res *ingest.Result
	if *local {
		res, err = importLocal(ctx, *configPath, *login, f, log)
	} else {
		res, err = importRemote(ctx, *configPath, *apiKey, f, log)
	}
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	log.Info("import complete",
		"sessions_received", res.SessionsReceived,
		"sessions_saved", res.SessionsSaved,
		"sessions_skipped", res.SessionsSkipped,
		"sets_saved", res.SetsSaved,
	)
	if len(res.ExercisesCreated) > 0 {
		log.Info("custom exercises created", "names", res.ExercisesCreated)
	}
}

func importRemote(ctx context.Context, configPath, apiKey string, f *os.File, log *slog.Logger) (*ingest.Result, error) {
	cc, err := config.LoadClient(configPath)
	if err != nil {
		return nil, err
	}
	if cc.ServerURL == "" {
		return nil, fmt.Errorf("client.server_url (or NEXTREP_CLIENT_SERVER_URL) is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("-api-key (or NEXTREP_AUTH_API_KEY) is required")
	}
	c := client.New(cc.ServerURL, client.Options{
		Token:   cc.Token,
		APIKey:  apiKey,
		Timeout: 5 * time.Minute,
		Log:     log,
	})
	log.Info("uploading export", "server", cc.ServerURL, "file", f.Name())
	return c.ImportAlpha(ctx, f)
}

func importLocal(ctx context.Context, configPath, login string, f *os.File, log *slog.Logger) (*ingest.Result, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if login == "" {
		login = cfg.Server.DevUser
	}
	if login == "" {
		return nil, fmt.Errorf("-login or server.dev_user is required in local mode")
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	db, err := storage.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	user, err := db.GetOrCreateUser(ctx, login, login)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := alpha.NewProvider(db, log).Ingest(ctx, f, user.ID)
	if _, logErr := db.InsertImportLog(ctx, storage.NewImportLog(user.ID, "alpha", res, err, time.Since(start))); logErr != nil {
		log.Warn("writing import log failed", "error", logErr)
	}
	return res, err
}
