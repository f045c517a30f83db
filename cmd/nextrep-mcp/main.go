package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/client"
	"github.com/claude/nextrep/internal/config"
	"github.com/claude/nextrep/internal/logging"
	nextmcp "github.com/claude/nextrep/internal/mcp"
	"github.com/claude/nextrep/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	mode := flag.String("mode", "remote", "data source: remote (NextRep REST API) or local (database)")
	login := flag.String("login", "", "user login in local mode (defaults to server.dev_user)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("nextrep-mcp", Version)
		return
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	ctx := context.Background()

	switch *mode {
	case "local":
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		log, logCloser := logging.New(cfg.Log, os.Stderr)
		defer logCloser.Close()

		db, err := storage.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if *login == "" {
			*login = cfg.Server.DevUser
		}
		if *login == "" {
			log.Error("local mode needs -login or server.dev_user")
			os.Exit(1)
		}
		user, err := db.GetOrCreateUser(ctx, *login, *login)
		if err != nil {
			log.Error("resolving user failed", "login", *login, "error", err)
			os.Exit(1)
		}
		serve(nextmcp.NewLocal(db, cfg.Analytics.Options()), user.ID, log)

	case "remote":
		cc, err := config.LoadClient(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		log, _ := logging.New(config.LogConfig{Level: "info"}, os.Stderr)
		if cc.ServerURL == "" {
			log.Error("client.server_url (or NEXTREP_CLIENT_SERVER_URL) is required in remote mode")
			os.Exit(1)
		}
		c := client.New(cc.ServerURL, client.Options{
			Token:   cc.Token,
			Timeout: time.Duration(cc.TimeoutSeconds) * time.Second,
			Retries: cc.Retries,
			Log:     log,
		})
		me, err := c.Me(ctx)
		if err != nil {
			log.Error("server unreachable", "url", cc.ServerURL, "error", err)
			os.Exit(1)
		}
		log.Info("connected", "url", cc.ServerURL, "login", me.Login)
		serve(nextmcp.NewHTTPClient(c), uuid.Nil, log)

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want local or remote)\n", *mode)
		os.Exit(1)
	}
}
