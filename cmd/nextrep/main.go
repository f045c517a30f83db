package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/nextrep/internal/auth"
	"github.com/claude/nextrep/internal/cache"
	"github.com/claude/nextrep/internal/config"
	"github.com/claude/nextrep/internal/ingest/alpha"
	"github.com/claude/nextrep/internal/logging"
	nextmcp "github.com/claude/nextrep/internal/mcp"
	"github.com/claude/nextrep/internal/server"
	"github.com/claude/nextrep/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	issueToken := flag.String("issue-token", "", "print a bearer token for this login and exit")
	tokenName := flag.String("token-name", "", "display name embedded in the issued token")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of the issued token")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(cfg.Log, os.Stdout)
	defer logCloser.Close()
	log.Info("NextRep starting", "version", Version)

	authCfg := auth.Config{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.JWTIssuer}
	if *issueToken != "" {
		token, err := auth.Issue(authCfg, *issueToken, *tokenName, *tokenTTL, time.Now())
		if err != nil {
			log.Error("issuing token failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	if n, err := db.CountExercises(ctx); err != nil {
		log.Warn("counting exercises failed", "error", err)
	} else if n == 0 {
		log.Warn("exercise catalog is empty, run nextrep-catalog to import it")
	}

	exercises := cache.NewExercises(db, cfg.Cache.SizeMB, cfg.Cache.TTLSeconds, log)
	alphaProvider := alpha.NewProvider(db, log)

	// MCP over streamable HTTP, scoped to the identified caller.
	mcpSrv := nextmcp.New(nextmcp.NewLocal(db, cfg.Analytics.Options()), uuid.Nil, Version, log)
	mcpHTTP := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if u, ok := server.UserFromContext(ctx); ok {
				return nextmcp.WithUserID(ctx, u.ID)
			}
			return ctx
		}),
	)

	srv := server.New(db, exercises, alphaProvider, server.Options{
		APIKey:    cfg.Auth.APIKey,
		DevUser:   cfg.Server.DevUser,
		Auth:      authCfg,
		Analytics: cfg.Analytics.Options(),
		MCP:       mcpHTTP,
	}, log)

	// Serve over tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)", "dev_user", cfg.Server.DevUser)
	}

	httpSrv := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
