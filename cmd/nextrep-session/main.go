package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/client"
	"github.com/claude/nextrep/internal/config"
	"github.com/claude/nextrep/internal/draftstore"
	"github.com/claude/nextrep/internal/logging"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/workout"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	stateDir := flag.String("state", "", "directory for the local draft (defaults to client.state_dir or ~/.nextrep)")
	verbose := flag.Bool("v", false, "log to stderr")
	version := flag.Bool("version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nextrep-session [-config config.yaml] <command> [args]\n\n%s\n\nFlags:\n", usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println("nextrep-session", Version)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cc, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, _ := logging.New(config.LogConfig{Level: level}, os.Stderr)

	dir := *stateDir
	if dir == "" {
		dir = cc.StateDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(home, ".nextrep")
	}

	store, err := draftstore.Open(dir)
	if err != nil {
		log.Error("failed to open draft store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	c := client.New(cc.ServerURL, client.Options{
		Token:   cc.Token,
		Timeout: time.Duration(cc.TimeoutSeconds) * time.Second,
		Retries: cc.Retries,
		Log:     log,
	})

	ctx := context.Background()
	session := workout.OpenSession(ctx, store, log)

	if err := run(ctx, session, store, c, cc.ServerURL, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		store.Close()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, session *workout.Session, store *draftstore.SQLite, c *client.Client, serverURL, cmd string, args []string) error {
	needServer := func() error {
		if serverURL == "" {
			return errors.New("client.server_url (or NEXTREP_CLIENT_SERVER_URL) is required for " + cmd)
		}
		return nil
	}

	switch cmd {
	case "show":
		render(os.Stdout, session.Draft(), time.Now())
		return nil

	case "history":
		saved, err := store.RecentSaved(ctx, 10)
		if err != nil {
			return err
		}
		for _, s := range saved {
			fmt.Printf("%s  %s  %s\n", s.SavedAt.Local().Format("2006-01-02 15:04"), s.WorkoutID, s.Name)
		}
		return nil

	case "add":
		if len(args) == 0 {
			return fmt.Errorf("add: %w", errUsage)
		}
		if err := needServer(); err != nil {
			return err
		}
		ex, err := findExercise(ctx, c, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return dispatch(ctx, session, workout.AddExercise{Exercise: workout.CatalogExercise{
			ID:              ex.ID.String(),
			Name:            ex.Name,
			Category:        ex.Category,
			MeasurementType: ex.MeasurementType,
		}})

	case "finish":
		if err := needServer(); err != nil {
			return err
		}
		d := session.Draft()
		resp, err := session.Finish(ctx, c)
		if err != nil {
			return err
		}
		if err := store.RecordSaved(ctx, draftstore.SavedDraft{
			DraftID: d.ID, WorkoutID: resp.WorkoutID, Name: d.Name, SavedAt: resp.CreatedAt,
		}); err != nil {
			fmt.Fprintln(os.Stderr, "warning:", err)
		}
		fmt.Printf("saved %s: %.1f kg over %d sets\n", resp.WorkoutID, resp.TotalVolume, resp.TotalSets)
		return nil
	}

	a, err := parseAction(session.Draft(), cmd, args)
	if err != nil {
		return err
	}
	return dispatch(ctx, session, a)
}

func dispatch(ctx context.Context, session *workout.Session, a workout.Action) error {
	t, err := session.Dispatch(ctx, a)
	if err != nil {
		return err
	}
	if !t.Changed {
		fmt.Fprintf(os.Stderr, "%s had no effect\n", a.Name())
	}
	if t.SetToggled != nil && t.SetToggled.Completed {
		fmt.Println("set complete, rest timer started")
	}
	if t.AllDone {
		fmt.Println("all exercises done, run `finish` to save the session")
	}
	render(os.Stdout, t.After, time.Now())
	return nil
}

// findExercise resolves a UUID or a search text to one catalog entry. An
// exact name match wins; otherwise the search must be unambiguous.
func findExercise(ctx context.Context, c *client.Client, query string) (models.Exercise, error) {
	if id, err := uuid.Parse(query); err == nil {
		return c.GetExercise(ctx, id)
	}

	page, err := c.SearchExercises(ctx, query, 10)
	if err != nil {
		return models.Exercise{}, err
	}
	for _, e := range page.Data {
		if strings.EqualFold(e.Name, query) {
			return e, nil
		}
	}
	switch len(page.Data) {
	case 0:
		return models.Exercise{}, fmt.Errorf("no exercise matches %q", query)
	case 1:
		return page.Data[0], nil
	}
	names := make([]string, len(page.Data))
	for i, e := range page.Data {
		names[i] = e.Name
	}
	return models.Exercise{}, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(names, ", "))
}
