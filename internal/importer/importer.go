// Package importer loads the exercise catalog from wger exerciseinfo data,
// either from exported JSON files or straight from a wger API.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/claude/nextrep/internal/models"
)

// Store persists catalog entries.
type Store interface {
	UpsertExercises(ctx context.Context, exercises []models.Exercise) (int64, error)
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int
	PagesRead      int

	Fetched  int
	Skipped  int
	Upserted int64
}

// Importer converts wger entries and upserts them in batches.
type Importer struct {
	store     Store
	log       *slog.Logger
	dryRun    bool
	batchSize int
	stats     Stats
}

// New creates a new Importer. In dry-run mode entries are converted and
// counted but never written.
func New(store Store, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, log: log, dryRun: dryRun, batchSize: 500}
}

// ImportFiles imports exported exerciseinfo files. A file holds either one
// API page or a bare array of entries and may be gzip-compressed. Unreadable
// files are logged and counted, not fatal.
func (imp *Importer) ImportFiles(ctx context.Context, paths []string) (*Stats, error) {
	for _, p := range paths {
		data, err := readAll(p)
		if err != nil {
			imp.log.Warn("read failed", "file", p, "error", err)
			imp.stats.FilesErrored++
			continue
		}
		page, err := decodePage(data)
		if err != nil {
			imp.log.Warn("parse failed", "file", p, "error", err)
			imp.stats.FilesErrored++
			continue
		}
		if err := imp.ingest(ctx, page.Results); err != nil {
			return &imp.stats, fmt.Errorf("importing %s: %w", p, err)
		}
		imp.stats.FilesProcessed++
	}
	return &imp.stats, nil
}

func readAll(path string) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// APIOptions configures ImportAPI.
type APIOptions struct {
	BaseURL   string // e.g. https://wger.de/api/v2
	Token     string
	PageSize  int
	PageDelay time.Duration
	Client    *http.Client
}

// ImportAPI pages through the exerciseinfo endpoint following the "next"
// links, pausing PageDelay between requests.
func (imp *Importer) ImportAPI(ctx context.Context, opts APIOptions) (*Stats, error) {
	if opts.BaseURL == "" {
		return &imp.stats, errors.New("wger base URL is required")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 60 * time.Second}
	}
	limiter := rate.NewLimiter(rate.Every(opts.PageDelay), 1)

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(opts.PageSize))
	next := opts.BaseURL + "/exerciseinfo/?" + params.Encode()

	for next != "" {
		if err := limiter.Wait(ctx); err != nil {
			return &imp.stats, err
		}
		page, err := fetchPage(ctx, opts, next)
		if err != nil {
			return &imp.stats, err
		}
		imp.stats.PagesRead++
		if imp.stats.PagesRead == 1 {
			imp.log.Info("wger catalog", "available", page.Count)
		}
		if err := imp.ingest(ctx, page.Results); err != nil {
			return &imp.stats, err
		}
		imp.log.Info("page imported", "page", imp.stats.PagesRead, "entries", len(page.Results),
			"upserted", imp.stats.Upserted, "skipped", imp.stats.Skipped)

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}
	return &imp.stats, nil
}

func fetchPage(ctx context.Context, opts APIOptions, pageURL string) (*wgerPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Token "+opts.Token)
	}

	resp, err := opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pageURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", pageURL, resp.StatusCode)
	}

	page, err := decodePage(body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	return &page, nil
}

// ingest converts entries and upserts them in batches.
func (imp *Importer) ingest(ctx context.Context, results []wgerExerciseInfo) error {
	batch := make([]models.Exercise, 0, imp.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if imp.dryRun {
			imp.stats.Upserted += int64(len(batch))
		} else {
			n, err := imp.store.UpsertExercises(ctx, batch)
			if err != nil {
				return err
			}
			imp.stats.Upserted += n
		}
		batch = batch[:0]
		return nil
	}

	seen := make(map[string]bool, len(results))
	for _, info := range results {
		imp.stats.Fetched++
		e, ok := toExercise(info)
		if !ok || seen[e.SourceID] {
			imp.stats.Skipped++
			continue
		}
		seen[e.SourceID] = true
		batch = append(batch, e)
		if len(batch) == imp.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
