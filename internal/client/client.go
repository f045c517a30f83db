// Package client talks to the NextRep REST API. It is used by the session
// CLI to save finished workouts, by the import CLI, and by the MCP server
// in remote mode.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/dashboard"
	"github.com/claude/nextrep/internal/ingest"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/progress"
)

// Options configure a Client.
type Options struct {
	// Token is sent as a bearer token when set.
	Token string
	// APIKey is sent to the import endpoints.
	APIKey  string
	Timeout time.Duration
	// Retries is the number of attempts for requests that may be repeated.
	Retries int
	Log     *slog.Logger
}

// Client sends requests to the NextRep server over HTTP.
type Client struct {
	baseURL    string
	token      string
	apiKey     string
	retries    int
	backoff    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      opts.Token,
		apiKey:     opts.APIKey,
		retries:    opts.Retries,
		backoff:    time.Second,
		httpClient: &http.Client{Timeout: opts.Timeout},
		log:        opts.Log,
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path   string
	Status int
	// Message is the server's error text, Field the rejected field if any.
	Message string
	Field   string
}

func (e *StatusError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s returned %d: %s (field %s)", e.Path, e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Path, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// retryable reports whether a failed attempt may be repeated: transport
// errors and server-side failures, never rejected requests.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= http.StatusInternalServerError || se.Status == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

type request struct {
	method      string
	path        string
	params      url.Values
	body        []byte
	contentType string
	apiKey      bool
}

// do sends r, retrying up to c.retries times with exponential backoff, and
// decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	var lastErr error
	for attempt := range c.retries {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<uint(attempt-1))
			c.log.Warn("retrying request", "path", r.path, "attempt", attempt+1, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", r.path, ctx.Err())
			case <-time.After(wait):
			}
		}

		lastErr = c.once(ctx, r, out)
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("after %d attempts: %w", c.retries, lastErr)
}

func (c *Client) once(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.params) > 0 {
		u += "?" + r.params.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if r.apiKey {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", r.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", r.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Path: r.path, Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var apiErr struct {
			Error string `json:"error"`
			Field string `json:"field"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			se.Message, se.Field = apiErr.Error, apiErr.Field
		}
		return se
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", r.path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, params: params}, out)
}

// SaveWorkout posts a finished session. A 400 response is returned as a
// *models.ValidationError so callers see the same error as a local save.
func (c *Client) SaveWorkout(ctx context.Context, req models.SaveWorkoutRequest) (models.SaveWorkoutResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return models.SaveWorkoutResponse{}, fmt.Errorf("marshaling workout: %w", err)
	}

	var resp models.SaveWorkoutResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/workouts",
		body:        data,
		contentType: "application/json",
	}, &resp)

	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusBadRequest {
		return resp, &models.ValidationError{Field: se.Field, Reason: se.Message}
	}
	return resp, err
}

// ImportAlpha uploads an Alpha Progression CSV export. Imports are not
// retried; the server skips sessions it already has, so the caller may
// simply run the import again.
func (c *Client) ImportAlpha(ctx context.Context, csv io.Reader) (*ingest.Result, error) {
	data, err := io.ReadAll(csv)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	var res ingest.Result
	err = c.once(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/import/alpha",
		body:        data,
		contentType: "text/csv",
		apiKey:      true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Me returns the identity the server resolved for this client.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var info struct {
		Login       string `json:"login"`
		DisplayName string `json:"display_name"`
	}
	if err := c.get(ctx, "/api/v1/me", nil, &info); err != nil {
		return models.User{}, err
	}
	return models.User{Login: info.Login, DisplayName: info.DisplayName}, nil
}

// ListWorkouts returns one page of the session history.
func (c *Client) ListWorkouts(ctx context.Context, limit, offset int) (models.Page[models.SessionListItem], error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	var page models.Page[models.SessionListItem]
	err := c.get(ctx, "/api/v1/workouts", params, &page)
	return page, err
}

// GetWorkout returns the detail of one session.
func (c *Client) GetWorkout(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error) {
	var detail models.SessionDetail
	if err := c.get(ctx, "/api/v1/workouts/"+id.String(), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExerciseProgress returns the progress report of one exercise.
func (c *Client) ExerciseProgress(ctx context.Context, exerciseID uuid.UUID) (progress.Result, error) {
	var res progress.Result
	err := c.get(ctx, "/api/v1/progress/exercises/"+exerciseID.String(), nil, &res)
	return res, err
}

// UsedExercises lists the exercises the user has logged.
func (c *Client) UsedExercises(ctx context.Context) ([]models.UsedExercise, error) {
	var used []models.UsedExercise
	err := c.get(ctx, "/api/v1/progress/exercises", nil, &used)
	return used, err
}

// Home returns the dashboard.
func (c *Client) Home(ctx context.Context) (dashboard.Home, error) {
	var h dashboard.Home
	err := c.get(ctx, "/api/v1/home", nil, &h)
	return h, err
}

// TrainingSummary returns volume per period between start and end.
func (c *Client) TrainingSummary(ctx context.Context, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	params.Set("bucket", bucket)
	var periods []models.TrainingSummaryPeriod
	err := c.get(ctx, "/api/v1/workouts/summary", params, &periods)
	return periods, err
}

// SearchExercises searches the catalog.
func (c *Client) SearchExercises(ctx context.Context, query string, limit int) (models.Page[models.Exercise], error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	var page models.Page[models.Exercise]
	err := c.get(ctx, "/api/v1/exercises", params, &page)
	return page, err
}

// GetExercise returns one catalog entry with its parsed instructions.
func (c *Client) GetExercise(ctx context.Context, id uuid.UUID) (models.Exercise, error) {
	var e models.Exercise
	err := c.get(ctx, "/api/v1/exercises/"+id.String(), nil, &e)
	return e, err
}
