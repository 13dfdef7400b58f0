package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"esimbot/core/logger"
	"esimbot/core/telegram/netutil"
)

// Config holds lookup service settings.
type Config struct {
	// BaseURL is an optional remote endpoint serving the reference table as a
	// JSON array of {code,name,continent,currency}. Empty disables refresh.
	BaseURL string `yaml:"base_url" envconfig:"GEO_BASE_URL"`
	// TimeoutSeconds bounds a refresh call; 0 -> 5s.
	TimeoutSeconds int `yaml:"timeout_seconds" envconfig:"GEO_TIMEOUT_SECONDS"`
}

// Source marks whether a result came from the current snapshot or a snapshot
// installed by the most recent remote refresh.
type Source string

const (
	// SourceSeed marks results resolved against the built-in table.
	SourceSeed Source = "seed"
	// SourceFetched marks results resolved against a remotely refreshed table.
	SourceFetched Source = "fetched"
)

// Result is a fully resolved lookup outcome. It is never partially populated:
// Resolve returns either a complete Result or a typed error.
type Result struct {
	Query     string
	Country   Country
	Source    Source
	FetchedAt time.Time
}

// Service resolves country codes against an immutable snapshot table and
// optionally refreshes the snapshot from a remote endpoint.
type Service struct {
	cfg     Config
	client  *http.Client
	table   atomic.Pointer[Table]
	fetched atomic.Bool
}

// NewService builds a Service seeded with the built-in reference table.
func NewService(cfg Config) *Service {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &Service{
		cfg: cfg,
		client: netutil.NewClient(netutil.ClientOptions{
			Timeout:    timeout,
			MaxRetries: 1,
		}),
	}
	s.table.Store(NewTable(seedRows, time.Now()))
	return s
}

// Resolve looks up a country code. The result is deterministic for a given
// table version. Unknown codes yield *NotFoundError, empty or malformed
// queries yield *InvalidQueryError; Resolve never panics or returns a partial
// result.
func (s *Service) Resolve(ctx context.Context, query string) (Result, error) {
	code := strings.ToUpper(strings.TrimSpace(query))
	if len(code) != 2 || !isAlpha(code) {
		return Result{}, &InvalidQueryError{Query: query}
	}

	table := s.table.Load()
	row, ok := table.Lookup(code)
	if !ok {
		logger.Debug(ctx, "service.geo", "resolve.miss",
			slog.String("status", "ok"),
			slog.String("country", code),
		)
		return Result{}, &NotFoundError{Query: code}
	}

	source := SourceSeed
	if s.fetched.Load() {
		source = SourceFetched
	}
	logger.Debug(ctx, "service.geo", "resolve",
		slog.String("status", "ok"),
		slog.String("country", code),
		slog.String("continent", row.Continent),
		slog.String("currency", row.Currency),
	)
	return Result{
		Query:     code,
		Country:   row,
		Source:    source,
		FetchedAt: table.LoadedAt(),
	}, nil
}

// Refresh fetches the reference table from the configured endpoint and swaps
// the snapshot atomically. Readers keep using the previous snapshot until the
// swap; a failed refresh leaves the current snapshot untouched.
func (s *Service) Refresh(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.BaseURL) == "" {
		return fmt.Errorf("geo: refresh endpoint not configured")
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL, nil)
	if err != nil {
		return &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warn(ctx, "service.geo", "refresh.fail",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return &TransportError{Op: "fetch table", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &TransportError{Op: "fetch table", Err: fmt.Errorf("status %s", resp.Status)}
	}

	var rows []Country
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return &TransportError{Op: "decode table", Err: err}
	}
	if len(rows) == 0 {
		return &TransportError{Op: "decode table", Err: fmt.Errorf("empty table")}
	}

	s.table.Store(NewTable(rows, time.Now()))
	s.fetched.Store(true)
	logger.Info(ctx, "service.geo", "refresh",
		slog.String("status", "ok"),
		slog.String("cache", "refresh"),
		slog.Int("count", len(rows)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// TableSize reports the row count of the current snapshot.
func (s *Service) TableSize() int {
	return s.table.Load().Len()
}

// Continents returns the distinct continent names in the current snapshot.
func (s *Service) Continents() map[string]struct{} {
	return s.table.Load().Continents()
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
