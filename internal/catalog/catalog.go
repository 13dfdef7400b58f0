// Package catalog loads the sellable plan table from CSV and serves it as an
// immutable in-memory snapshot. Reload swaps the whole snapshot; readers never
// observe a partially loaded table.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"log/slog"

	"esimbot/core/logger"
)

// Config holds catalog settings.
type Config struct {
	// Path points at the plan price CSV.
	Path string `yaml:"path" envconfig:"CATALOG_PATH"`
}

// Price is a USD amount parsed from CSV cells like "$12.50" or "1,200".
type Price float64

// UnmarshalCSV strips currency decoration before parsing.
func (p *Price) UnmarshalCSV(cell string) error {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(cell)
	if cleaned == "" {
		return fmt.Errorf("empty price cell")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", cell, err)
	}
	*p = Price(v)
	return nil
}

// Plan is one sellable data plan row.
type Plan struct {
	ID     string `csv:"ID" validate:"required"`
	Region string `csv:"Region" validate:"required"`
	Name   string `csv:"Name" validate:"required"`
	Price  Price  `csv:"Price(USD)" validate:"gt=0"`
}

// snapshot is an immutable view of the loaded table.
type snapshot struct {
	plans    []Plan
	byID     map[string]Plan
	loadedAt time.Time
}

// Catalog serves plan rows loaded from the configured CSV file.
type Catalog struct {
	cfg      Config
	validate *validator.Validate
	snap     atomic.Pointer[snapshot]
}

// New builds an empty catalog; call Load before serving requests.
func New(cfg Config) *Catalog {
	c := &Catalog{
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	c.snap.Store(&snapshot{byID: map[string]Plan{}})
	return c
}

// Load reads and validates the CSV, then installs it as the current snapshot.
// On any error the previous snapshot stays in place.
func (c *Catalog) Load() error {
	start := time.Now()

	f, err := os.Open(c.cfg.Path)
	if err != nil {
		return fmt.Errorf("catalog: open %s: %w", c.cfg.Path, err)
	}
	defer f.Close()

	var rows []Plan
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", c.cfg.Path, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("catalog: %s has no plan rows", c.cfg.Path)
	}

	byID := make(map[string]Plan, len(rows))
	for i, row := range rows {
		if err := c.validate.Struct(row); err != nil {
			return fmt.Errorf("catalog: row %d (%q): %w", i+1, row.ID, err)
		}
		if _, dup := byID[row.ID]; dup {
			return fmt.Errorf("catalog: duplicate plan id %q", row.ID)
		}
		byID[row.ID] = row
	}

	c.snap.Store(&snapshot{plans: rows, byID: byID, loadedAt: time.Now()})
	logger.Info(logger.Background(), "service.catalog", "catalog.load",
		slog.String("status", "ok"),
		slog.Int("plans", len(rows)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// ByID returns the plan with the given id.
func (c *Catalog) ByID(id string) (Plan, bool) {
	p, ok := c.snap.Load().byID[strings.TrimSpace(id)]
	return p, ok
}

// List returns all plans in CSV order.
func (c *Catalog) List() []Plan {
	snap := c.snap.Load()
	out := make([]Plan, len(snap.plans))
	copy(out, snap.plans)
	return out
}

// Regions returns the distinct plan regions, sorted.
func (c *Catalog) Regions() []string {
	snap := c.snap.Load()
	seen := map[string]struct{}{}
	var out []string
	for _, p := range snap.plans {
		if _, ok := seen[p.Region]; ok {
			continue
		}
		seen[p.Region] = struct{}{}
		out = append(out, p.Region)
	}
	sort.Strings(out)
	return out
}

// ByRegion returns the plans for one region in CSV order.
func (c *Catalog) ByRegion(region string) []Plan {
	snap := c.snap.Load()
	var out []Plan
	for _, p := range snap.plans {
		if strings.EqualFold(p.Region, region) {
			out = append(out, p)
		}
	}
	return out
}

// Len reports the row count of the current snapshot.
func (c *Catalog) Len() int {
	return len(c.snap.Load().plans)
}

// LoadedAt reports when the current snapshot was installed.
func (c *Catalog) LoadedAt() time.Time {
	return c.snap.Load().loadedAt
}
