package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func load(t *testing.T) *Catalog {
	t.Helper()
	c := New(Config{Path: filepath.Join("testdata", "plans.csv")})
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestLoadParsesDecoratedPrices(t *testing.T) {
	c := load(t)
	if c.Len() != 4 {
		t.Fatalf("Len = %d, want 4", c.Len())
	}

	cases := []struct {
		id    string
		price float64
	}{
		{"eu-5gb", 9.90},
		{"eu-20gb", 24.50},
		{"asia-10gb", 14.00},
		{"global-3gb", 1015.25},
	}
	for _, tc := range cases {
		p, ok := c.ByID(tc.id)
		if !ok {
			t.Fatalf("ByID(%q): not found", tc.id)
		}
		if float64(p.Price) != tc.price {
			t.Fatalf("ByID(%q).Price = %v, want %v", tc.id, p.Price, tc.price)
		}
	}
}

func TestByRegionAndRegions(t *testing.T) {
	c := load(t)
	eu := c.ByRegion("Europe")
	if len(eu) != 2 {
		t.Fatalf("ByRegion(Europe) = %d plans, want 2", len(eu))
	}
	regions := c.Regions()
	want := []string{"Asia", "Europe", "Global"}
	if len(regions) != len(want) {
		t.Fatalf("Regions = %v, want %v", regions, want)
	}
	for i := range want {
		if regions[i] != want[i] {
			t.Fatalf("Regions = %v, want %v", regions, want)
		}
	}
}

func TestLoadRejectsInvalidRows(t *testing.T) {
	cases := []struct {
		name string
		csv  string
		frag string
	}{
		{"zero price", "ID,Region,Name,Price(USD)\nx,Europe,X,$0.00\n", "gt"},
		{"missing id", "ID,Region,Name,Price(USD)\n,Europe,X,$5.00\n", "required"},
		{"duplicate id", "ID,Region,Name,Price(USD)\nx,Europe,X,$5.00\nx,Asia,Y,$6.00\n", "duplicate"},
		{"garbage price", "ID,Region,Name,Price(USD)\nx,Europe,X,abc\n", "parse price"},
		{"empty file", "ID,Region,Name,Price(USD)\n", "no plan rows"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "plans.csv")
			if err := os.WriteFile(path, []byte(tc.csv), 0o644); err != nil {
				t.Fatal(err)
			}
			c := New(Config{Path: path})
			err := c.Load()
			if err == nil {
				t.Fatal("expected load error")
			}
			if !strings.Contains(err.Error(), tc.frag) {
				t.Fatalf("error %q does not mention %q", err, tc.frag)
			}
		})
	}
}

func TestFailedReloadKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.csv")
	good := "ID,Region,Name,Price(USD)\nx,Europe,X,$5.00\n"
	if err := os.WriteFile(path, []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(Config{Path: path})
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := os.WriteFile(path, []byte("ID,Region,Name,Price(USD)\nx,Europe,X,bad\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Load(); err == nil {
		t.Fatal("expected reload error")
	}
	if _, ok := c.ByID("x"); !ok {
		t.Fatal("previous snapshot lost after failed reload")
	}
}
