package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestResolveKnownCode(t *testing.T) {
	s := NewService(Config{})
	res, err := s.Resolve(context.Background(), "US")
	if err != nil {
		t.Fatalf("Resolve(US): %v", err)
	}
	if res.Country.Continent != "North America" {
		t.Fatalf("continent = %q, want North America", res.Country.Continent)
	}
	if res.Country.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", res.Country.Currency)
	}
	if res.Source != SourceSeed {
		t.Fatalf("source = %q, want seed", res.Source)
	}
}

func TestResolveNormalizesInput(t *testing.T) {
	s := NewService(Config{})
	res, err := s.Resolve(context.Background(), "  de ")
	if err != nil {
		t.Fatalf("Resolve(de): %v", err)
	}
	if res.Query != "DE" || res.Country.Continent != "Europe" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolveUnknownCodeIsTypedNotFound(t *testing.T) {
	s := NewService(Config{})
	_, err := s.Resolve(context.Background(), "ZZ")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NotFoundError, got %T (%v)", err, err)
	}
	if notFound.Query != "ZZ" {
		t.Fatalf("query = %q, want ZZ", notFound.Query)
	}
}

func TestResolveRejectsMalformedQueries(t *testing.T) {
	s := NewService(Config{})
	for _, q := range []string{"", "U", "USA", "1A", "ö2"} {
		_, err := s.Resolve(context.Background(), q)
		var invalid *InvalidQueryError
		if !errors.As(err, &invalid) {
			t.Fatalf("Resolve(%q): expected *InvalidQueryError, got %T", q, err)
		}
	}
}

func TestRefreshSwapsSnapshotAtomically(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"code":"xx","name":"Xanadu","continent":"Europe","currency":"XAU"}]`))
	}))
	defer srv.Close()

	s := NewService(Config{BaseURL: srv.URL})

	// Concurrent readers during refresh must always see a complete table.
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := s.Resolve(context.Background(), "US"); err != nil {
					if _, err2 := s.Resolve(context.Background(), "XX"); err2 != nil {
						t.Error("neither table version resolvable")
						return
					}
				}
			}
		}()
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	close(stop)
	wg.Wait()

	res, err := s.Resolve(context.Background(), "XX")
	if err != nil {
		t.Fatalf("Resolve(XX) after refresh: %v", err)
	}
	if res.Source != SourceFetched {
		t.Fatalf("source = %q, want fetched", res.Source)
	}
	if _, err := s.Resolve(context.Background(), "US"); err == nil {
		t.Fatal("US should be gone after snapshot replacement")
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewService(Config{BaseURL: srv.URL})
	err := s.Refresh(context.Background())
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected *TransportError, got %T (%v)", err, err)
	}
	if _, err := s.Resolve(context.Background(), "US"); err != nil {
		t.Fatalf("seed snapshot lost after failed refresh: %v", err)
	}
}
