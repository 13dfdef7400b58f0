package payment

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func pageWith(entries string) string {
	return fmt.Sprintf(`{"data":[%s]}`, entries)
}

func txJSON(memo string, amountBase int64, confirmed bool) string {
	return fmt.Sprintf(`{"data":%q,"confirmed":%t,"contractData":{"amount":%d}}`,
		hex.EncodeToString([]byte("order "+memo)), confirmed, amountBase)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewClient(Config{
		WalletAddress: "TCSQBnCjaX9EDgD24V3C4dTkfi98PFfT3s",
		BaseURL:       srv.URL,
	})
	return c, srv.Close
}

func TestConfirmedMatchesMemoAndAmount(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "TCSQBnCjaX9EDgD24V3C4dTkfi98PFfT3s" {
			t.Errorf("address = %q", got)
		}
		fmt.Fprint(w, pageWith(txJSON("AB12CD34", 9_900_000, true)))
	})
	defer done()

	ok, err := c.Confirmed(context.Background(), "AB12CD34", 9.90)
	if err != nil {
		t.Fatalf("Confirmed: %v", err)
	}
	if !ok {
		t.Fatal("expected confirmed payment")
	}
}

func TestConfirmedToleratesSmallRounding(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageWith(txJSON("AB12CD34", 9_895_000, true)))
	})
	defer done()

	ok, err := c.Confirmed(context.Background(), "AB12CD34", 9.90)
	if err != nil {
		t.Fatalf("Confirmed: %v", err)
	}
	if !ok {
		t.Fatal("0.005 difference should be within tolerance")
	}
}

func TestConfirmedRejectsWrongAmount(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageWith(txJSON("AB12CD34", 5_000_000, true)))
	})
	defer done()

	ok, err := c.Confirmed(context.Background(), "AB12CD34", 9.90)
	if err != nil {
		t.Fatalf("Confirmed: %v", err)
	}
	if ok {
		t.Fatal("5.00 must not satisfy a 9.90 order")
	}
}

func TestConfirmedIgnoresUnconfirmedAndForeignMemos(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageWith(
			txJSON("AB12CD34", 9_900_000, false)+","+
				txJSON("ZZ99XX88", 9_900_000, true)))
	})
	defer done()

	ok, err := c.Confirmed(context.Background(), "AB12CD34", 9.90)
	if err != nil {
		t.Fatalf("Confirmed: %v", err)
	}
	if ok {
		t.Fatal("neither entry should confirm the order")
	}
}

func TestConfirmedTransportFailureIsTyped(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	defer done()

	_, err := c.Confirmed(context.Background(), "AB12CD34", 9.90)
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected *TransportError, got %T (%v)", err, err)
	}
	if transport.Code() != "PAYMENT_TRANSPORT" {
		t.Fatalf("code = %q", transport.Code())
	}
}

func TestMemoMatchesAcceptsPlainTextData(t *testing.T) {
	if !memoMatches("payment for AB12CD34", "AB12CD34") {
		t.Fatal("plain-text data field must match")
	}
	if memoMatches("", "AB12CD34") {
		t.Fatal("empty data must not match")
	}
}
