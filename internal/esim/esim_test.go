package esim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOrderSendsAuthenticatedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-123" {
			t.Errorf("authorization = %q", got)
		}
		var body struct {
			ExternalID string `json:"external_id"`
			Email      string `json:"email"`
			PlanID     string `json:"plan_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.ExternalID != "42" || body.Email != "a@b.example" || body.PlanID != "eu-5gb" {
			t.Errorf("unexpected body: %+v", body)
		}
		fmt.Fprint(w, `{"activation_code_url":"https://p.example/act/xyz"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key-123"})
	url, err := c.Order(context.Background(), "42", "a@b.example", "eu-5gb")
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if url != "https://p.example/act/xyz" {
		t.Fatalf("url = %q", url)
	}
}

func TestOrderFailuresAreTyped(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}},
		{"provider error field", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":"plan sold out"}`)
		}},
		{"missing url", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
			_, err := c.Order(context.Background(), "1", "a@b.example", "eu-5gb")
			var pe *ProvisionError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ProvisionError, got %T (%v)", err, err)
			}
			if pe.Code() != "PROVISION_FAILED" {
				t.Fatalf("code = %q", pe.Code())
			}
		})
	}
}
