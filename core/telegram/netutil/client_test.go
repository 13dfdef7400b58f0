package netutil

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type stubTransport struct {
	failures int
	calls    int
	err      error
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("ok")),
		Request:    req,
	}, nil
}

func TestRetryTransportRetriesTransientErrors(t *testing.T) {
	stub := &stubTransport{failures: 1, err: timeoutError{}}
	rt := &retryTransport{base: stub, maxRetries: 1, backoff: time.Millisecond}

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()
	if stub.calls != 2 {
		t.Fatalf("calls = %d, want 2 (single retry)", stub.calls)
	}
}

func TestRetryTransportGivesUpAfterBudget(t *testing.T) {
	stub := &stubTransport{failures: 10, err: timeoutError{}}
	rt := &retryTransport{base: stub, maxRetries: 1, backoff: time.Millisecond}

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected error after retry budget")
	}
	if stub.calls != 2 {
		t.Fatalf("calls = %d, want 2", stub.calls)
	}
}

func TestRetryTransportDoesNotRetryPermanentErrors(t *testing.T) {
	stub := &stubTransport{failures: 10, err: io.ErrUnexpectedEOF}
	rt := &retryTransport{base: stub, maxRetries: 3, backoff: time.Millisecond}

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected error")
	}
	if stub.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry)", stub.calls)
	}
}
