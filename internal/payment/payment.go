// Package payment verifies incoming TRC-20 transfers against a block
// explorer. A payment counts as confirmed when a recent transaction to the
// shop wallet carries the order memo and an amount matching the order total.
package payment

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"esimbot/core/logger"
	"esimbot/core/telegram/netutil"
)

// DefaultBaseURL is the public Tronscan transaction listing endpoint.
const DefaultBaseURL = "https://apilist.tronscanapi.com/api/transaction"

// amountTolerance absorbs explorer rounding of USDT amounts.
const amountTolerance = 0.01

// Config holds payment verification settings.
type Config struct {
	// WalletAddress is the TRON address buyers transfer to.
	WalletAddress string `yaml:"wallet_address" envconfig:"TRON_WALLET_ADDRESS"`
	// BaseURL overrides the explorer endpoint; empty uses DefaultBaseURL.
	BaseURL string `yaml:"base_url" envconfig:"TRON_BASE_URL"`
	// TimeoutSeconds bounds one verification call; 0 -> 5s.
	TimeoutSeconds int `yaml:"timeout_seconds" envconfig:"TRON_TIMEOUT_SECONDS"`
}

// TransportError reports an explorer call that failed before an answer was
// obtained. It never means "payment absent".
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("payment: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Code identifies the error class for handler summary logs.
func (e *TransportError) Code() string { return "PAYMENT_TRANSPORT" }

// Client checks the chain for confirming transfers.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a verification client.
func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg: cfg,
		http: netutil.NewClient(netutil.ClientOptions{
			Timeout:    timeout,
			MaxRetries: 1,
		}),
	}
}

type txPage struct {
	Data []txEntry `json:"data"`
}

type txEntry struct {
	// Data carries the hex-encoded transfer memo.
	Data         string `json:"data"`
	Confirmed    bool   `json:"confirmed"`
	ContractData struct {
		// Amount is in SUN-style base units, 1e6 per whole token.
		Amount int64 `json:"amount"`
	} `json:"contractData"`
}

// Confirmed reports whether a confirmed transfer carrying memo and matching
// amount has reached the wallet. A false result with nil error means the
// explorer answered and no such transfer exists yet.
func (c *Client) Confirmed(ctx context.Context, memo string, amount float64) (bool, error) {
	start := time.Now()

	endpoint, err := c.listURL()
	if err != nil {
		return false, &TransportError{Op: "build request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn(ctx, "service.payment", "verify.fail",
			slog.String("status", "fail"),
			slog.String("memo", memo),
			slog.String("err", err.Error()),
		)
		return false, &TransportError{Op: "list transactions", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return false, &TransportError{Op: "list transactions", Err: fmt.Errorf("status %s", resp.Status)}
	}

	var page txPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return false, &TransportError{Op: "decode transactions", Err: err}
	}

	for _, tx := range page.Data {
		if !tx.Confirmed {
			continue
		}
		if !memoMatches(tx.Data, memo) {
			continue
		}
		got := float64(tx.ContractData.Amount) / 1e6
		if math.Abs(got-amount) > amountTolerance {
			continue
		}
		logger.Info(ctx, "service.payment", "verify",
			slog.String("status", "ok"),
			slog.String("memo", memo),
			slog.Float64("amount", amount),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return true, nil
	}

	logger.Debug(ctx, "service.payment", "verify.pending",
		slog.String("status", "ok"),
		slog.String("memo", memo),
		slog.Int("scanned", len(page.Data)),
	)
	return false, nil
}

func (c *Client) listURL() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("sort", "-timestamp")
	q.Set("count", "true")
	q.Set("limit", "20")
	q.Set("start", "0")
	q.Set("address", c.cfg.WalletAddress)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// memoMatches compares the on-chain data field against the order memo. The
// explorer serves the field hex-encoded; some mirrors serve it as plain text,
// so both forms are accepted.
func memoMatches(data, memo string) bool {
	if data == "" || memo == "" {
		return false
	}
	if decoded, err := hex.DecodeString(data); err == nil {
		if strings.Contains(string(decoded), memo) {
			return true
		}
	}
	return strings.Contains(data, memo)
}

// FormatAmount renders an order total the way buyers must send it.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
