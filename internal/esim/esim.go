// Package esim orders activation codes from the provisioning provider once a
// payment is confirmed.
package esim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"esimbot/core/logger"
	"esimbot/core/telegram/netutil"
)

// Config holds provisioning provider settings.
type Config struct {
	// BaseURL is the provider API root, e.g. https://api.provider.example.
	BaseURL string `yaml:"base_url" envconfig:"ESIM_BASE_URL"`
	// APIKey authenticates provisioning calls.
	APIKey string `yaml:"api_key" envconfig:"ESIM_API_KEY"`
	// TimeoutSeconds bounds one provisioning call; 0 -> 15s.
	TimeoutSeconds int `yaml:"timeout_seconds" envconfig:"ESIM_TIMEOUT_SECONDS"`
}

// ProvisionError reports a failed provisioning attempt. The order stays
// payable and the attempt can be retried.
type ProvisionError struct {
	Op  string
	Err error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("esim: %s: %v", e.Op, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Code identifies the error class for handler summary logs.
func (e *ProvisionError) Code() string { return "PROVISION_FAILED" }

// Client talks to the provisioning provider.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a provisioning client.
func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: netutil.NewClient(netutil.ClientOptions{
			Timeout:    timeout,
			MaxRetries: 1,
		}),
	}
}

type orderRequest struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	PlanID     string `json:"plan_id"`
}

type orderResponse struct {
	ActivationCodeURL string `json:"activation_code_url"`
	Error             string `json:"error"`
}

// Order provisions a plan for the paid order identified by externalID and
// returns the activation code URL delivered to the buyer.
func (c *Client) Order(ctx context.Context, externalID, email, planID string) (string, error) {
	start := time.Now()

	body, err := json.Marshal(orderRequest{
		ExternalID: externalID,
		Email:      email,
		PlanID:     planID,
	})
	if err != nil {
		return "", &ProvisionError{Op: "encode order", Err: err}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &ProvisionError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn(ctx, "service.esim", "provision.fail",
			slog.String("status", "fail"),
			slog.String("plan_id", planID),
			slog.String("err", err.Error()),
		)
		return "", &ProvisionError{Op: "submit order", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return "", &ProvisionError{Op: "submit order", Err: fmt.Errorf("status %s", resp.Status)}
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProvisionError{Op: "decode order", Err: err}
	}
	if out.Error != "" {
		return "", &ProvisionError{Op: "submit order", Err: fmt.Errorf("provider: %s", out.Error)}
	}
	if out.ActivationCodeURL == "" {
		return "", &ProvisionError{Op: "decode order", Err: fmt.Errorf("missing activation_code_url")}
	}

	logger.Info(ctx, "service.esim", "provision",
		slog.String("status", "ok"),
		slog.String("plan_id", planID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return out.ActivationCodeURL, nil
}
