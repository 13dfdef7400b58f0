package telegram

import (
	"net/http"

	"esimbot/core/telegram/netutil"
)

const defaultRetryAttempts = 3

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
func BuildHTTPClient() *http.Client {
	return netutil.NewClient(netutil.ClientOptions{
		MaxRetries: defaultRetryAttempts,
	})
}
