package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds each HTTP delivery.
const DefaultTimeout = 10 * time.Second

// NewHTTPClient returns the resty client shared by the HTTP senders.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "pickupcheck/1")
	return client
}

// checkResponse converts transport errors and HTTP error statuses into an
// error. Secrets embedded in the request URL are removed from the message.
func checkResponse(name string, res *resty.Response, err error, secrets ...string) error {
	if err != nil {
		return fmt.Errorf("%s: %s", name, redact(err.Error(), secrets...))
	}
	if res.IsError() {
		return fmt.Errorf("%s: unexpected status %d", name, res.StatusCode())
	}
	return nil
}

func redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "<redacted>")
		}
	}
	return s
}
