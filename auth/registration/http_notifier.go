package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
)

var _ auth.Notifier = (*HTTPNotifier)(nil)

// HTTPNotifier POSTs each registration as JSON and waits for a 2xx reply.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

type HTTPOption func(*HTTPNotifier)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(n *HTTPNotifier) { n.client = c }
}

func NewHTTPNotifier(url string, opts ...HTTPOption) *HTTPNotifier {
	n := &HTTPNotifier{url: url, client: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *HTTPNotifier) NotifyRegistration(ctx context.Context, r auth.Registration) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("[HTTPNotifier.NotifyRegistration] %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("[HTTPNotifier.NotifyRegistration] %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("[HTTPNotifier.NotifyRegistration] %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("[HTTPNotifier.NotifyRegistration] %s returned %d", n.url, resp.StatusCode)
	}
	return nil
}
