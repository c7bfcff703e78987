// Package notify posts deployment status messages to an operator webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// Notifier sends text messages to a webhook URL. A Notifier with an empty
// URL silently drops every message, so callers never need to branch on
// whether notifications are configured.
type Notifier struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
}

type message struct {
	Text string `json:"text"`
}

// New creates a Notifier for the given webhook URL. An empty URL disables
// notifications.
func New(url string, log zerolog.Logger) *Notifier {
	return &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
}

// Send posts the message to the webhook. Failures are logged, not
// returned: notification delivery is best-effort and must never fail a
// deployment.
func (n *Notifier) Send(ctx context.Context, text string) {
	if n.url == "" {
		return
	}

	if err := n.post(ctx, text); err != nil {
		n.log.Warn().Err(err).Msg("webhook notification failed")
		return
	}
	n.log.Debug().Msg("webhook notification sent")
}

// Sendf formats and sends a message.
func (n *Notifier) Sendf(ctx context.Context, format string, args ...any) {
	n.Send(ctx, fmt.Sprintf(format, args...))
}

func (n *Notifier) post(ctx context.Context, text string) error {
	body, err := json.Marshal(message{Text: text})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
