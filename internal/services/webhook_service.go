package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"placesmap/internal/config"
	"placesmap/pkg/logging"
)

const installMessage = "Someone installed the map places app in their whop!"

// WebhookNotifier posts {"content": ...} to a chat-style webhook. Failures are logged
// and swallowed; notifications never affect the caller.
type WebhookNotifier interface {
	Notify(ctx context.Context, webhookURL, content string)
}

type webhookNotifier struct {
	http       *http.Client
	defaultURL string
}

func NewWebhookNotifier(cfg config.WebhookConfig) WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &webhookNotifier{
		http:       &http.Client{Timeout: timeout},
		defaultURL: cfg.DefaultURL,
	}
}

func (n *webhookNotifier) Notify(ctx context.Context, webhookURL, content string) {
	target := webhookURL
	if target == "" {
		target = n.defaultURL
	}
	if target == "" {
		return
	}

	if err := n.send(ctx, target, content); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("webhook notification failed")
	}
}

func (n *webhookNotifier) send(ctx context.Context, target, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook bad status: %s", resp.Status)
	}
	return nil
}
