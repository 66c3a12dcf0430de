package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"placesmap/internal/config"
)

func TestWebhookNotifier(t *testing.T) {
	received := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- r.URL.Path + " " + body.Content
	}))
	defer srv.Close()

	n := NewWebhookNotifier(config.WebhookConfig{DefaultURL: srv.URL + "/default"})
	n.Notify(context.Background(), "", "hello")
	n.Notify(context.Background(), srv.URL+"/experience", "bye")

	if got := <-received; got != "/default hello" {
		t.Errorf("first = %q", got)
	}
	if got := <-received; got != "/experience bye" {
		t.Errorf("second = %q", got)
	}
}

func TestWebhookNotifier_SwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Neither a failing endpoint nor a missing one may panic or block.
	NewWebhookNotifier(config.WebhookConfig{DefaultURL: srv.URL}).Notify(context.Background(), "", "x")
	NewWebhookNotifier(config.WebhookConfig{}).Notify(context.Background(), "", "x")
	NewWebhookNotifier(config.WebhookConfig{}).Notify(context.Background(), "http://127.0.0.1:1/unreachable", "x")
}
