// Package webpush delivers browser push notifications over the Web Push
// protocol with VAPID authentication.
package webpush

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Config holds VAPID keys and delivery options. It is built once at startup
// and passed in explicitly; there is no lazily initialized global state.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string // mailto: or https: contact required by push services
	TTL             int    // seconds the push service may hold the message
	Timeout         time.Duration
}

// Payload is the message shown by the service worker. URL points at the event
// detail page the click should open.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Result is the outcome of a single push send. Expired signals that the
// subscription endpoint is gone (HTTP 404/410) and should be dropped by the
// caller; it is not a delivery failure.
type Result struct {
	Success bool
	Skipped bool
	Expired bool
	Error   string
}

// Sender sends web push messages to stored browser subscriptions.
type Sender struct {
	cfg    Config
	client *http.Client
}

// NewSender creates a Sender from configuration.
func NewSender(cfg Config) *Sender {
	if cfg.TTL == 0 {
		cfg.TTL = 60
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Sender{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether all VAPID settings are present. When false every
// Send short-circuits to a skipped result without a network call.
func (s *Sender) Configured() bool {
	return s.cfg.VAPIDPublicKey != "" && s.cfg.VAPIDPrivateKey != "" && s.cfg.Subject != ""
}

// Send delivers one payload to one stored subscription blob.
func (s *Sender) Send(ctx context.Context, subscriptionJSON string, p Payload) Result {
	if !s.Configured() {
		return Result{Skipped: true, Error: "push delivery is not configured"}
	}

	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(subscriptionJSON), &sub); err != nil {
		return Result{Error: fmt.Sprintf("invalid push subscription: %v", err)}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return Result{Error: fmt.Sprintf("marshal payload: %v", err)}
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &sub, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subject,
		TTL:             s.cfg.TTL,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
	})
	if err != nil {
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()

	// Drain so the keep-alive connection can be reused by the next send in
	// the fan-out.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return Result{Expired: true, Error: fmt.Sprintf("push endpoint gone (%d)", resp.StatusCode)}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Result{Success: true}
	default:
		return Result{Error: fmt.Sprintf("push request failed (%d)", resp.StatusCode)}
	}
}
