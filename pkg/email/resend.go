package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultResendAPIURL = "https://api.resend.com/emails"

// ResendProvider sends mail through the Resend HTTP API using a bearer token.
type ResendProvider struct {
	apiKey  string
	apiURL  string
	from    string
	replyTo string
	client  *http.Client
}

// NewResendProvider creates a Resend provider from configuration.
func NewResendProvider(cfg Config) *ResendProvider {
	apiURL := cfg.Resend.APIURL
	if apiURL == "" {
		apiURL = defaultResendAPIURL
	}

	from := cfg.From
	if from == "" {
		from = defaultFrom
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &ResendProvider{
		apiKey:  cfg.Resend.APIKey,
		apiURL:  apiURL,
		from:    from,
		replyTo: cfg.ReplyTo,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *ResendProvider) Name() string {
	return ProviderResend
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Send implements Provider.
func (p *ResendProvider) Send(ctx context.Context, msg Message) Result {
	if p.apiKey == "" {
		return Result{
			Skipped:  true,
			Error:    "resend API key is not configured",
			Provider: p.Name(),
		}
	}

	from := msg.From
	if from == "" {
		from = p.from
	}

	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = p.replyTo
	}

	body, err := json.Marshal(resendRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: replyTo,
	})
	if err != nil {
		return Result{Error: fmt.Sprintf("marshal request: %v", err), Provider: p.Name()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return Result{Error: fmt.Sprintf("build request: %v", err), Provider: p.Name()}
	}

	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{Error: err.Error(), Provider: p.Name()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{
			Error:    fmt.Sprintf("resend API request failed (%d): %s", resp.StatusCode, errText),
			Provider: p.Name(),
		}
	}

	return Result{Success: true, Provider: p.Name()}
}
