package email

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultMailgunAPIURL = "https://api.mailgun.net/v3"

// MailgunProvider sends mail through the Mailgun HTTP API using basic auth
// and a form-encoded body.
type MailgunProvider struct {
	apiKey  string
	domain  string
	apiURL  string
	from    string
	replyTo string
	client  *http.Client
}

// NewMailgunProvider creates a Mailgun provider from configuration.
func NewMailgunProvider(cfg Config) *MailgunProvider {
	apiURL := cfg.Mailgun.APIURL
	if apiURL == "" {
		apiURL = defaultMailgunAPIURL
	}

	from := cfg.From
	if from == "" {
		from = defaultFrom
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &MailgunProvider{
		apiKey:  cfg.Mailgun.APIKey,
		domain:  cfg.Mailgun.Domain,
		apiURL:  apiURL,
		from:    from,
		replyTo: cfg.ReplyTo,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *MailgunProvider) Name() string {
	return ProviderMailgun
}

// Send implements Provider.
func (p *MailgunProvider) Send(ctx context.Context, msg Message) Result {
	if p.apiKey == "" || p.domain == "" {
		return Result{
			Skipped:  true,
			Error:    "mailgun API key or domain is not configured",
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

	form := url.Values{}
	form.Set("from", from)
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("html", msg.HTML)
	form.Set("text", msg.Text)
	if replyTo != "" {
		form.Set("h:Reply-To", replyTo)
	}

	endpoint := strings.TrimRight(p.apiURL, "/") + "/" + p.domain + "/messages"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Error: fmt.Sprintf("build request: %v", err), Provider: p.Name()}
	}

	req.SetBasicAuth("api", p.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{Error: err.Error(), Provider: p.Name()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{
			Error:    fmt.Sprintf("mailgun API request failed (%d): %s", resp.StatusCode, errText),
			Provider: p.Name(),
		}
	}

	return Result{Success: true, Provider: p.Name()}
}
