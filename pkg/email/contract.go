// Package email delivers notification emails through a pluggable provider.
//
// A provider reports one of three outcomes per message: delivered, skipped
// (provider not configured; nothing was attempted) or failed (provider or
// transport error). Skipped is not a failure and must not be retried.
package email

import (
	"context"
	"time"
)

// Provider names accepted in configuration.
const (
	ProviderResend  = "resend"
	ProviderMailgun = "mailgun"
	ProviderSMTP    = "smtp"
)

const defaultFrom = "Torsdagskos <onboarding@resend.dev>"

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	From    string // optional, falls back to the configured sender
	ReplyTo string // optional
}

// Result is the outcome of a single send attempt.
type Result struct {
	Success  bool
	Skipped  bool
	Error    string
	Provider string
}

// Provider sends a single message. Implementations never return an error;
// every expected failure mode resolves into the Result.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) Result
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	From     string
	ReplyTo  string
	Timeout  time.Duration

	Resend  ResendConfig
	Mailgun MailgunConfig
	SMTP    SMTPConfig
}

// ResendConfig holds Resend HTTP API credentials.
type ResendConfig struct {
	APIKey string
	APIURL string
}

// MailgunConfig holds Mailgun HTTP API credentials.
type MailgunConfig struct {
	APIKey string
	Domain string
	APIURL string
}

// SMTPConfig holds plain SMTP relay credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}
