package email

import (
	"context"
	"time"

	mail "gopkg.in/mail.v2"
)

// SMTPProvider sends mail through a plain SMTP relay. Useful for self-hosted
// deployments that have no HTTP email API account.
type SMTPProvider struct {
	host     string
	port     int
	username string
	password string
	from     string
	replyTo  string
	timeout  time.Duration
}

// NewSMTPProvider creates an SMTP provider from configuration.
func NewSMTPProvider(cfg Config) *SMTPProvider {
	from := cfg.From
	if from == "" {
		from = defaultFrom
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &SMTPProvider{
		host:     cfg.SMTP.Host,
		port:     cfg.SMTP.Port,
		username: cfg.SMTP.Username,
		password: cfg.SMTP.Password,
		from:     from,
		replyTo:  cfg.ReplyTo,
		timeout:  timeout,
	}
}

// Name implements Provider.
func (p *SMTPProvider) Name() string {
	return ProviderSMTP
}

// Send implements Provider. The SMTP dialer has no context support; the
// dialer's own timeout bounds the call instead.
func (p *SMTPProvider) Send(_ context.Context, msg Message) Result {
	if p.host == "" {
		return Result{
			Skipped:  true,
			Error:    "SMTP host is not configured",
			Provider: p.Name(),
		}
	}

	from := msg.From
	if from == "" {
		from = p.from
	}

	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = p.replyTo
	}
	if replyTo != "" {
		m.SetHeader("Reply-To", replyTo)
	}

	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	d := mail.NewDialer(p.host, p.port, p.username, p.password)
	d.Timeout = p.timeout

	if err := d.DialAndSend(m); err != nil {
		return Result{Error: err.Error(), Provider: p.Name()}
	}

	return Result{Success: true, Provider: p.Name()}
}
