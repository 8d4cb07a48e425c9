package email

import (
	"strings"

	"github.com/wb-go/wbf/zlog"
)

// New resolves the configured provider name to a Provider. The choice is made
// once at process start, not per send.
//
// Empty or unrecognized names fall back to Resend with a logged warning;
// provider selection never fails the process.
func New(cfg Config) Provider {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch name {
	case ProviderMailgun:
		return NewMailgunProvider(cfg)
	case ProviderSMTP:
		return NewSMTPProvider(cfg)
	case ProviderResend, "":
		return NewResendProvider(cfg)
	default:
		zlog.Logger.Warn().Str("provider", name).Msg("unknown email provider, defaulting to resend")
		return NewResendProvider(cfg)
	}
}
