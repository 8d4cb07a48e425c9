package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_ProviderSelection(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     string
	}{
		{name: "resend", provider: "resend", want: ProviderResend},
		{name: "mailgun", provider: "mailgun", want: ProviderMailgun},
		{name: "smtp", provider: "smtp", want: ProviderSMTP},
		{name: "empty defaults to resend", provider: "", want: ProviderResend},
		{name: "unknown defaults to resend", provider: "sendgrid", want: ProviderResend},
		{name: "case and whitespace insensitive", provider: "  Mailgun ", want: ProviderMailgun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{Provider: tt.provider})
			assert.Equal(t, tt.want, p.Name())
		})
	}
}
