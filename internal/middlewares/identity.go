package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/torsdagskos/backend/internal/api/respond"
)

const (
	headerMemberEmail = "X-Member-Email"
	headerMemberName  = "X-Member-Name"

	identityKey = "member_identity"
)

// Identity is the authenticated member carried on the request context. The
// auth proxy in front of the API verifies membership and forwards the
// identity headers; the API trusts them.
type Identity struct {
	Email string
	Name  string
}

// RequireMember rejects requests that carry no member identity headers and
// stores the identity for handlers to read via IdentityFrom.
func RequireMember() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		email := strings.TrimSpace(c.GetHeader(headerMemberEmail))
		if email == "" {
			zlog.Logger.Warn().
				Str("path", c.Request.URL.Path).
				Msg("request without member identity")
			respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
			c.Abort()
			return
		}

		c.Set(identityKey, Identity{
			Email: strings.ToLower(email),
			Name:  strings.TrimSpace(c.GetHeader(headerMemberName)),
		})
		c.Next()
	}
}

// IdentityFrom returns the member identity stored by RequireMember.
func IdentityFrom(c *ginext.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}

	id, ok := v.(Identity)

	return id, ok
}
