package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
	"github.com/sharonlnl728/content-audit-platform/internal/session"
)

const (
	// UserInfoHeader carries the identity blob forwarded by the gateway.
	UserInfoHeader = "X-User-Info"
	// IdentityLocalKey stores the resolved model.Identity in Fiber locals.
	IdentityLocalKey = "identity"
)

// Identity resolves the caller from X-User-Info or, failing that, from an
// "Authorization: Bearer" token looked up in store. Requests without either
// pass through unauthenticated and are rejected by the audit service.
// A malformed identity or an unknown token is answered with 401.
func Identity(store session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if blob := c.Get(UserInfoHeader); blob != "" {
			id, err := model.DecodeIdentity([]byte(blob))
			if err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid user info")
			}
			c.Locals(IdentityLocalKey, id)
			return c.Next()
		}

		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" || store == nil {
			return c.Next()
		}

		id, err := store.Lookup(c.UserContext(), token)
		switch {
		case errors.Is(err, session.ErrUnknownToken), errors.Is(err, model.ErrInvalidIdentity):
			return fiber.NewError(fiber.StatusUnauthorized, "token expired or invalid")
		case err != nil:
			return fiber.NewError(fiber.StatusServiceUnavailable, "session store unavailable")
		}
		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by Identity, if any.
func IdentityFrom(c *fiber.Ctx) (model.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(model.Identity)
	return id, ok && id.Valid()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
