package middleware

// identity.go normalizes the claim values JWTAuth stashes in the Echo
// context into the typed Actor the services consume.  Claims arrive as
// whatever the JSON decoder produced (string or float64 depending on
// the issuer), so both shapes are accepted.

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// ErrNoIdentity is returned when the context carries no usable
// authenticated identity.
var ErrNoIdentity = errors.New("no authenticated identity in context")

func claimUint(c echo.Context, key string) (uint64, bool) {
	switch v := c.Get(key).(type) {
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	case float64:
		if v >= 0 {
			return uint64(v), true
		}
	}
	return 0, false
}

// ActorFromContext builds the identity/role context for the current
// request.  It fails when the subject or organization claim is absent
// or malformed.
func ActorFromContext(c echo.Context) (model.Actor, error) {
	userID, ok := claimUint(c, "user_id")
	if !ok {
		return model.Actor{}, ErrNoIdentity
	}
	orgID, ok := claimUint(c, "org_id")
	if !ok {
		return model.Actor{}, ErrNoIdentity
	}
	role, _ := c.Get("role").(string)
	return model.Actor{UserID: userID, OrgID: orgID, Role: role}, nil
}
