package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/repository"
)

// identityKey is the echo context key under which the authenticated identity
// is stored by the session middleware.
const identityKey = "identity"

// Identity is the immutable result of a successful authentication: the user
// the request acts as and the session it presented. It is attached once by
// the session middleware and never mutated afterwards.
type Identity struct {
	User    repository.User
	Session repository.Session
}

// SetIdentity attaches the identity to the request context. Called only by
// the session middleware after full validation.
func SetIdentity(c echo.Context, ident Identity) {
	c.Set(identityKey, ident)
}

// CurrentIdentity returns the identity stored on the context. The boolean is
// false on routes that never passed the session middleware.
func CurrentIdentity(c echo.Context) (Identity, bool) {
	v := c.Get(identityKey)
	ident, ok := v.(Identity)
	return ident, ok
}
