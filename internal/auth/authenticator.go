// Package auth holds the two ways a request proves who it is: a username
// and password checked against the credential store, and a signed bearer
// token.  Routes pick the authenticator they need explicitly.
package auth

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/model"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingToken means no usable Authorization: Bearer header.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken covers bad signatures, expiry and malformed claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownIdentity means a valid token names a user that no longer
	// exists.
	ErrUnknownIdentity = errors.New("token identity not found")
)

// Authenticator resolves the identity behind a request or returns one of
// the errors above.  Any other error is a store failure.
type Authenticator interface {
	Name() string
	Authenticate(c echo.Context) (*model.User, error)
}

// UserFinder is the read side of the credential store.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

const userContextKey = "auth.user"

// SetUser binds the authenticated user to the request context.
func SetUser(c echo.Context, u *model.User) { c.Set(userContextKey, u) }

// UserFrom returns the user bound by SetUser.
func UserFrom(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(userContextKey).(*model.User)
	return u, ok && u != nil
}

// IsRejection reports whether err is an authentication failure rather than
// an infrastructure error.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrUnknownIdentity)
}
