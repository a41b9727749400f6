package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/model"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/utils"
)

// LocalAuthenticator checks a username and password against the
// credential store.
type LocalAuthenticator struct {
	Users UserFinder
}

// NewLocalAuthenticator checks posted credentials against users.
func NewLocalAuthenticator(users UserFinder) *LocalAuthenticator {
	return &LocalAuthenticator{Users: users}
}

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Name identifies the authenticator in logs.
func (a *LocalAuthenticator) Name() string { return "local" }

// Authenticate reads username and password from the request body.
func (a *LocalAuthenticator) Authenticate(c echo.Context) (*model.User, error) {
	var cred credentials
	if err := c.Bind(&cred); err != nil {
		return nil, ErrInvalidCredentials
	}
	return a.Verify(c.Request().Context(), cred.Username, cred.Password)
}

// Verify returns the user whose stored hash matches password.
func (a *LocalAuthenticator) Verify(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := a.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up %q: %w", username, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
