package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/model"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/utils"
)

// BearerAuthenticator issues signed tokens at login and verifies them on
// protected requests.  The token is stateless; the only lookup is resolving
// the user it names, which completes before the request is admitted.
type BearerAuthenticator struct {
	Users  UserFinder
	Secret string
	TTL    time.Duration
}

// NewBearerAuthenticator signs tokens with secret that expire after ttl and
// resolves them against users.
func NewBearerAuthenticator(users UserFinder, secret string, ttl time.Duration) *BearerAuthenticator {
	return &BearerAuthenticator{Users: users, Secret: secret, TTL: ttl}
}

// Name identifies the authenticator in logs.
func (a *BearerAuthenticator) Name() string { return "jwt" }

// Issue signs a token for u.
func (a *BearerAuthenticator) Issue(u *model.User) (utils.AccessToken, error) {
	return utils.NewAccessToken(a.Secret, u, a.TTL)
}

// Authenticate verifies the token in the Authorization header.
func (a *BearerAuthenticator) Authenticate(c echo.Context) (*model.User, error) {
	raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil, ErrMissingToken
	}
	return a.Verify(c.Request().Context(), raw)
}

// Verify checks the signature and expiry of raw, then loads the user it
// names.
func (a *BearerAuthenticator) Verify(ctx context.Context, raw string) (*model.User, error) {
	claims, err := utils.ParseAccessToken(a.Secret, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	u, err := a.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownIdentity
		}
		return nil, fmt.Errorf("resolve token user %d: %w", id, err)
	}
	return u, nil
}

// bearerToken extracts the token from an Authorization header value.  The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
