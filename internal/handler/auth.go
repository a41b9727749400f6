package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-catalog-api/internal/auth"
	"github.com/iliyamo/movie-catalog-api/internal/model"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/service"
	"github.com/iliyamo/movie-catalog-api/internal/session"
	"github.com/iliyamo/movie-catalog-api/internal/utils"
)

// Registrar creates identities.
type Registrar interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(u *model.User) (utils.AccessToken, error)
}

// SessionStore keeps login sessions and signs the cookie naming them.
type SessionStore interface {
	Create(ctx context.Context, userID uint64) (*model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	Destroy(ctx context.Context, id string) error
	Sign(id string) string
	Verify(value string) (string, bool)
	TTL() time.Duration
}

// AuthHandler bundles dependencies for the register, login and logout
// endpoints.  Local is the authenticator login runs; routes pick it, so a
// login never accepts a bearer token in place of a password.
type AuthHandler struct {
	Registrar    Registrar
	Local        auth.Authenticator
	Tokens       TokenIssuer
	Sessions     SessionStore
	CookieName   string
	SecureCookie bool
	Log          logrus.FieldLogger
}

// Register: POST /api/register.  Every outcome is an envelope; the reason a
// registration failed beyond missing fields is only logged.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "ERROR: User Not Registered. All Fields Are Required")
	}

	if _, err := h.Registrar.Register(c.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, repository.ErrValidation):
			return fail(c, http.StatusBadRequest, "ERROR: User Not Registered. All Fields Are Required")
		case errors.Is(err, repository.ErrUsernameExists):
			return fail(c, http.StatusConflict, "User not Registered Successfully!")
		default:
			return fail(c, http.StatusInternalServerError, "User not Registered Successfully!")
		}
	}
	return ok(c, http.StatusOK, "User Registered Successfully!", nil)
}

// Login: POST /api/login.  On success the caller holds both a session
// cookie and a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	c.SetRequest(c.Request().WithContext(ctx))

	u, err := h.Local.Authenticate(c)
	if err != nil {
		if auth.IsRejection(err) {
			h.Log.WithField("authenticator", h.Local.Name()).Info("login: rejected")
			return fail(c, http.StatusUnauthorized, "ERROR: User Not Logged in.")
		}
		h.Log.WithError(err).Error("login: credential lookup failed")
		return fail(c, http.StatusInternalServerError, "ERROR: User Not Logged in.")
	}

	// One session per login: whatever the incoming cookie pointed at is gone.
	h.destroySession(ctx, c)

	sess, err := h.Sessions.Create(ctx, u.ID)
	if err != nil {
		h.Log.WithError(err).Error("login: session create failed")
		return fail(c, http.StatusInternalServerError, "ERROR: User Not Logged in.")
	}
	tok, err := h.Tokens.Issue(u)
	if err != nil {
		_ = h.Sessions.Destroy(ctx, sess.ID)
		h.Log.WithError(err).Error("login: token issue failed")
		return fail(c, http.StatusInternalServerError, "ERROR: User Not Logged in.")
	}

	c.SetCookie(h.cookie(h.Sessions.Sign(sess.ID), sess.ExpiresAt, int(h.Sessions.TTL().Seconds())))
	h.Log.WithField("user_id", u.ID).Info("login: ok")

	return c.JSON(http.StatusOK, loginEnvelope{
		envelope: envelope{Success: true, Msg: "User Logged In Successfully!"},
		User:     u,
		Token:    tok.Token,
	})
}

// Logout: GET /api/logout.  Succeeds whether or not a session exists.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if sess := h.destroySession(ctx, c); sess != nil {
		h.Log.WithField("user_id", sess.UserID).Info("logout: session ended")
	} else {
		h.Log.Debug("logout: no active session")
	}
	c.SetCookie(h.cookie("", time.Unix(0, 0), -1))
	return ok(c, http.StatusOK, "User Logged out Successfully!", nil)
}

// destroySession resolves the session named by the request cookie and
// removes it.  It returns the session that was ended, or nil when the cookie
// is absent, forged, or names a session that no longer exists.
func (h *AuthHandler) destroySession(ctx context.Context, c echo.Context) *model.Session {
	ck, err := c.Cookie(h.CookieName)
	if err != nil {
		return nil
	}
	id, valid := h.Sessions.Verify(ck.Value)
	if !valid {
		h.Log.Debug("session cookie signature mismatch")
		return nil
	}
	sess, err := h.Sessions.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			h.Log.WithError(err).Warn("session lookup failed")
		}
	}
	// The key is removed even when the read failed.
	if err := h.Sessions.Destroy(ctx, id); err != nil {
		h.Log.WithError(err).Warn("session destroy failed")
	}
	return sess
}

func (h *AuthHandler) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
