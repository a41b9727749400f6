package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-catalog-api/internal/auth"
)

// RequireAuth admits a request only when a resolves its identity; the user
// is then bound to the context for the handler.  A rejection is answered
// with 401 and a store failure with 500.  In neither case is next called.
func RequireAuth(a auth.Authenticator, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := a.Authenticate(c)
			if err != nil {
				if auth.IsRejection(err) {
					log.WithField("authenticator", a.Name()).
						WithField("path", c.Request().URL.Path).
						WithField("reason", err.Error()).
						Debug("request rejected")
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"success": false, "msg": "Unauthorized", "data": nil,
					})
				}
				log.WithError(err).WithField("authenticator", a.Name()).Error("authentication failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"success": false, "msg": "ERROR: Something Went Wrong", "data": nil,
				})
			}
			auth.SetUser(c, u)
			return next(c)
		}
	}
}
