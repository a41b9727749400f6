package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog-api/internal/auth"
)

// userID returns the id of the authenticated user as a string, or "guest"
// when the request was not authenticated.
func userID(c echo.Context) string {
	if u, ok := auth.UserFrom(c); ok {
		return strconv.FormatUint(u.ID, 10)
	}
	return "guest"
}
