// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-catalog-api/internal/auth"
	"github.com/iliyamo/movie-catalog-api/internal/handler"
	"github.com/iliyamo/movie-catalog-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, deps map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health(deps))
}

// RegisterAuth registers register, login and logout under /api.  Login
// checks credentials with the local authenticator held by the handler; none
// of these routes sit behind the gate.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/api")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/logout", a.Logout)
}

// RegisterMovies registers the catalog.  Reads are public and cached;
// mutations go through the gate, which uses gate to resolve the caller, and
// purge the cache when they succeed.
func RegisterMovies(e *echo.Echo, m *handler.MovieHandler, gate auth.Authenticator, cache *middleware.ResponseCache, log logrus.FieldLogger) {
	g := e.Group("/api")

	g.GET("/list", m.List, cache.Read())
	g.GET("/find/:id", m.Find, cache.Read())

	guard := middleware.RequireAuth(gate, log)
	g.POST("/add", m.Add, guard, cache.Invalidate())
	g.PUT("/update/:id", m.Update, guard, cache.Invalidate())
	g.DELETE("/delete/:id", m.Delete, guard, cache.Invalidate())
}
