package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-catalog-api/internal/auth"
	"github.com/iliyamo/movie-catalog-api/internal/model"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/service"
)

// Catalog is the movie service as the handlers see it.
type Catalog interface {
	List(ctx context.Context) ([]model.Movie, error)
	FindByID(ctx context.Context, id string) (*model.Movie, error)
	Create(ctx context.Context, actor *model.User, in model.MovieInput) (*model.Movie, error)
	Update(ctx context.Context, actor *model.User, id string, in model.MovieInput) (*model.Movie, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

// MovieHandler serves the catalog endpoints.  Mutating routes sit behind
// the authorization gate, which binds the acting user.
type MovieHandler struct {
	Movies Catalog
	Log    logrus.FieldLogger
}

// NewMovieHandler serves movies through the catalog service.
func NewMovieHandler(movies Catalog, log logrus.FieldLogger) *MovieHandler {
	return &MovieHandler{Movies: movies, Log: log}
}

// List: GET /api/list
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		h.Log.WithError(err).Error("movie list failed")
		return fail(c, http.StatusInternalServerError, "ERROR: Something Went Wrong")
	}
	return ok(c, http.StatusOK, "Movie List Displayed Successfully", movies)
}

// Find: GET /api/find/:id
func (h *MovieHandler) Find(c echo.Context) error {
	m, err := h.Movies.FindByID(c.Request().Context(), c.Param("id"))
	switch {
	case err == nil:
		return ok(c, http.StatusOK, "Movie Retrieved by ID Successfully", m)
	case errors.Is(err, service.ErrMalformedID):
		return fail(c, http.StatusBadRequest, "ERROR: Movie ID not formatted correctly")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "Movie ID Not Found")
	default:
		h.Log.WithError(err).WithField("id", c.Param("id")).Error("movie find failed")
		return fail(c, http.StatusInternalServerError, "ERROR: Something Went Wrong")
	}
}

// Add: POST /api/add
func (h *MovieHandler) Add(c echo.Context) error {
	var in model.MovieInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "ERROR: Movie Not Added.")
	}
	actor, _ := auth.UserFrom(c)

	m, err := h.Movies.Create(c.Request().Context(), actor, in)
	if err != nil {
		if errors.Is(err, repository.ErrValidation) {
			return fail(c, http.StatusBadRequest, "ERROR: Movie Not Added. All Fields are required")
		}
		h.Log.WithError(err).Error("movie add failed")
		return fail(c, http.StatusBadRequest, "ERROR: Movie Not Added.")
	}
	return ok(c, http.StatusOK, "Movie Added Successfully", m)
}

// Update: PUT /api/update/:id
func (h *MovieHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var in model.MovieInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "ERROR: Movie Not Updated.")
	}
	actor, _ := auth.UserFrom(c)

	m, err := h.Movies.Update(c.Request().Context(), actor, id, in)
	switch {
	case err == nil:
		return ok(c, http.StatusOK, "Movie Updated Successfully", m)
	case errors.Is(err, service.ErrMalformedID):
		return fail(c, http.StatusBadRequest, "ERROR: Movie ID not formatted correctly")
	case errors.Is(err, repository.ErrValidation):
		return fail(c, http.StatusBadRequest, "ERROR: Movie Not Updated. All Fields are required")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "Movie ID Not Found")
	default:
		h.Log.WithError(err).WithField("id", id).Error("movie update failed")
		return fail(c, http.StatusBadRequest, "ERROR: Movie Not Updated.")
	}
}

// Delete: DELETE /api/delete/:id
func (h *MovieHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	actor, _ := auth.UserFrom(c)

	err := h.Movies.Delete(c.Request().Context(), actor, id)
	switch {
	case err == nil:
		return ok(c, http.StatusOK, "Movie Deleted Successfully", id)
	case errors.Is(err, service.ErrMalformedID):
		return fail(c, http.StatusBadRequest, "ERROR: Movie ID not formatted correctly")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "Movie ID Not Found")
	default:
		h.Log.WithError(err).WithField("id", id).Error("movie delete failed")
		return fail(c, http.StatusInternalServerError, "ERROR: Something Went Wrong")
	}
}
