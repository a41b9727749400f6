package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-catalog-api/internal/model"
)

// MovieRepo encapsulates all database queries related to movies.  List
// fields are stored as JSON arrays.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo wraps db.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = `id, movie_id, title, studio, genres, directors, writers, actors,
	length, year, short_description, mpa_rating, critics_rating`

// ValidateMovie reports the required fields m is missing, if any, as a
// *ValidationError.
func ValidateMovie(m *model.Movie) error {
	var missing []string
	for _, f := range []struct {
		name string
		ok   bool
	}{
		{"movieID", strings.TrimSpace(m.MovieID) != ""},
		{"title", strings.TrimSpace(m.Title) != ""},
		{"studio", strings.TrimSpace(m.Studio) != ""},
		{"genres", len(m.Genres) > 0},
		{"directors", len(m.Directors) > 0},
		{"length", m.Length > 0},
		{"year", m.Year > 0},
		{"shortDescription", strings.TrimSpace(m.ShortDescription) != ""},
		{"mpaRating", strings.TrimSpace(m.MPARating) != ""},
	} {
		if !f.ok {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ListAll returns every movie ordered by title.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY title, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a movie by its id or returns ErrNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id)
	m, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// Create validates and inserts m.  m.ID must already be assigned.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	if err := ValidateMovie(m); err != nil {
		return err
	}
	args, err := movieArgs(m)
	if err != nil {
		return err
	}
	const q = `INSERT INTO movies (movie_id, title, studio, genres, directors, writers, actors,
		length, year, short_description, mpa_rating, critics_rating, id)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
	if _, err := r.db.ExecContext(ctx, q, append(args, m.ID)...); err != nil {
		return translate(err)
	}
	return nil
}

// Replace overwrites every field of the movie with m.ID.  It returns
// ErrNotFound when no row has that id.
func (r *MovieRepo) Replace(ctx context.Context, m *model.Movie) error {
	if err := ValidateMovie(m); err != nil {
		return err
	}
	args, err := movieArgs(m)
	if err != nil {
		return err
	}
	const q = `UPDATE movies SET movie_id = ?, title = ?, studio = ?, genres = ?, directors = ?,
		writers = ?, actors = ?, length = ?, year = ?, short_description = ?, mpa_rating = ?,
		critics_rating = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, append(args, m.ID)...)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the movie with id.  It returns ErrNotFound when no row has
// that id.
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// movieArgs returns the column values of m in insert/update order, id
// excluded.
func movieArgs(m *model.Movie) ([]any, error) {
	lists := make([][]byte, 0, 4)
	for _, l := range [][]string{m.Genres, m.Directors, m.Writers, m.Actors} {
		if l == nil {
			l = []string{}
		}
		b, err := json.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("encode list: %w", err)
		}
		lists = append(lists, b)
	}
	return []any{
		m.MovieID, m.Title, m.Studio, lists[0], lists[1], lists[2], lists[3],
		m.Length, m.Year, m.ShortDescription, m.MPARating, m.CriticsRating,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (*model.Movie, error) {
	var m model.Movie
	var genres, directors, writers, actors []byte
	if err := s.Scan(&m.ID, &m.MovieID, &m.Title, &m.Studio, &genres, &directors, &writers, &actors,
		&m.Length, &m.Year, &m.ShortDescription, &m.MPARating, &m.CriticsRating); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw []byte
		dst *[]string
	}{{genres, &m.Genres}, {directors, &m.Directors}, {writers, &m.Writers}, {actors, &m.Actors}} {
		*f.dst = []string{}
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode list for movie %s: %w", m.ID, err)
		}
	}
	return &m, nil
}
