package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-catalog-api/internal/model"
	q "github.com/iliyamo/movie-catalog-api/internal/queue"
)

// ErrMalformedID is returned when a movie id is not a valid record id.  It
// is distinct from repository.ErrNotFound, which means well formed but
// absent.
var ErrMalformedID = errors.New("malformed movie id")

// MovieStore is the persistence the catalog needs.
type MovieStore interface {
	ListAll(ctx context.Context) ([]model.Movie, error)
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	Replace(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id string) error
}

// MovieService implements the catalog operations.  Mutations publish a
// CatalogEvent once the store has accepted them.
type MovieService struct {
	Movies  MovieStore
	Events  EventPublisher
	Log     logrus.FieldLogger
	Timeout time.Duration

	newID func() string
	now   func() time.Time
}

// NewMovieService stores movies in movies and announces changes on events.
// A nil events drops them.
func NewMovieService(movies MovieStore, events EventPublisher, log logrus.FieldLogger) *MovieService {
	if events == nil {
		events = NopPublisher{}
	}
	return &MovieService{
		Movies:  movies,
		Events:  events,
		Log:     log,
		Timeout: 5 * time.Second,
		newID:   func() string { return xid.New().String() },
		now:     time.Now,
	}
}

// ValidID reports whether id has the shape of a record id.
func ValidID(id string) bool {
	_, err := xid.FromString(id)
	return err == nil
}

// List returns every movie; an empty catalog is an empty, non-nil slice.
func (s *MovieService) List(ctx context.Context) ([]model.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	return s.Movies.ListAll(ctx)
}

// FindByID returns one movie, ErrMalformedID or repository.ErrNotFound.
func (s *MovieService) FindByID(ctx context.Context, id string) (*model.Movie, error) {
	if !ValidID(id) {
		return nil, ErrMalformedID
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	return s.Movies.GetByID(ctx, id)
}

// Create assigns a fresh id, normalizes the list fields and stores the
// record.  The returned movie is the record as built.
func (s *MovieService) Create(ctx context.Context, actor *model.User, in model.MovieInput) (*model.Movie, error) {
	m := in.Movie(s.newID())

	sctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.Movies.Create(sctx, &m); err != nil {
		return nil, err
	}
	s.publish(ctx, q.MovieCreated, m.ID, m.Title, actor)
	return &m, nil
}

// Update replaces every field of the movie stored under id.
func (s *MovieService) Update(ctx context.Context, actor *model.User, id string, in model.MovieInput) (*model.Movie, error) {
	if !ValidID(id) {
		return nil, ErrMalformedID
	}
	m := in.Movie(id)

	sctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.Movies.Replace(sctx, &m); err != nil {
		return nil, err
	}
	s.publish(ctx, q.MovieUpdated, m.ID, m.Title, actor)
	return &m, nil
}

// Delete removes the movie stored under id.
func (s *MovieService) Delete(ctx context.Context, actor *model.User, id string) error {
	if !ValidID(id) {
		return ErrMalformedID
	}
	sctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.Movies.Delete(sctx, id); err != nil {
		return err
	}
	s.publish(ctx, q.MovieDeleted, id, "", actor)
	return nil
}

func (s *MovieService) publish(ctx context.Context, typ, movieID, title string, actor *model.User) {
	ev := q.CatalogEvent{
		Type:       typ,
		MovieID:    movieID,
		Title:      title,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	}
	if actor != nil {
		ev.ActorID = actor.ID
		ev.Actor = actor.Username
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Log.WithError(err).WithField("event", typ).WithField("movie_id", movieID).
			Warn("catalog event not published")
	}
}
