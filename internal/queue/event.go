// Package queue defines message payloads exchanged over the message broker.
package queue

// CatalogQueueName is the durable queue catalog changes are published to.
const CatalogQueueName = "catalog.changed"

// Catalog event types.
const (
	MovieCreated = "movie.created"
	MovieUpdated = "movie.updated"
	MovieDeleted = "movie.deleted"
)

// CatalogEvent is published after a movie is created, updated or deleted.
// It carries enough for an audit trail without querying the database.
type CatalogEvent struct {
	Type       string `json:"type"`
	MovieID    string `json:"movie_id"`
	Title      string `json:"title,omitempty"`
	ActorID    uint64 `json:"actor_id"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurred_at"`
}
