// Package queue defines the catalog activity events exchanged over the
// message broker, with the publisher used by the API and the consumer run
// by cmd/activitylog.
package queue

// Event types.
const (
	ReviewCreated = "review.created"
	ReviewDeleted = "review.deleted"
	MovieDeleted  = "movie.deleted"
)

// DefaultQueue is the durable queue events are routed to.
const DefaultQueue = "catalog.activity"

// ActivityEvent is published after a successful catalog mutation.  It
// carries enough context for a consumer to log or notify without querying
// the store.
type ActivityEvent struct {
	Type           string  `json:"type"`
	ActorID        string  `json:"actor_id"`
	MovieID        string  `json:"movie_id"`
	MovieTitle     string  `json:"movie_title,omitempty"`
	ReviewID       string  `json:"review_id,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	RemovedReviews int     `json:"removed_reviews,omitempty"`
	OccurredAt     string  `json:"occurred_at"`
}
