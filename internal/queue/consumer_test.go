package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLine(t *testing.T) {
	line := FormatLine(ActivityEvent{
		Type:           MovieDeleted,
		ActorID:        "admin1",
		MovieID:        "m1",
		MovieTitle:     "Heat",
		RemovedReviews: 3,
		OccurredAt:     "2024-01-01T00:00:00Z",
	})
	assert.Equal(t, "[2024-01-01T00:00:00Z] Movie deleted | movie_id=m1 | title=\"Heat\" | removed_reviews=3 | by=admin1\n", line)

	line = FormatLine(ActivityEvent{Type: ReviewCreated, ReviewID: "r1", MovieID: "m1", ActorID: "u1", Rating: 8.5, OccurredAt: "t"})
	assert.Equal(t, "[t] Review created | review_id=r1 | movie_id=m1 | user_id=u1 | rating=8.5\n", line)
}

func TestHandleMessageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "activity.log")
	c := &Consumer{LogPath: path, Log: logrus.New()}

	require.NoError(t, c.handleMessage([]byte(`{"type":"review.deleted","review_id":"r1","movie_id":"m1","actor_id":"u1","occurred_at":"t1"}`)))
	require.NoError(t, c.handleMessage([]byte(`{"type":"review.deleted","review_id":"r2","movie_id":"m1","actor_id":"u1","occurred_at":"t2"}`)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "review_id=r1")
	assert.Contains(t, lines[1], "review_id=r2")
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := &Consumer{LogPath: filepath.Join(t.TempDir(), "a.log"), Log: logrus.New()}

	assert.Error(t, c.handleMessage([]byte(`not json`)))
	assert.Error(t, c.handleMessage([]byte(`{"movie_id":"m1"}`)))
}
