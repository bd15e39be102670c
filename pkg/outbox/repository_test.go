package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tableside/pos-backend/pkg/db/dbtest"
	"github.com/tableside/pos-backend/pkg/db/models"
	"github.com/tableside/pos-backend/pkg/enums"
)

func insertEvent(t *testing.T, conn *gorm.DB, publishedAt *time.Time, attempts int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, NewRepository(conn).Insert(conn, models.OutboxEvent{
		ID:            id,
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		PublishedAt:   publishedAt,
		AttemptCount:  attempts,
	}))
	return id
}

func TestDeletePublishedBeforeKeepsPendingAndParkedRows(t *testing.T) {
	conn := dbtest.OpenSQLite(t, "outbox_retention")
	repo := NewRepository(conn)
	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)
	recent := now.Add(-time.Hour)

	insertEvent(t, conn, &old, 1)
	recentID := insertEvent(t, conn, &recent, 1)
	pendingID := insertEvent(t, conn, nil, 0)
	parkedID := insertEvent(t, conn, nil, 10)

	deleted, err := repo.DeletePublishedBefore(context.Background(), conn, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []uuid.UUID
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Pluck("id", &remaining).Error)
	assert.ElementsMatch(t, []uuid.UUID{recentID, pendingID, parkedID}, remaining)

	pending, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)
}

func TestDeletePublishedBeforeRequiresTx(t *testing.T) {
	_, err := NewRepository(nil).DeletePublishedBefore(context.Background(), nil, time.Now())
	assert.Error(t, err)
}
