package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	"github.com/betchat/betchat-backend/pkg/logger"
	"github.com/betchat/betchat-backend/pkg/outbox"
)

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeEndedReader struct {
	rows []models.Event
	err  error
}

func (f *fakeEndedReader) ListEndedUnresolved(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	return f.rows, f.err
}

type fakeDedupedEmitter struct {
	seen    map[uuid.UUID]bool
	emitted []outbox.DomainEvent
	err     error
}

func (f *fakeDedupedEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	if f.seen == nil {
		f.seen = map[uuid.UUID]bool{}
	}
	if f.seen[event.AggregateID] {
		return nil
	}
	f.seen[event.AggregateID] = true
	f.emitted = append(f.emitted, event)
	return nil
}

func endedRow(now time.Time) models.Event {
	return models.Event{
		ID:        uuid.New(),
		Title:     "finished",
		Category:  "sports",
		CreatorID: uuid.New(),
		StartTime: now.Add(-3 * time.Hour),
		EndTime:   now.Add(-time.Hour),
		Pool:      &models.Pool{TotalKobo: 40000, YesKobo: 25000, NoKobo: 15000},
	}
}

func newEndedJob(t *testing.T, reader *fakeEndedReader, emitter *fakeDedupedEmitter) Job {
	t.Helper()
	job, err := NewEventEndedJob(EventEndedJobParams{
		Logger: logger.New(logger.Options{ServiceName: "lifecycle-test"}),
		DB:     &fakeTxRunner{},
		Events: reader,
		Outbox: emitter,
	})
	require.NoError(t, err)
	return job
}

func TestEventEndedJobAnnouncesOncePerEvent(t *testing.T) {
	now := time.Now().UTC()
	row := endedRow(now)
	reader := &fakeEndedReader{rows: []models.Event{row}}
	emitter := &fakeDedupedEmitter{}
	job := newEndedJob(t, reader, emitter)

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, emitter.emitted, 1)
	assert.Equal(t, enums.EventEventEnded, emitter.emitted[0].EventType)
	assert.Equal(t, row.ID, emitter.emitted[0].AggregateID)

	// The event stays unresolved until settled; the next sweep must not
	// announce it again.
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, emitter.emitted, 1)
}

func TestEventEndedJobContinuesPastFailures(t *testing.T) {
	now := time.Now().UTC()
	reader := &fakeEndedReader{rows: []models.Event{endedRow(now), endedRow(now)}}
	emitter := &fakeDedupedEmitter{err: errors.New("outbox unavailable")}
	job := newEndedJob(t, reader, emitter)

	err := job.Run(context.Background())
	require.Error(t, err)
}

func TestEventEndedJobReaderFailure(t *testing.T) {
	reader := &fakeEndedReader{err: errors.New("db down")}
	job := newEndedJob(t, reader, &fakeDedupedEmitter{})

	require.Error(t, job.Run(context.Background()))
}
