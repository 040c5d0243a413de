package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	"github.com/betchat/betchat-backend/pkg/logger"
	"github.com/betchat/betchat-backend/pkg/outbox"
	"github.com/betchat/betchat-backend/pkg/outbox/payloads"
)

const defaultEndedBatch = 50

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type dedupedEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type endedEventsReader interface {
	ListEndedUnresolved(ctx context.Context, now time.Time, limit int) ([]models.Event, error)
}

// EventEndedJobParams configure the ended-event announcer.
type EventEndedJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Events endedEventsReader
	Outbox dedupedEmitter
	Batch  int
}

// NewEventEndedJob builds the job that broadcasts event_ended for events past
// their end time that nobody has settled or cancelled yet. The emit is
// deduplicated per event, so the sweep can visit the same event every cycle
// until an admin settles it.
func NewEventEndedJob(params EventEndedJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("events reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultEndedBatch
	}
	return &eventEndedJob{
		logg:   params.Logger,
		db:     params.DB,
		events: params.Events,
		outbox: params.Outbox,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type eventEndedJob struct {
	logg   *logger.Logger
	db     txRunner
	events endedEventsReader
	outbox dedupedEmitter
	batch  int
	now    func() time.Time
}

func (j *eventEndedJob) Name() string { return "event-ended" }

func (j *eventEndedJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	rows, err := j.events.ListEndedUnresolved(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("query ended events: %w", err)
	}

	announced := 0
	var errs []error
	for _, event := range rows {
		if err := j.announce(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("event %s: %w", event.ID, err))
			continue
		}
		announced++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": announced})
	j.logg.Info(logCtx, "ended event sweep complete")
	return multierr.Combine(errs...)
}

func (j *eventEndedJob) announce(ctx context.Context, event models.Event) error {
	var poolTotal int64
	if event.Pool != nil {
		poolTotal = event.Pool.TotalKobo
	}
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventEnded,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Version:       1,
			Data: payloads.EventEndedEvent{
				EventID:       event.ID,
				EndedAt:       event.EndTime,
				PoolTotalKobo: poolTotal,
			},
		})
	})
}
