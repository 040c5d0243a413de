package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/internal/odds"
	"github.com/betchat/betchat-backend/internal/participations"
	"github.com/betchat/betchat-backend/internal/pools"
	"github.com/betchat/betchat-backend/pkg/config"
	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	pkgerrors "github.com/betchat/betchat-backend/pkg/errors"
	"github.com/betchat/betchat-backend/pkg/outbox"
	"github.com/betchat/betchat-backend/pkg/outbox/payloads"
	"github.com/betchat/betchat-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Refunder creates refund payout rows for every participant of a cancelled
// event inside the caller's transaction.
type Refunder interface {
	RefundEventTx(ctx context.Context, tx *gorm.DB, event *models.Event) (int, error)
}

// Service drives the event lifecycle: create with a zero pool, derived status
// reads, and creator cancellation with full refunds.
type Service interface {
	Create(ctx context.Context, input CreateEventInput) (*models.Event, error)
	Get(ctx context.Context, eventID uuid.UUID) (*EventDetail, error)
	List(ctx context.Context, params pagination.Params, filter ListFilter) ([]models.Event, string, error)
	PoolSnapshot(ctx context.Context, eventID uuid.UUID) (*PoolSnapshot, error)
	Cancel(ctx context.Context, eventID, actorID uuid.UUID) error
}

type service struct {
	repo    Repository
	pools   pools.Repository
	parts   participations.Repository
	tx      txRunner
	outbox  outboxPublisher
	refunds Refunder
	cfg     config.BettingConfig
	now     func() time.Time
}

// CreateEventInput captures the fields a creator submits for a new event.
type CreateEventInput struct {
	Title           string
	Description     *string
	Category        string
	Rules           *string
	CreatorID       uuid.UUID
	StartTime       time.Time
	EndTime         time.Time
	WagerAmountKobo int64
	MaxParticipants int
	IsPrivate       bool
}

// EventDetail is the read model for a single event.
type EventDetail struct {
	Event   *models.Event
	Status  enums.EventStatus
	Counts  participations.Counts
	YesOdds string
	NoOdds  string
}

// PoolSnapshot mirrors the pool read endpoint: totals, per-side participant
// counts and the current quotes.
type PoolSnapshot struct {
	TotalKobo       int64
	YesKobo         int64
	NoKobo          int64
	YesParticipants int64
	NoParticipants  int64
	YesOdds         string
	NoOdds          string
}

// NewService wires an event service.
func NewService(repo Repository, poolRepo pools.Repository, partRepo participations.Repository, tx txRunner, publisher outboxPublisher, refunds Refunder, cfg config.BettingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if poolRepo == nil {
		return nil, fmt.Errorf("pool repository required")
	}
	if partRepo == nil {
		return nil, fmt.Errorf("participation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if refunds == nil {
		return nil, fmt.Errorf("refunder required")
	}
	return &service{
		repo:    repo,
		pools:   poolRepo,
		parts:   partRepo,
		tx:      tx,
		outbox:  publisher,
		refunds: refunds,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	now := s.now()
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.Category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category required")
	}
	if !input.StartTime.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start time must be in the future")
	}
	if !input.EndTime.After(input.StartTime.Add(s.cfg.MinDuration())) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("event must run at least %s past its start", s.cfg.MinDuration()))
	}
	if input.WagerAmountKobo < s.cfg.MinStakeKobo {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("wager amount must be at least %d kobo", s.cfg.MinStakeKobo))
	}
	if input.MaxParticipants < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max participants must be at least 2")
	}
	if s.cfg.MaxParticipantsLimit > 0 && input.MaxParticipants > s.cfg.MaxParticipantsLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("max participants may not exceed %d", s.cfg.MaxParticipantsLimit))
	}

	event := &models.Event{
		ID:              uuid.New(),
		Title:           input.Title,
		Description:     input.Description,
		Category:        input.Category,
		Rules:           input.Rules,
		CreatorID:       input.CreatorID,
		StartTime:       input.StartTime.UTC(),
		EndTime:         input.EndTime.UTC(),
		WagerAmountKobo: input.WagerAmountKobo,
		MaxParticipants: input.MaxParticipants,
		IsPrivate:       input.IsPrivate,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
		}
		if err := s.pools.WithTx(tx).Create(ctx, &models.Pool{EventID: event.ID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initialize pool")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventCreated,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Actor:         &outbox.ActorRef{UserID: input.CreatorID},
			Version:       1,
			Data: payloads.EventCreatedEvent{
				EventID:         event.ID,
				CreatorID:       event.CreatorID,
				Title:           event.Title,
				WagerAmountKobo: event.WagerAmountKobo,
				StartTime:       event.StartTime,
				EndTime:         event.EndTime,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) Get(ctx context.Context, eventID uuid.UUID) (*EventDetail, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	counts, err := s.parts.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count participants")
	}
	yes, no := odds.QuotePair(event.Pool)
	return &EventDetail{
		Event:   event,
		Status:  event.StatusAt(s.now()),
		Counts:  counts,
		YesOdds: odds.Format(yes),
		NoOdds:  odds.Format(no),
	}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filter ListFilter) ([]models.Event, string, error) {
	rows, err := s.repo.List(ctx, params, filter)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) PoolSnapshot(ctx context.Context, eventID uuid.UUID) (*PoolSnapshot, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	pool := event.Pool
	if pool == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pool missing for event")
	}
	counts, err := s.parts.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count participants")
	}
	yes, no := odds.QuotePair(pool)
	return &PoolSnapshot{
		TotalKobo:       pool.TotalKobo,
		YesKobo:         pool.YesKobo,
		NoKobo:          pool.NoKobo,
		YesParticipants: counts.Yes,
		NoParticipants:  counts.No,
		YesOdds:         odds.Format(yes),
		NoOdds:          odds.Format(no),
	}, nil
}

// Cancel refunds every stake and stamps cancelled_at. Only the creator may
// cancel, and only while the event is scheduled or live.
func (s *service) Cancel(ctx context.Context, eventID, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.CreatorID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the creator can cancel an event")
	}
	now := s.now()
	switch event.StatusAt(now) {
	case enums.EventStatusScheduled, enums.EventStatusLive:
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "event can no longer be cancelled")
	}
	if event.SettledAt != nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "event already settled")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).MarkCancelled(ctx, eventID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cancelled")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event can no longer be cancelled")
		}
		refunded, err := s.refunds.RefundEventTx(ctx, tx, event)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventCancelled,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Version:       1,
			Data: payloads.EventCancelledEvent{
				EventID:     event.ID,
				CancelledAt: now,
				RefundCount: refunded,
			},
		})
	})
}

func (s *service) loadEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	return event, nil
}
