// Package staking is the join orchestrator: one entry point that validates
// eligibility, debits the wallet, records the participation, grows the pool
// and queues the room broadcasts, all inside a single transaction.
package staking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/internal/events"
	"github.com/betchat/betchat-backend/internal/odds"
	"github.com/betchat/betchat-backend/internal/participations"
	"github.com/betchat/betchat-backend/internal/pools"
	"github.com/betchat/betchat-backend/internal/wallet"
	"github.com/betchat/betchat-backend/pkg/config"
	dbpkg "github.com/betchat/betchat-backend/pkg/db"
	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	pkgerrors "github.com/betchat/betchat-backend/pkg/errors"
	"github.com/betchat/betchat-backend/pkg/outbox"
	"github.com/betchat/betchat-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service places stakes on events.
type Service interface {
	PlaceStake(ctx context.Context, input PlaceStakeInput) (*PlaceStakeResult, error)
	Participation(ctx context.Context, eventID, userID uuid.UUID) (*ParticipationView, error)
	Participants(ctx context.Context, eventID uuid.UUID) ([]models.Participation, error)
}

type service struct {
	events events.Repository
	pools  pools.Repository
	parts  participations.Repository
	wallet wallet.Service
	tx     txRunner
	outbox outboxPublisher
	cfg    config.BettingConfig
	now    func() time.Time
}

// PlaceStakeInput captures one join request. A zero WagerAmountKobo falls
// back to the event's suggested wager.
type PlaceStakeInput struct {
	EventID         uuid.UUID
	UserID          uuid.UUID
	Prediction      enums.Outcome
	WagerAmountKobo int64
}

// PlaceStakeResult returns the refreshed pool and both quotes.
type PlaceStakeResult struct {
	Participation *models.Participation
	PoolTotalKobo int64
	PoolYesKobo   int64
	PoolNoKobo    int64
	YesOdds       string
	NoOdds        string
}

// ParticipationView is the read model for "has this user joined".
type ParticipationView struct {
	HasJoined  bool
	Prediction *enums.Outcome
	AmountKobo *int64
	JoinedAt   *time.Time
}

// NewService wires the join orchestrator.
func NewService(eventRepo events.Repository, poolRepo pools.Repository, partRepo participations.Repository, walletSvc wallet.Service, tx txRunner, publisher outboxPublisher, cfg config.BettingConfig) (Service, error) {
	if eventRepo == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if poolRepo == nil {
		return nil, fmt.Errorf("pool repository required")
	}
	if partRepo == nil {
		return nil, fmt.Errorf("participation repository required")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		events: eventRepo,
		pools:  poolRepo,
		parts:  partRepo,
		wallet: walletSvc,
		tx:     tx,
		outbox: publisher,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

// PlaceStake is deliberately not idempotent: a second call for the same
// (event, user) fails with AlreadyJoined. That is the anti-double-bet
// guarantee, enforced twice — an application check for a friendly error and
// the unique constraint for the race the check cannot see.
func (s *service) PlaceStake(ctx context.Context, input PlaceStakeInput) (*PlaceStakeResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Prediction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid prediction %q", input.Prediction))
	}

	event, err := s.events.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}

	now := s.now()
	if !event.JoinableAt(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event is not open for bets")
	}

	amount := input.WagerAmountKobo
	if amount == 0 {
		amount = event.WagerAmountKobo
	}
	if amount < s.cfg.MinStakeKobo {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("minimum bet amount is %d kobo", s.cfg.MinStakeKobo))
	}

	if _, err := s.parts.Get(ctx, input.EventID, input.UserID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "already joined this event")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check participation")
	}

	participation := &models.Participation{
		ID:         uuid.New(),
		EventID:    input.EventID,
		UserID:     input.UserID,
		Prediction: input.Prediction,
		StakeKobo:  amount,
		JoinedAt:   now,
	}

	result := &PlaceStakeResult{Participation: participation}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// Joinability, capacity and balance are all re-checked inside the
		// boundary; the pre-checks above only exist to fail fast with a
		// clean message. LockOpen holds the events row until commit, so a
		// settle or cancel that landed after the read above is seen here,
		// and one that lands during this transaction waits for it.
		open, err := s.events.WithTx(tx).LockOpen(ctx, input.EventID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock event")
		}
		if !open {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event is not open for bets")
		}

		partRepo := s.parts.WithTx(tx)

		counts, err := partRepo.CountByEvent(ctx, input.EventID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count participants")
		}
		if event.MaxParticipants > 0 && counts.Total >= int64(event.MaxParticipants) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event is full")
		}

		eventID := input.EventID
		if err := s.wallet.DebitTx(ctx, tx, wallet.MovementInput{
			UserID:     input.UserID,
			AmountKobo: amount,
			Type:       enums.LedgerEntryTypeStake,
			EventID:    &eventID,
		}); err != nil {
			return err
		}

		if err := partRepo.Create(ctx, participation); err != nil {
			if dbpkg.IsUniqueViolation(err, participations.UniqueConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "already joined this event")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create participation")
		}

		poolRepo := s.pools.WithTx(tx)
		if err := poolRepo.ApplyStake(ctx, input.EventID, input.Prediction, amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply stake to pool")
		}

		pool, err := poolRepo.Get(ctx, input.EventID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload pool")
		}
		yes, no := odds.QuotePair(pool)
		result.PoolTotalKobo = pool.TotalKobo
		result.PoolYesKobo = pool.YesKobo
		result.PoolNoKobo = pool.NoKobo
		result.YesOdds = odds.Format(yes)
		result.NoOdds = odds.Format(no)

		actor := &outbox.ActorRef{UserID: input.UserID}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNewParticipant,
			AggregateType: enums.AggregateEvent,
			AggregateID:   input.EventID,
			Actor:         actor,
			Version:       1,
			Data: payloads.NewParticipantEvent{
				EventID:         input.EventID,
				UserID:          input.UserID,
				Prediction:      input.Prediction,
				WagerAmountKobo: amount,
			},
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBetPlaced,
			AggregateType: enums.AggregateEvent,
			AggregateID:   input.EventID,
			Actor:         actor,
			Version:       1,
			Data: payloads.BetPlacedEvent{
				EventID:       input.EventID,
				UserID:        input.UserID,
				Prediction:    input.Prediction,
				StakeKobo:     amount,
				PoolTotalKobo: result.PoolTotalKobo,
				PoolYesKobo:   result.PoolYesKobo,
				PoolNoKobo:    result.PoolNoKobo,
				YesOdds:       result.YesOdds,
				NoOdds:        result.NoOdds,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Participation(ctx context.Context, eventID, userID uuid.UUID) (*ParticipationView, error) {
	if eventID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id and user id required")
	}
	row, err := s.parts.Get(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ParticipationView{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participation")
	}
	return &ParticipationView{
		HasJoined:  true,
		Prediction: &row.Prediction,
		AmountKobo: &row.StakeKobo,
		JoinedAt:   &row.JoinedAt,
	}, nil
}

func (s *service) Participants(ctx context.Context, eventID uuid.UUID) ([]models.Participation, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	return s.parts.List(ctx, event.ID)
}
