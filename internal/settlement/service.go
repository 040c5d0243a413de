package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/internal/events"
	"github.com/betchat/betchat-backend/internal/participations"
	"github.com/betchat/betchat-backend/internal/wallet"
	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	pkgerrors "github.com/betchat/betchat-backend/pkg/errors"
	"github.com/betchat/betchat-backend/pkg/logger"
	"github.com/betchat/betchat-backend/pkg/outbox"
	"github.com/betchat/betchat-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service resolves events into payouts. Settling writes the outcome and the
// pending payout rows in one transaction; disbursement then pays each row in
// its own small transaction so one rejected credit never blocks the rest.
type Service interface {
	SettleEvent(ctx context.Context, input SettleInput) (*SettleResult, error)
	RefundEventTx(ctx context.Context, tx *gorm.DB, event *models.Event) (int, error)
	DisburseEvent(ctx context.Context, eventID uuid.UUID) (int, error)
	DisbursePending(ctx context.Context, limit int) (int, error)
}

type service struct {
	repo   Repository
	events events.Repository
	parts  participations.Repository
	wallet wallet.Service
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// SettleInput declares the winning outcome for an ended event.
type SettleInput struct {
	EventID uuid.UUID
	Outcome enums.Outcome
	ActorID uuid.UUID
}

// SettleResult summarizes what a settle call did.
type SettleResult struct {
	EventID     uuid.UUID
	Outcome     enums.Outcome
	WinnerCount int
	PayoutCount int
	PaidCount   int
}

// NewService wires a settlement service.
func NewService(repo Repository, eventRepo events.Repository, partRepo participations.Repository, walletSvc wallet.Service, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if eventRepo == nil {
		return nil, fmt.Errorf("event repository required")
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
		repo:   repo,
		events: eventRepo,
		parts:  partRepo,
		wallet: walletSvc,
		tx:     tx,
		outbox: publisher,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) SettleEvent(ctx context.Context, input SettleInput) (*SettleResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if !input.Outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid outcome %q", input.Outcome))
	}

	event, err := s.events.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}

	now := s.now()
	if event.CancelledAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled events cannot be settled")
	}
	if event.SettledAt != nil {
		// Re-invocation: pay whatever is still pending, reject a different outcome.
		if event.WinningOutcome == nil || *event.WinningOutcome != input.Outcome {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event already settled with a different outcome")
		}
		return s.resumeSettlement(ctx, event, input.Outcome)
	}
	if event.StatusAt(now) != enums.EventStatusEnded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event has not ended yet")
	}

	result := &SettleResult{EventID: event.ID, Outcome: input.Outcome}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.events.WithTx(tx).MarkSettled(ctx, event.ID, input.Outcome, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark settled")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event already settled")
		}

		// The settled_at stamp blocks further joins, so this read sees the
		// final frozen pool.
		parts, err := s.parts.WithTx(tx).List(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list participants")
		}

		payouts := ComputePayouts(parts, input.Outcome)
		if err := s.repo.WithTx(tx).CreateBatch(ctx, payouts); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout rows")
		}

		winnerCount := 0
		for _, p := range parts {
			if p.Prediction == input.Outcome {
				winnerCount++
			}
		}
		result.WinnerCount = winnerCount
		result.PayoutCount = len(payouts)

		var poolTotal int64
		if event.Pool != nil {
			poolTotal = event.Pool.TotalKobo
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventSettled,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(enums.UserRoleAdmin)},
			Version:       1,
			Data: payloads.EventSettledEvent{
				EventID:        event.ID,
				WinningOutcome: input.Outcome,
				WinnerCount:    winnerCount,
				PoolTotalKobo:  poolTotal,
				SettledAt:      now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	paid, disburseErr := s.DisburseEvent(ctx, event.ID)
	result.PaidCount = paid
	if disburseErr != nil && s.logg != nil {
		// Remaining rows stay pending; the lifecycle sweep retries them.
		s.logg.Error(s.logg.WithEventID(ctx, event.ID.String()), "partial payout disbursement", disburseErr)
	}
	return result, nil
}

func (s *service) resumeSettlement(ctx context.Context, event *models.Event, outcome enums.Outcome) (*SettleResult, error) {
	rows, err := s.repo.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	paid, disburseErr := s.DisburseEvent(ctx, event.ID)
	if disburseErr != nil && s.logg != nil {
		s.logg.Error(s.logg.WithEventID(ctx, event.ID.String()), "partial payout disbursement", disburseErr)
	}
	winnerCount := 0
	for _, row := range rows {
		if row.Type == enums.PayoutTypeWinnings {
			winnerCount++
		}
	}
	return &SettleResult{
		EventID:     event.ID,
		Outcome:     outcome,
		WinnerCount: winnerCount,
		PayoutCount: len(rows),
		PaidCount:   paid,
	}, nil
}

// RefundEventTx creates and immediately disburses a refund payout for every
// participant, inside the caller's transaction. Used by event cancellation,
// where refunds and the cancelled mark must commit together.
func (s *service) RefundEventTx(ctx context.Context, tx *gorm.DB, event *models.Event) (int, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	parts, err := s.parts.WithTx(tx).List(ctx, event.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list participants")
	}
	if len(parts) == 0 {
		return 0, nil
	}

	now := s.now()
	repo := s.repo.WithTx(tx)
	payouts := make([]models.Payout, 0, len(parts))
	for _, p := range parts {
		payouts = append(payouts, models.Payout{
			ID:         uuid.New(),
			EventID:    p.EventID,
			UserID:     p.UserID,
			Type:       enums.PayoutTypeRefund,
			Status:     enums.PayoutStatusPending,
			AmountKobo: p.StakeKobo,
		})
	}
	if err := repo.CreateBatch(ctx, payouts); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund rows")
	}

	refunded := 0
	for _, payout := range payouts {
		eventID := payout.EventID
		err := s.wallet.CreditTx(ctx, tx, wallet.MovementInput{
			UserID:     payout.UserID,
			AmountKobo: payout.AmountKobo,
			Type:       enums.LedgerEntryTypeRefund,
			EventID:    &eventID,
		})
		if err != nil {
			return 0, err
		}
		if _, err := repo.MarkPaid(ctx, payout.ID, now); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark refund paid")
		}
		refunded++
	}
	return refunded, nil
}

// DisburseEvent pays every pending payout row for the event. Each row gets
// its own transaction; failures are collected and the rows stay pending.
func (s *service) DisburseEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	rows, err := s.repo.ListPendingByEvent(ctx, eventID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payouts")
	}
	return s.payRows(ctx, rows)
}

// DisbursePending retries pending payout rows across all events, oldest
// first. Called by the lifecycle sweep.
func (s *service) DisbursePending(ctx context.Context, limit int) (int, error) {
	rows, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payouts")
	}
	return s.payRows(ctx, rows)
}

func (s *service) payRows(ctx context.Context, rows []models.Payout) (int, error) {
	paid := 0
	var errs []error
	for _, row := range rows {
		if err := s.payRow(ctx, row); err != nil {
			errs = append(errs, fmt.Errorf("payout %s: %w", row.ID, err))
			continue
		}
		paid++
	}
	return paid, multierr.Combine(errs...)
}

func (s *service) payRow(ctx context.Context, row models.Payout) error {
	entryType := enums.LedgerEntryTypePayout
	if row.Type == enums.PayoutTypeRefund {
		entryType = enums.LedgerEntryTypeRefund
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).MarkPaid(ctx, row.ID, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark paid")
		}
		if !ok {
			// Another worker already paid this row.
			return nil
		}
		eventID := row.EventID
		return s.wallet.CreditTx(ctx, tx, wallet.MovementInput{
			UserID:     row.UserID,
			AmountKobo: row.AmountKobo,
			Type:       entryType,
			EventID:    &eventID,
		})
	})
}
