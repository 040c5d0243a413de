package challenges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/internal/wallet"
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

// Service drives the challenge lifecycle. Funds move with status: the
// creator's stake is escrowed at creation, the opponent's at accept, and
// every terminal transition releases or awards the escrow in the same
// transaction as the status write.
type Service interface {
	Create(ctx context.Context, input CreateChallengeInput) (*models.Challenge, error)
	Get(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Challenge, string, error)
	Accept(ctx context.Context, challengeID, actorID uuid.UUID) (*models.Challenge, error)
	Decline(ctx context.Context, challengeID, actorID uuid.UUID) error
	Cancel(ctx context.Context, challengeID, actorID uuid.UUID) error
	Settle(ctx context.Context, challengeID, winnerID, actorID uuid.UUID) (*models.Challenge, error)
}

type service struct {
	repo   Repository
	wallet wallet.Service
	tx     txRunner
	outbox outboxPublisher
	cfg    config.BettingConfig
	now    func() time.Time
}

// CreateChallengeInput captures a new head-to-head wager.
type CreateChallengeInput struct {
	Title      string
	CreatorID  uuid.UUID
	OpponentID uuid.UUID
	StakeKobo  int64
}

// NewService wires a challenge service.
func NewService(repo Repository, walletSvc wallet.Service, tx txRunner, publisher outboxPublisher, cfg config.BettingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("challenge repository required")
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
		wallet: walletSvc,
		tx:     tx,
		outbox: publisher,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateChallengeInput) (*models.Challenge, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.OpponentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opponent id required")
	}
	if input.OpponentID == input.CreatorID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot challenge yourself")
	}
	if input.StakeKobo < s.cfg.MinStakeKobo {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("stake must be at least %d kobo", s.cfg.MinStakeKobo))
	}

	challenge := &models.Challenge{
		ID:         uuid.New(),
		Title:      input.Title,
		CreatorID:  input.CreatorID,
		OpponentID: input.OpponentID,
		StakeKobo:  input.StakeKobo,
		Status:     enums.ChallengeStatusOpen,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		challengeID := challenge.ID
		if err := s.wallet.DebitTx(ctx, tx, wallet.MovementInput{
			UserID:      input.CreatorID,
			AmountKobo:  input.StakeKobo,
			Type:        enums.LedgerEntryTypeEscrowHold,
			ChallengeID: &challengeID,
		}); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, challenge); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create challenge")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChallengeCreated,
			AggregateType: enums.AggregateChallenge,
			AggregateID:   challenge.ID,
			Actor:         &outbox.ActorRef{UserID: input.CreatorID},
			Version:       1,
			Data: payloads.ChallengeCreatedEvent{
				ChallengeID: challenge.ID,
				CreatorID:   challenge.CreatorID,
				OpponentID:  challenge.OpponentID,
				Title:       challenge.Title,
				StakeKobo:   challenge.StakeKobo,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *service) Get(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error) {
	return s.loadChallenge(ctx, challengeID)
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Challenge, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list challenges")
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

// Accept escrows the opponent's matching stake and locks the challenge.
func (s *service) Accept(ctx context.Context, challengeID, actorID uuid.UUID) (*models.Challenge, error) {
	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.OpponentID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the named opponent can accept")
	}
	if challenge.Status != enums.ChallengeStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "challenge is no longer open")
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).MarkAccepted(ctx, challengeID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark accepted")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "challenge is no longer open")
		}
		id := challengeID
		if err := s.wallet.DebitTx(ctx, tx, wallet.MovementInput{
			UserID:      actorID,
			AmountKobo:  challenge.StakeKobo,
			Type:        enums.LedgerEntryTypeEscrowHold,
			ChallengeID: &id,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChallengeAccepted,
			AggregateType: enums.AggregateChallenge,
			AggregateID:   challengeID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Version:       1,
			Data: payloads.ChallengeAcceptedEvent{
				ChallengeID: challengeID,
				OpponentID:  actorID,
				AcceptedAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	challenge.Status = enums.ChallengeStatusAccepted
	challenge.AcceptedAt = &now
	return challenge, nil
}

// Decline closes an open challenge and releases the creator's escrow.
func (s *service) Decline(ctx context.Context, challengeID, actorID uuid.UUID) error {
	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if challenge.OpponentID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the named opponent can decline")
	}
	return s.close(ctx, challenge, enums.ChallengeStatusDeclined)
}

// Cancel withdraws an open challenge and releases the creator's escrow.
func (s *service) Cancel(ctx context.Context, challengeID, actorID uuid.UUID) error {
	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if challenge.CreatorID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the creator can cancel")
	}
	return s.close(ctx, challenge, enums.ChallengeStatusCancelled)
}

func (s *service) close(ctx context.Context, challenge *models.Challenge, status enums.ChallengeStatus) error {
	if challenge.Status != enums.ChallengeStatusOpen {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "challenge is no longer open")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).MarkClosed(ctx, challenge.ID, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close challenge")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "challenge is no longer open")
		}
		id := challenge.ID
		return s.wallet.CreditTx(ctx, tx, wallet.MovementInput{
			UserID:      challenge.CreatorID,
			AmountKobo:  challenge.StakeKobo,
			Type:        enums.LedgerEntryTypeEscrowRelease,
			ChallengeID: &id,
		})
	})
}

// Settle awards both escrowed stakes to the winner. Admin only; the caller's
// role is enforced at the transport layer.
func (s *service) Settle(ctx context.Context, challengeID, winnerID, actorID uuid.UUID) (*models.Challenge, error) {
	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if winnerID != challenge.CreatorID && winnerID != challenge.OpponentID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "winner must be one of the two parties")
	}
	if challenge.Status == enums.ChallengeStatusSettled {
		if challenge.WinnerID != nil && *challenge.WinnerID == winnerID {
			return challenge, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "challenge already settled with a different winner")
	}
	if challenge.Status != enums.ChallengeStatusAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only accepted challenges can be settled")
	}

	now := s.now()
	prize := challenge.StakeKobo * 2
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).MarkSettled(ctx, challengeID, winnerID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark settled")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "challenge already settled")
		}
		id := challengeID
		if err := s.wallet.CreditTx(ctx, tx, wallet.MovementInput{
			UserID:      winnerID,
			AmountKobo:  prize,
			Type:        enums.LedgerEntryTypeChallengeWin,
			ChallengeID: &id,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChallengeSettled,
			AggregateType: enums.AggregateChallenge,
			AggregateID:   challengeID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.UserRoleAdmin)},
			Version:       1,
			Data: payloads.ChallengeSettledEvent{
				ChallengeID: challengeID,
				WinnerID:    winnerID,
				AmountKobo:  prize,
				SettledAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	challenge.Status = enums.ChallengeStatusSettled
	challenge.WinnerID = &winnerID
	challenge.SettledAt = &now
	return challenge, nil
}

func (s *service) loadChallenge(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error) {
	if challengeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "challenge id required")
	}
	challenge, err := s.repo.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "challenge not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load challenge")
	}
	return challenge, nil
}
