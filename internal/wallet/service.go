package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	pkgerrors "github.com/betchat/betchat-backend/pkg/errors"
	"github.com/betchat/betchat-backend/pkg/pagination"
)

// Service exposes balance reads and the transactional movement primitives the
// staking, settlement and challenge flows build on.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Entries(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error)
	DebitTx(ctx context.Context, tx *gorm.DB, input MovementInput) error
	CreditTx(ctx context.Context, tx *gorm.DB, input MovementInput) error
}

type service struct {
	repo Repository
}

// MovementInput captures one balance movement. AmountKobo is always positive;
// the direction comes from the entry type.
type MovementInput struct {
	UserID      uuid.UUID
	AmountKobo  int64
	Type        enums.LedgerEntryType
	EventID     *uuid.UUID
	ChallengeID *uuid.UUID
	Metadata    json.RawMessage
}

// NewService wires a wallet service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	wallet, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Wallets are created lazily on first credit; absent means zero.
			return &models.Wallet{UserID: userID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return wallet, nil
}

func (s *service) Entries(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	entries, err := s.repo.ListEntries(ctx, userID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return entries, next, nil
}

// DebitTx removes funds inside the caller's transaction and journals the
// movement. The two writes share the transaction, so the journal always
// reconciles with the balance.
func (s *service) DebitTx(ctx context.Context, tx *gorm.DB, input MovementInput) error {
	if err := validateMovement(input); err != nil {
		return err
	}
	if !input.Type.Debit() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("entry type %q is not a debit", input.Type))
	}
	repo := s.repo.WithTx(tx)
	if err := repo.Debit(ctx, input.UserID, input.AmountKobo); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient balance")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
	}
	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Type:        input.Type,
		AmountKobo:  -input.AmountKobo,
		EventID:     input.EventID,
		ChallengeID: input.ChallengeID,
		Metadata:    input.Metadata,
	}
	if err := repo.CreateEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "journal debit")
	}
	return nil
}

// CreditTx adds funds inside the caller's transaction and journals the
// movement, creating the wallet on first touch.
func (s *service) CreditTx(ctx context.Context, tx *gorm.DB, input MovementInput) error {
	if err := validateMovement(input); err != nil {
		return err
	}
	if input.Type.Debit() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("entry type %q is not a credit", input.Type))
	}
	repo := s.repo.WithTx(tx)
	if err := repo.Credit(ctx, input.UserID, input.AmountKobo); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
	}
	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Type:        input.Type,
		AmountKobo:  input.AmountKobo,
		EventID:     input.EventID,
		ChallengeID: input.ChallengeID,
		Metadata:    input.Metadata,
	}
	if err := repo.CreateEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "journal credit")
	}
	return nil
}

func validateMovement(input MovementInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.AmountKobo <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger entry type %q", input.Type))
	}
	return nil
}
