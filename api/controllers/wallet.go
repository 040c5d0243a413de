package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/api/responses"
	"github.com/betchat/betchat-backend/internal/wallet"
	pkgerrors "github.com/betchat/betchat-backend/pkg/errors"
	"github.com/betchat/betchat-backend/pkg/logger"
)

// WalletBalance returns the caller's spendable balance.
func WalletBalance(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletResponse{
			UserID:    balance.UserID,
			Balance:   balance.BalanceKobo,
			UpdatedAt: balance.UpdatedAt,
		})
	}
}

// WalletEntries pages through the caller's ledger journal, newest first.
func WalletEntries(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, nextCursor, err := svc.Entries(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]ledgerEntryResponse, 0, len(entries))
		for _, entry := range entries {
			items = append(items, ledgerEntryResponse{
				ID:          entry.ID,
				Type:        string(entry.Type),
				Amount:      entry.AmountKobo,
				EventID:     entry.EventID,
				ChallengeID: entry.ChallengeID,
				CreatedAt:   entry.CreatedAt,
			})
		}
		responses.WriteSuccess(w, ledgerEntryListResponse{Items: items, NextCursor: nextCursor})
	}
}

type walletResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ledgerEntryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Amount      int64      `json:"amount"`
	EventID     *uuid.UUID `json:"eventId,omitempty"`
	ChallengeID *uuid.UUID `json:"challengeId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type ledgerEntryListResponse struct {
	Items      []ledgerEntryResponse `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
}
