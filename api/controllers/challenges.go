package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/api/responses"
	"github.com/betchat/betchat-backend/api/validators"
	"github.com/betchat/betchat-backend/internal/challenges"
	"github.com/betchat/betchat-backend/pkg/db/models"
	pkgerrors "github.com/betchat/betchat-backend/pkg/errors"
	"github.com/betchat/betchat-backend/pkg/logger"
)

// CreateChallenge opens a head-to-head wager and escrows the caller's stake.
func CreateChallenge(svc challenges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "challenge service unavailable"))
			return
		}

		creatorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createChallengeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		challenge, err := svc.Create(r.Context(), challenges.CreateChallengeInput{
			Title:      validators.SanitizeString(payload.Title, 200),
			CreatorID:  creatorID,
			OpponentID: payload.OpponentID,
			StakeKobo:  payload.StakeAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newChallengeResponse(challenge))
	}
}

// ListChallenges pages through challenges the caller is party to.
func ListChallenges(svc challenges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "challenge service unavailable"))
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

		list, nextCursor, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]challengeResponse, 0, len(list))
		for i := range list {
			items = append(items, newChallengeResponse(&list[i]))
		}
		responses.WriteSuccess(w, challengeListResponse{Items: items, NextCursor: nextCursor})
	}
}

// GetChallenge returns a single challenge.
func GetChallenge(svc challenges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "challenge service unavailable"))
			return
		}

		challengeID, err := parseUUIDParam(r, "challengeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		challenge, err := svc.Get(r.Context(), challengeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newChallengeResponse(challenge))
	}
}

// AcceptChallenge escrows the opponent's stake and locks the wager in.
func AcceptChallenge(svc challenges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "challenge service unavailable"))
			return
		}

		actorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		challengeID, err := parseUUIDParam(r, "challengeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		challenge, err := svc.Accept(r.Context(), challengeID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newChallengeResponse(challenge))
	}
}

// DeclineChallenge closes an open challenge and releases the creator's escrow.
func DeclineChallenge(svc challenges.Service, logg *logger.Logger) http.HandlerFunc {
	return challengeTransition(svc, logg, "declined", challenges.Service.Decline)
}

// CancelChallenge lets the creator withdraw an open challenge.
func CancelChallenge(svc challenges.Service, logg *logger.Logger) http.HandlerFunc {
	return challengeTransition(svc, logg, "cancelled", challenges.Service.Cancel)
}

func challengeTransition(svc challenges.Service, logg *logger.Logger, status string, apply func(challenges.Service, context.Context, uuid.UUID, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "challenge service unavailable"))
			return
		}

		actorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		challengeID, err := parseUUIDParam(r, "challengeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := apply(svc, r.Context(), challengeID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

// AdminSettleChallenge declares the winner and releases both escrowed stakes.
func AdminSettleChallenge(svc challenges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "challenge service unavailable"))
			return
		}

		actorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		challengeID, err := parseUUIDParam(r, "challengeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload settleChallengeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		challenge, err := svc.Settle(r.Context(), challengeID, payload.WinnerID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newChallengeResponse(challenge))
	}
}

type createChallengeRequest struct {
	Title       string    `json:"title" validate:"required"`
	OpponentID  uuid.UUID `json:"opponentId" validate:"required"`
	StakeAmount int64     `json:"stakeAmount" validate:"required,min=1"`
}

type settleChallengeRequest struct {
	WinnerID uuid.UUID `json:"winnerId" validate:"required"`
}

type challengeResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	CreatorID   uuid.UUID  `json:"creatorId"`
	OpponentID  uuid.UUID  `json:"opponentId"`
	StakeAmount int64      `json:"stakeAmount"`
	Status      string     `json:"status"`
	WinnerID    *uuid.UUID `json:"winnerId,omitempty"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	SettledAt   *time.Time `json:"settledAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type challengeListResponse struct {
	Items      []challengeResponse `json:"items"`
	NextCursor string              `json:"nextCursor,omitempty"`
}

func newChallengeResponse(challenge *models.Challenge) challengeResponse {
	return challengeResponse{
		ID:          challenge.ID,
		Title:       challenge.Title,
		CreatorID:   challenge.CreatorID,
		OpponentID:  challenge.OpponentID,
		StakeAmount: challenge.StakeKobo,
		Status:      string(challenge.Status),
		WinnerID:    challenge.WinnerID,
		AcceptedAt:  challenge.AcceptedAt,
		SettledAt:   challenge.SettledAt,
		CreatedAt:   challenge.CreatedAt,
	}
}
