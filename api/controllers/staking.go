package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/api/responses"
	"github.com/betchat/betchat-backend/api/validators"
	"github.com/betchat/betchat-backend/internal/staking"
	"github.com/betchat/betchat-backend/pkg/enums"
	pkgerrors "github.com/betchat/betchat-backend/pkg/errors"
	"github.com/betchat/betchat-backend/pkg/logger"
)

// JoinEvent places the caller's stake on an event and returns the refreshed
// pool with both quotes.
func JoinEvent(svc staking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staking service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := parseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload joinEventRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Prediction == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "prediction is required"))
			return
		}

		input := staking.PlaceStakeInput{
			EventID:    eventID,
			UserID:     userID,
			Prediction: enums.OutcomeFromBool(*payload.Prediction),
		}
		if payload.WagerAmount != nil {
			input.WagerAmountKobo = *payload.WagerAmount
		}

		result, err := svc.PlaceStake(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, joinEventResponse{
			EventID:     result.Participation.EventID,
			Prediction:  result.Participation.Prediction.Bool(),
			WagerAmount: result.Participation.StakeKobo,
			JoinedAt:    result.Participation.JoinedAt,
			Pool: joinPoolResponse{
				TotalAmount: result.PoolTotalKobo,
				YesAmount:   result.PoolYesKobo,
				NoAmount:    result.PoolNoKobo,
				YesOdds:     result.YesOdds,
				NoOdds:      result.NoOdds,
			},
		})
	}
}

// EventParticipation answers "has this user joined" for one event.
func EventParticipation(svc staking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staking service unavailable"))
			return
		}

		eventID, err := parseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := parseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Participation(r.Context(), eventID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := participationResponse{HasJoined: view.HasJoined}
		if view.Prediction != nil {
			prediction := view.Prediction.Bool()
			resp.Prediction = &prediction
		}
		resp.Amount = view.AmountKobo
		resp.JoinedAt = view.JoinedAt
		responses.WriteSuccess(w, resp)
	}
}

// EventParticipants lists every stake on an event in join order.
func EventParticipants(svc staking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staking service unavailable"))
			return
		}

		eventID, err := parseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Participants(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]participantResponse, 0, len(list))
		for _, participant := range list {
			items = append(items, participantResponse{
				UserID:      participant.UserID,
				Prediction:  participant.Prediction.Bool(),
				WagerAmount: participant.StakeKobo,
				JoinedAt:    participant.JoinedAt,
			})
		}
		responses.WriteSuccess(w, participantListResponse{Items: items})
	}
}

type joinEventRequest struct {
	Prediction  *bool  `json:"prediction"`
	WagerAmount *int64 `json:"wagerAmount"`
}

type joinEventResponse struct {
	EventID     uuid.UUID        `json:"eventId"`
	Prediction  bool             `json:"prediction"`
	WagerAmount int64            `json:"wagerAmount"`
	JoinedAt    time.Time        `json:"joinedAt"`
	Pool        joinPoolResponse `json:"pool"`
}

type joinPoolResponse struct {
	TotalAmount int64  `json:"totalAmount"`
	YesAmount   int64  `json:"yesAmount"`
	NoAmount    int64  `json:"noAmount"`
	YesOdds     string `json:"yesOdds"`
	NoOdds      string `json:"noOdds"`
}

type participationResponse struct {
	HasJoined  bool       `json:"hasJoined"`
	Prediction *bool      `json:"prediction,omitempty"`
	Amount     *int64     `json:"amount,omitempty"`
	JoinedAt   *time.Time `json:"joinedAt,omitempty"`
}

type participantResponse struct {
	UserID      uuid.UUID `json:"userId"`
	Prediction  bool      `json:"prediction"`
	WagerAmount int64     `json:"wagerAmount"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type participantListResponse struct {
	Items []participantResponse `json:"items"`
}
