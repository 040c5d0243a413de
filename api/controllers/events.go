package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/api/responses"
	"github.com/betchat/betchat-backend/api/validators"
	"github.com/betchat/betchat-backend/internal/events"
	"github.com/betchat/betchat-backend/internal/settlement"
	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	pkgerrors "github.com/betchat/betchat-backend/pkg/errors"
	"github.com/betchat/betchat-backend/pkg/logger"
)

// CreateEvent opens a new prediction pool owned by the caller.
func CreateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		creatorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createEventRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Create(r.Context(), events.CreateEventInput{
			Title:           validators.SanitizeString(payload.Title, 200),
			Description:     payload.Description,
			Category:        validators.SanitizeString(payload.Category, 100),
			Rules:           payload.Rules,
			CreatorID:       creatorID,
			StartTime:       payload.StartTime,
			EndTime:         payload.EndTime,
			WagerAmountKobo: payload.WagerAmount,
			MaxParticipants: payload.MaxParticipants,
			IsPrivate:       payload.IsPrivate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newEventResponse(event, time.Now()))
	}
}

// ListEvents returns a cursor page of events. Private events only show up
// when the caller filters on their own creations.
func ListEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
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

		filter := events.ListFilter{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("creator")); raw != "" {
			creatorID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid creator id"))
				return
			}
			filter.CreatorID = &creatorID
			filter.IncludePrivate = creatorID == userID
		}

		list, nextCursor, err := svc.List(r.Context(), params, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		now := time.Now()
		items := make([]eventResponse, 0, len(list))
		for i := range list {
			items = append(items, newEventResponse(&list[i], now))
		}
		responses.WriteSuccess(w, eventListResponse{Items: items, NextCursor: nextCursor})
	}
}

// GetEvent returns the event detail with pool totals and live quotes.
func GetEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		eventID, err := parseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEventDetailResponse(detail))
	}
}

// EventPool returns the pool totals, per-side participant counts and quotes.
func EventPool(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		eventID, err := parseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.PoolSnapshot(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, poolResponse{
			TotalAmount:     snapshot.TotalKobo,
			YesAmount:       snapshot.YesKobo,
			NoAmount:        snapshot.NoKobo,
			YesParticipants: snapshot.YesParticipants,
			NoParticipants:  snapshot.NoParticipants,
			YesOdds:         snapshot.YesOdds,
			NoOdds:          snapshot.NoOdds,
		})
	}
}

// CancelEvent voids an event and refunds every stake. Creator only.
func CancelEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event service unavailable"))
			return
		}

		actorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := parseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), eventID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// AdminSettleEvent declares the winning outcome and schedules payouts.
func AdminSettleEvent(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		actorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := parseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload settleEventRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Outcome == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "outcome is required"))
			return
		}

		result, err := svc.SettleEvent(r.Context(), settlement.SettleInput{
			EventID: eventID,
			Outcome: enums.OutcomeFromBool(*payload.Outcome),
			ActorID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, settleEventResponse{
			EventID:     result.EventID,
			Outcome:     result.Outcome.Bool(),
			WinnerCount: result.WinnerCount,
			PayoutCount: result.PayoutCount,
			PaidCount:   result.PaidCount,
		})
	}
}

type createEventRequest struct {
	Title           string    `json:"title" validate:"required"`
	Description     *string   `json:"description"`
	Category        string    `json:"category" validate:"required"`
	Rules           *string   `json:"rules"`
	StartTime       time.Time `json:"startTime" validate:"required"`
	EndTime         time.Time `json:"endTime" validate:"required"`
	WagerAmount     int64     `json:"wagerAmount" validate:"required,min=1"`
	MaxParticipants int       `json:"maxParticipants" validate:"required,min=2"`
	IsPrivate       bool      `json:"isPrivate"`
}

type settleEventRequest struct {
	Outcome *bool `json:"outcome"`
}

type settleEventResponse struct {
	EventID     uuid.UUID `json:"eventId"`
	Outcome     bool      `json:"outcome"`
	WinnerCount int       `json:"winnerCount"`
	PayoutCount int       `json:"payoutCount"`
	PaidCount   int       `json:"paidCount"`
}

type eventResponse struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	Category        string     `json:"category"`
	Rules           *string    `json:"rules,omitempty"`
	CreatorID       uuid.UUID  `json:"creatorId"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         time.Time  `json:"endTime"`
	WagerAmount     int64      `json:"wagerAmount"`
	MaxParticipants int        `json:"maxParticipants"`
	IsPrivate       bool       `json:"isPrivate"`
	Status          string     `json:"status"`
	WinningOutcome  *bool      `json:"winningOutcome,omitempty"`
	SettledAt       *time.Time `json:"settledAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type eventListResponse struct {
	Items      []eventResponse `json:"items"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

type eventDetailResponse struct {
	eventResponse
	Pool poolResponse `json:"pool"`
}

type poolResponse struct {
	TotalAmount     int64  `json:"totalAmount"`
	YesAmount       int64  `json:"yesAmount"`
	NoAmount        int64  `json:"noAmount"`
	YesParticipants int64  `json:"yesParticipants"`
	NoParticipants  int64  `json:"noParticipants"`
	YesOdds         string `json:"yesOdds"`
	NoOdds          string `json:"noOdds"`
}

func newEventResponse(event *models.Event, now time.Time) eventResponse {
	resp := eventResponse{
		ID:              event.ID,
		Title:           event.Title,
		Description:     event.Description,
		Category:        event.Category,
		Rules:           event.Rules,
		CreatorID:       event.CreatorID,
		StartTime:       event.StartTime,
		EndTime:         event.EndTime,
		WagerAmount:     event.WagerAmountKobo,
		MaxParticipants: event.MaxParticipants,
		IsPrivate:       event.IsPrivate,
		Status:          string(event.StatusAt(now)),
		SettledAt:       event.SettledAt,
		CreatedAt:       event.CreatedAt,
	}
	if event.WinningOutcome != nil {
		won := event.WinningOutcome.Bool()
		resp.WinningOutcome = &won
	}
	return resp
}

func newEventDetailResponse(detail *events.EventDetail) eventDetailResponse {
	resp := eventDetailResponse{
		eventResponse: newEventResponse(detail.Event, time.Now()),
	}
	resp.Status = string(detail.Status)
	if pool := detail.Event.Pool; pool != nil {
		resp.Pool = poolResponse{
			TotalAmount:     pool.TotalKobo,
			YesAmount:       pool.YesKobo,
			NoAmount:        pool.NoKobo,
			YesParticipants: detail.Counts.Yes,
			NoParticipants:  detail.Counts.No,
			YesOdds:         detail.YesOdds,
			NoOdds:          detail.NoOdds,
		}
	}
	return resp
}
