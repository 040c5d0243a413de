package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/betchat/betchat-backend/internal/challenges"
	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
	pkgerrors "github.com/betchat/betchat-backend/pkg/errors"
	"github.com/betchat/betchat-backend/pkg/pagination"
)

type testChallengeService struct {
	createFn  func(ctx context.Context, input challenges.CreateChallengeInput) (*models.Challenge, error)
	getFn     func(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error)
	listFn    func(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Challenge, string, error)
	acceptFn  func(ctx context.Context, challengeID, actorID uuid.UUID) (*models.Challenge, error)
	declineFn func(ctx context.Context, challengeID, actorID uuid.UUID) error
	cancelFn  func(ctx context.Context, challengeID, actorID uuid.UUID) error
	settleFn  func(ctx context.Context, challengeID, winnerID, actorID uuid.UUID) (*models.Challenge, error)
}

func (s *testChallengeService) Create(ctx context.Context, input challenges.CreateChallengeInput) (*models.Challenge, error) {
	return s.createFn(ctx, input)
}

func (s *testChallengeService) Get(ctx context.Context, challengeID uuid.UUID) (*models.Challenge, error) {
	return s.getFn(ctx, challengeID)
}

func (s *testChallengeService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Challenge, string, error) {
	return s.listFn(ctx, userID, params)
}

func (s *testChallengeService) Accept(ctx context.Context, challengeID, actorID uuid.UUID) (*models.Challenge, error) {
	return s.acceptFn(ctx, challengeID, actorID)
}

func (s *testChallengeService) Decline(ctx context.Context, challengeID, actorID uuid.UUID) error {
	return s.declineFn(ctx, challengeID, actorID)
}

func (s *testChallengeService) Cancel(ctx context.Context, challengeID, actorID uuid.UUID) error {
	return s.cancelFn(ctx, challengeID, actorID)
}

func (s *testChallengeService) Settle(ctx context.Context, challengeID, winnerID, actorID uuid.UUID) (*models.Challenge, error) {
	return s.settleFn(ctx, challengeID, winnerID, actorID)
}

func sampleChallenge(creatorID, opponentID uuid.UUID) *models.Challenge {
	return &models.Challenge{
		ID:         uuid.New(),
		Title:      "Arsenal beat City",
		CreatorID:  creatorID,
		OpponentID: opponentID,
		StakeKobo:  20000,
		Status:     enums.ChallengeStatusOpen,
		CreatedAt:  time.Now(),
	}
}

func TestCreateChallengeSuccess(t *testing.T) {
	creatorID := uuid.New()
	opponentID := uuid.New()
	var captured challenges.CreateChallengeInput
	svc := &testChallengeService{
		createFn: func(_ context.Context, input challenges.CreateChallengeInput) (*models.Challenge, error) {
			captured = input
			return sampleChallenge(input.CreatorID, input.OpponentID), nil
		},
	}

	body := `{"title":"Arsenal beat City","opponentId":"` + opponentID.String() + `","stakeAmount":20000}`
	req := authedRequest(http.MethodPost, "/api/v1/challenges", body, creatorID, nil)
	resp := httptest.NewRecorder()
	CreateChallenge(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.CreatorID != creatorID || captured.OpponentID != opponentID {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.StakeKobo != 20000 {
		t.Fatalf("expected stake 20000 got %d", captured.StakeKobo)
	}

	var payload challengeResponse
	decodeData(t, resp, &payload)
	if payload.Status != string(enums.ChallengeStatusOpen) {
		t.Fatalf("expected open status got %s", payload.Status)
	}
}

func TestCreateChallengeRequiresOpponent(t *testing.T) {
	svc := &testChallengeService{
		createFn: func(context.Context, challenges.CreateChallengeInput) (*models.Challenge, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/challenges", `{"title":"x","stakeAmount":20000}`, uuid.New(), nil)
	resp := httptest.NewRecorder()
	CreateChallenge(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", code)
	}
}

func TestListChallengesScopedToCaller(t *testing.T) {
	userID := uuid.New()
	svc := &testChallengeService{
		listFn: func(_ context.Context, gotUser uuid.UUID, params pagination.Params) ([]models.Challenge, string, error) {
			if gotUser != userID {
				t.Fatalf("expected caller scope got %s", gotUser)
			}
			if params.Cursor != "abc" {
				t.Fatalf("expected cursor forwarded got %q", params.Cursor)
			}
			return []models.Challenge{*sampleChallenge(userID, uuid.New())}, "", nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/challenges?cursor=abc", "", userID, nil)
	resp := httptest.NewRecorder()
	ListChallenges(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload challengeListResponse
	decodeData(t, resp, &payload)
	if len(payload.Items) != 1 {
		t.Fatalf("expected one challenge got %d", len(payload.Items))
	}
}

func TestAcceptChallengeReturnsUpdatedRecord(t *testing.T) {
	actorID := uuid.New()
	challenge := sampleChallenge(uuid.New(), actorID)
	svc := &testChallengeService{
		acceptFn: func(_ context.Context, challengeID, gotActor uuid.UUID) (*models.Challenge, error) {
			if challengeID != challenge.ID || gotActor != actorID {
				t.Fatalf("unexpected args %s %s", challengeID, gotActor)
			}
			accepted := *challenge
			accepted.Status = enums.ChallengeStatusAccepted
			now := time.Now()
			accepted.AcceptedAt = &now
			return &accepted, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/challenges/"+challenge.ID.String()+"/accept", "", actorID, map[string]string{"challengeId": challenge.ID.String()})
	resp := httptest.NewRecorder()
	AcceptChallenge(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload challengeResponse
	decodeData(t, resp, &payload)
	if payload.Status != string(enums.ChallengeStatusAccepted) || payload.AcceptedAt == nil {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDeclineChallengeReportsStatus(t *testing.T) {
	actorID := uuid.New()
	challengeID := uuid.New()
	svc := &testChallengeService{
		declineFn: func(_ context.Context, gotChallenge, gotActor uuid.UUID) error {
			if gotChallenge != challengeID || gotActor != actorID {
				t.Fatalf("unexpected args %s %s", gotChallenge, gotActor)
			}
			return nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/challenges/"+challengeID.String()+"/decline", "", actorID, map[string]string{"challengeId": challengeID.String()})
	resp := httptest.NewRecorder()
	DeclineChallenge(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload map[string]string
	decodeData(t, resp, &payload)
	if payload["status"] != "declined" {
		t.Fatalf("unexpected status %q", payload["status"])
	}
}

func TestCancelChallengeSurfacesStateConflict(t *testing.T) {
	svc := &testChallengeService{
		cancelFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "challenge is no longer open")
		},
	}

	challengeID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/challenges/"+challengeID.String()+"/cancel", "", uuid.New(), map[string]string{"challengeId": challengeID.String()})
	resp := httptest.NewRecorder()
	CancelChallenge(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict code got %s", code)
	}
}

func TestAdminSettleChallengeForwardsWinner(t *testing.T) {
	actorID := uuid.New()
	winnerID := uuid.New()
	challenge := sampleChallenge(winnerID, uuid.New())
	svc := &testChallengeService{
		settleFn: func(_ context.Context, challengeID, gotWinner, gotActor uuid.UUID) (*models.Challenge, error) {
			if challengeID != challenge.ID || gotWinner != winnerID || gotActor != actorID {
				t.Fatalf("unexpected args %s %s %s", challengeID, gotWinner, gotActor)
			}
			settled := *challenge
			settled.Status = enums.ChallengeStatusSettled
			settled.WinnerID = &winnerID
			return &settled, nil
		},
	}

	body := `{"winnerId":"` + winnerID.String() + `"}`
	req := authedRequest(http.MethodPost, "/api/admin/v1/challenges/"+challenge.ID.String()+"/settle", body, actorID, map[string]string{"challengeId": challenge.ID.String()})
	resp := httptest.NewRecorder()
	AdminSettleChallenge(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload challengeResponse
	decodeData(t, resp, &payload)
	if payload.Status != string(enums.ChallengeStatusSettled) {
		t.Fatalf("expected settled status got %s", payload.Status)
	}
	if payload.WinnerID == nil || *payload.WinnerID != winnerID {
		t.Fatal("expected winner echoed back")
	}
}

func TestAdminSettleChallengeRequiresWinner(t *testing.T) {
	svc := &testChallengeService{
		settleFn: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*models.Challenge, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	challengeID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/admin/v1/challenges/"+challengeID.String()+"/settle", `{}`, uuid.New(), map[string]string{"challengeId": challengeID.String()})
	resp := httptest.NewRecorder()
	AdminSettleChallenge(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
