package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betchat/betchat-backend/api/controllers"
	"github.com/betchat/betchat-backend/api/middleware"
	"github.com/betchat/betchat-backend/internal/challenges"
	"github.com/betchat/betchat-backend/internal/events"
	"github.com/betchat/betchat-backend/internal/settlement"
	"github.com/betchat/betchat-backend/internal/staking"
	"github.com/betchat/betchat-backend/internal/wallet"
	"github.com/betchat/betchat-backend/pkg/config"
	"github.com/betchat/betchat-backend/pkg/db"
	"github.com/betchat/betchat-backend/pkg/enums"
	"github.com/betchat/betchat-backend/pkg/logger"
	"github.com/betchat/betchat-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	eventService events.Service,
	stakingService staking.Service,
	settlementService settlement.Service,
	challengeService challenges.Service,
	walletService wallet.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/events", func(r chi.Router) {
			r.Post("/", controllers.CreateEvent(eventService, logg))
			r.Get("/", controllers.ListEvents(eventService, logg))
			r.Get("/{eventId}", controllers.GetEvent(eventService, logg))
			r.Post("/{eventId}/join", controllers.JoinEvent(stakingService, logg))
			r.Get("/{eventId}/pool", controllers.EventPool(eventService, logg))
			r.Get("/{eventId}/participation/{userId}", controllers.EventParticipation(stakingService, logg))
			r.Get("/{eventId}/participants", controllers.EventParticipants(stakingService, logg))
			r.Post("/{eventId}/cancel", controllers.CancelEvent(eventService, logg))
		})

		r.Route("/challenges", func(r chi.Router) {
			r.Post("/", controllers.CreateChallenge(challengeService, logg))
			r.Get("/", controllers.ListChallenges(challengeService, logg))
			r.Get("/{challengeId}", controllers.GetChallenge(challengeService, logg))
			r.Post("/{challengeId}/accept", controllers.AcceptChallenge(challengeService, logg))
			r.Post("/{challengeId}/decline", controllers.DeclineChallenge(challengeService, logg))
			r.Post("/{challengeId}/cancel", controllers.CancelChallenge(challengeService, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletBalance(walletService, logg))
			r.Get("/entries", controllers.WalletEntries(walletService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/events/{eventId}/settle", controllers.AdminSettleEvent(settlementService, logg))
		r.Post("/challenges/{challengeId}/settle", controllers.AdminSettleChallenge(challengeService, logg))
	})

	return r
}
