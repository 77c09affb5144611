package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(svc Services, auth *Authenticator) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(traceRequests)
	r.Use(logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/game", func(r chi.Router) {
			// POST /game/play is the original coin flip route.
			r.Post("/play", h.PlayCoinFlipHandler)
			r.Post("/coinflip/play", h.PlayCoinFlipHandler)
			r.Post("/roulette/play", h.PlayRouletteHandler)

			r.Post("/blackjack/start", h.StartBlackjackHandler)
			r.Post("/blackjack/hit", h.HitBlackjackHandler)
			r.Post("/blackjack/stand", h.StandBlackjackHandler)
		})

		r.Route("/wallets/me", func(r chi.Router) {
			r.Get("/", h.GetWalletHandler)
			r.Post("/deposit", h.DepositHandler)
			r.Post("/withdraw", h.WithdrawHandler)
			r.Get("/ledger", h.LedgerHandler)
		})

		r.Get("/me/games", h.ListGamesHandler)
		r.Get("/me/games/{gameId}", h.GetGameHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Get("/rule-types", h.RuleTypesHandler)
			r.Get("/rule-sets", h.ListRuleSetsHandler)
			r.Post("/rule-sets", h.CreateRuleSetHandler)
			r.Get("/rule-sets/{id}", h.GetRuleSetHandler)
			r.Delete("/rule-sets/{id}", h.DeleteRuleSetHandler)
			r.Post("/rule-sets/{id}/rules", h.AddRuleHandler)
			r.Post("/rule-sets/{id}/activate", h.ActivateRuleSetHandler)
			r.Post("/rule-sets/{id}/deactivate", h.DeactivateRuleSetHandler)
		})
	})

	return r
}
