package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/games/coin"
	"github.com/fastprodman/wagerengine/internal/games/roulette"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/entries"
	"github.com/fastprodman/wagerengine/internal/repos/records"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
	"github.com/fastprodman/wagerengine/internal/rules"
	"github.com/fastprodman/wagerengine/internal/services/blackjack"
	"github.com/fastprodman/wagerengine/internal/services/instant"
)

type Wallets interface {
	Open(ctx context.Context, userID uint64) (wallets.Wallet, error)
	Deposit(ctx context.Context, userID uint64, amount money.Minor) (money.Minor, error)
	Withdraw(ctx context.Context, userID uint64, amount money.Minor) (money.Minor, error)
	History(ctx context.Context, userID uint64, limit, offset int) ([]entries.Entry, error)
}

type InstantGames interface {
	PlayCoinFlip(ctx context.Context, userID uint64, choice coin.Side, stake money.Minor) (instant.CoinFlipResult, error)
	PlayRoulette(ctx context.Context, userID uint64, bet roulette.Bet, stake money.Minor) (instant.RouletteResult, error)
}

type Blackjack interface {
	Start(ctx context.Context, userID uint64, stake money.Minor) (blackjack.Hand, error)
	Hit(ctx context.Context, userID uint64) (blackjack.Hand, error)
	Stand(ctx context.Context, userID uint64) (blackjack.Hand, error)
}

type Registry interface {
	Create(ctx context.Context, name, description string, houseEdge decimal.Decimal) (rules.RuleSet, error)
	AddRule(ctx context.Context, id int64, t rules.RuleType, param decimal.Decimal) (rules.Rule, error)
	Activate(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (rules.RuleSet, error)
	List(ctx context.Context) ([]rules.RuleSet, error)
	RuleTypes() []rules.TypeInfo
}

type History interface {
	Games(ctx context.Context, f records.Filter) ([]records.Record, error)
	Game(ctx context.Context, userID uint64, id uuid.UUID) (records.Record, error)
}

// Services are the engine operations exposed over HTTP.
type Services struct {
	Wallets   Wallets
	Games     InstantGames
	Blackjack Blackjack
	Registry  Registry
	History   History
}

// HandlerProvider exposes the engine services as HTTP handlers.
type HandlerProvider struct {
	svc Services
}

// NewHandler returns a new Handler provider.
func NewHandler(svc Services) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		// Headers are already sent; the client sees a truncated body.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeStatus(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Message: msg, Code: code})
}

// writeError maps err onto a status by its kind. Unclassified errors are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeStatus(w, status, errs.Code(err), "internal error")

		return
	}

	msg := errs.Message(err)
	if msg == "" {
		msg = http.StatusText(status)
	}

	writeStatus(w, status, errs.Code(err), msg)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrInsufficientFunds), errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size-capped body into dst and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Validation("empty body")
		}

		return errs.Newf(errs.ErrValidation, "invalid JSON body: %v", err)
	}

	return nil
}

// parseIDParam reads a positive integer route parameter such as `{id}` in
//
//	GET /admin/rule-sets/{id}
func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Newf(errs.ErrValidation, "invalid %s in path", name)
	}

	return id, nil
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errs.Newf(errs.ErrValidation, "%s must be a non-negative integer", name)
	}

	return v, nil
}

func winMessage(m money.Minor) string {
	return fmt.Sprintf("Congratulations, you won %s!", m)
}
