package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastprodman/wagerengine/internal/errs"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/repos/entries"
	"github.com/fastprodman/wagerengine/internal/repos/records"
)

type walletResponse struct {
	UserID   uint64      `json:"user_id"`
	Balance  money.Minor `json:"balance"`
	Currency string      `json:"currency"`
}

// GetWalletHandler handles GET /wallets/me. The wallet is opened on first
// access.
func (h *HandlerProvider) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.Wallets.Open(r.Context(), userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, walletResponse{
		UserID:   wallet.UserID,
		Balance:  wallet.Balance,
		Currency: wallet.Currency,
	})
}

type amountRequest struct {
	Amount money.Minor `json:"amount"`
}

type balanceResponse struct {
	NewBalance money.Minor `json:"new_balance"`
	Message    string      `json:"message"`
}

// DepositHandler handles POST /wallets/me/deposit
func (h *HandlerProvider) DepositHandler(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	bal, err := h.svc.Wallets.Deposit(r.Context(), userFrom(r), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{NewBalance: bal, Message: "Deposited " + req.Amount.String()})
}

// WithdrawHandler handles POST /wallets/me/withdraw
func (h *HandlerProvider) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	bal, err := h.svc.Wallets.Withdraw(r.Context(), userFrom(r), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{NewBalance: bal, Message: "Withdrew " + req.Amount.String()})
}

// LedgerHandler handles GET /wallets/me/ledger?limit=&offset=
func (h *HandlerProvider) LedgerHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if limit == 0 {
		limit = 20
	}

	list, err := h.svc.Wallets.History(r.Context(), userFrom(r), min(limit, 100), offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if list == nil {
		list = []entries.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": list})
}

// ListGamesHandler handles GET /me/games?limit=&offset=&game_type=
func (h *HandlerProvider) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.svc.History.Games(r.Context(), records.Filter{
		UserID:   userFrom(r),
		GameType: records.GameType(r.URL.Query().Get("game_type")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if list == nil {
		list = []records.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"games": list})
}

// GetGameHandler handles GET /me/games/{gameId}
func (h *HandlerProvider) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "gameId"))
	if err != nil {
		writeError(w, r, errs.Validation("invalid gameId in path"))
		return
	}

	rec, err := h.svc.History.Game(r.Context(), userFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func page(r *http.Request) (limit, offset int, err error) {
	limit, err = queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}

	offset, err = queryInt(r, "offset")
	if err != nil {
		return 0, 0, err
	}

	return limit, offset, nil
}
