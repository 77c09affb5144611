package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fastprodman/wagerengine/internal/cards"
	"github.com/fastprodman/wagerengine/internal/errs"
	bjgame "github.com/fastprodman/wagerengine/internal/games/blackjack"
	"github.com/fastprodman/wagerengine/internal/games/coin"
	"github.com/fastprodman/wagerengine/internal/games/roulette"
	"github.com/fastprodman/wagerengine/internal/money"
	"github.com/fastprodman/wagerengine/internal/payout"
	"github.com/fastprodman/wagerengine/internal/services/blackjack"
)

type coinFlipRequest struct {
	Choice string      `json:"choice"`
	Amount money.Minor `json:"amount"`
}

type coinFlipResponse struct {
	GameID     uuid.UUID   `json:"game_id"`
	Result     string      `json:"result"`
	YourChoice string      `json:"your_choice"`
	IsWin      bool        `json:"is_win"`
	Payout     money.Minor `json:"payout"`
	NewBalance money.Minor `json:"new_balance"`
	Message    string      `json:"message"`
}

// PlayCoinFlipHandler handles POST /game/coinflip/play
func (h *HandlerProvider) PlayCoinFlipHandler(w http.ResponseWriter, r *http.Request) {
	var req coinFlipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	choice, err := coin.ParseSide(req.Choice)
	if err != nil {
		writeError(w, r, errs.Validation(err.Error()))
		return
	}

	res, err := h.svc.Games.PlayCoinFlip(r.Context(), userFrom(r), choice, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := "You lost."
	if res.Result.Outcome == payout.Win {
		msg = winMessage(res.Result.Payout)
	}

	writeJSON(w, http.StatusOK, coinFlipResponse{
		GameID:     res.GameID,
		Result:     res.Outcome.Wire(),
		YourChoice: res.Choice.Wire(),
		IsWin:      res.Result.Outcome == payout.Win,
		Payout:     res.Result.Payout,
		NewBalance: res.Balance,
		Message:    msg,
	})
}

type rouletteRequest struct {
	BetType  string      `json:"bet_type"`
	BetValue any         `json:"bet_value"`
	Amount   money.Minor `json:"amount"`
}

type rouletteResponse struct {
	GameID        uuid.UUID        `json:"game_id"`
	BetType       roulette.BetType `json:"bet_type"`
	BetValue      string           `json:"bet_value"`
	WinningNumber roulette.Pocket  `json:"winning_number"`
	WinningColor  roulette.Color   `json:"winning_color"`
	IsWin         bool             `json:"is_win"`
	Payout        money.Minor      `json:"payout"`
	NewBalance    money.Minor      `json:"new_balance"`
	Message       string           `json:"message"`
}

// PlayRouletteHandler handles POST /game/roulette/play
func (h *HandlerProvider) PlayRouletteHandler(w http.ResponseWriter, r *http.Request) {
	var req rouletteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// Number bets may arrive as JSON numbers.
	var value string
	switch v := req.BetValue.(type) {
	case string:
		value = v
	case float64:
		if v != math.Trunc(v) {
			writeError(w, r, errs.Validation("number bet must be a whole number"))
			return
		}

		value = strconv.FormatFloat(v, 'f', 0, 64)
	default:
		writeError(w, r, errs.Validation("bet_value is required"))
		return
	}

	bet, err := roulette.ParseBet(req.BetType, value)
	if err != nil {
		writeError(w, r, errs.Validation(err.Error()))
		return
	}

	res, err := h.svc.Games.PlayRoulette(r.Context(), userFrom(r), bet, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	isWin := res.Result.Outcome == payout.Win

	msg := "You lost."
	if isWin {
		msg = winMessage(res.Result.Payout)
	}

	writeJSON(w, http.StatusOK, rouletteResponse{
		GameID:        res.GameID,
		BetType:       bet.Type,
		BetValue:      bet.Value(),
		WinningNumber: res.Pocket,
		WinningColor:  res.Pocket.Color(),
		IsWin:         isWin,
		Payout:        res.Result.Payout,
		NewBalance:    res.Balance,
		Message:       msg,
	})
}

type blackjackStartRequest struct {
	Amount money.Minor `json:"amount"`
}

// blackjackResponse always carries the dealer up card, and the full
// resolution once the hand is over.
type blackjackResponse struct {
	GameID      uuid.UUID    `json:"game_id"`
	Status      string       `json:"status"`
	Stake       money.Minor  `json:"stake"`
	PlayerHand  cards.Hand   `json:"player_hand"`
	PlayerValue int          `json:"player_value"`
	DealerCard  *cards.Card  `json:"dealer_card,omitempty"`
	DealerHand  cards.Hand   `json:"dealer_hand,omitempty"`
	DealerValue *int         `json:"dealer_value,omitempty"`
	Result      string       `json:"result,omitempty"`
	Payout      *money.Minor `json:"payout,omitempty"`
	NewBalance  money.Minor  `json:"new_balance"`
	Message     string       `json:"message,omitempty"`
}

func newBlackjackResponse(hand blackjack.Hand) blackjackResponse {
	up := hand.Table.UpCard()
	resp := blackjackResponse{
		GameID:      hand.GameID,
		Stake:       hand.Stake,
		PlayerHand:  hand.Table.Player,
		PlayerValue: hand.Table.Player.Value(),
		DealerCard:  &up,
		NewBalance:  hand.Balance,
	}

	if hand.Result == nil {
		resp.Status = "active"

		return resp
	}

	res := hand.Result
	dealerValue := hand.Table.Dealer.Value()
	resp.DealerHand = hand.Table.Dealer
	resp.DealerValue = &dealerValue
	resp.Result = strings.ToLower(string(res.Outcome))
	resp.Payout = &res.Payout

	switch {
	case hand.Table.State == bjgame.PlayerBust:
		resp.Status = "bust"
		resp.Message = "Bust! You lost."
	case res.Natural && res.Outcome == payout.Win:
		resp.Status = "blackjack"
		resp.Message = "Blackjack! You won!"
	default:
		resp.Status = "finished"
		resp.Message = resolutionMessage(hand)
	}

	return resp
}

func resolutionMessage(hand blackjack.Hand) string {
	switch hand.Result.Outcome {
	case payout.Push:
		return "Push. Your stake is returned."
	case payout.Win:
		if hand.Table.Dealer.IsBust() {
			return "Dealer busts! You won!"
		}

		return "You won!"
	default:
		return "Dealer wins."
	}
}

// StartBlackjackHandler handles POST /game/blackjack/start
func (h *HandlerProvider) StartBlackjackHandler(w http.ResponseWriter, r *http.Request) {
	var req blackjackStartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	hand, err := h.svc.Blackjack.Start(r.Context(), userFrom(r), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newBlackjackResponse(hand))
}

// HitBlackjackHandler handles POST /game/blackjack/hit
func (h *HandlerProvider) HitBlackjackHandler(w http.ResponseWriter, r *http.Request) {
	hand, err := h.svc.Blackjack.Hit(r.Context(), userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newBlackjackResponse(hand))
}

// StandBlackjackHandler handles POST /game/blackjack/stand
func (h *HandlerProvider) StandBlackjackHandler(w http.ResponseWriter, r *http.Request) {
	hand, err := h.svc.Blackjack.Stand(r.Context(), userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newBlackjackResponse(hand))
}
