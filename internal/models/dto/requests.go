package dto

import "github.com/waihong/stocksim-be/internal/models"

type RegisterRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token   string         `json:"token"`
	Account models.Account `json:"account"`
}

type QuoteRequest struct {
	Symbol string `json:"symbol"`
}

// TradeRequest carries the buy/sell form input. Shares arrive as the raw
// string the user typed; the ledger decides what counts as a valid count.
type TradeRequest struct {
	Symbol string `json:"symbol"`
	Shares string `json:"shares"`
}

type ChangePasswordRequest struct {
	Password     string `json:"password"`
	NewPassword  string `json:"new_password"`
	Confirmation string `json:"confirmation"`
}
