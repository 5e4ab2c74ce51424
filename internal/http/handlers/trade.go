package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/waihong/stocksim-be/internal/http/respond"
	"github.com/waihong/stocksim-be/internal/ledger"
	"github.com/waihong/stocksim-be/internal/middleware"
	"github.com/waihong/stocksim-be/internal/models/dto"
)

// TradeHandler owns quote lookup and the buy/sell endpoints. All routes
// require an authenticated identity.
type TradeHandler struct {
	ledger *ledger.Service
	log    *logrus.Logger
}

// NewTradeHandler constructs the handler.
func NewTradeHandler(svc *ledger.Service, log *logrus.Logger) *TradeHandler {
	return &TradeHandler{ledger: svc, log: log}
}

// Register attaches the trade routes.
func (h *TradeHandler) Register(r chi.Router) {
	r.Get("/quote", h.handleQuote)
	r.Post("/quote", h.handleQuote)
	r.Get("/buy", h.handleBuyForm)
	r.Post("/buy", h.handleBuy)
	r.Get("/sell", h.handleSellForm)
	r.Post("/sell", h.handleSell)
}

func (h *TradeHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if r.Method == http.MethodPost {
		var req dto.QuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		symbol = req.Symbol
	}

	q, err := h.ledger.Quote(r.Context(), symbol)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "quote", q)
}

// handleBuyForm returns the data a buy form needs: the cash available.
func (h *TradeHandler) handleBuyForm(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountID(r.Context())
	account, err := h.ledger.Account(r.Context(), accountID)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "buy", map[string]any{"cash": account.Cash})
}

func (h *TradeHandler) handleBuy(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountID(r.Context())

	req, shares, ok := h.decodeTrade(w, r)
	if !ok {
		return
	}

	receipt, err := h.ledger.Buy(r.Context(), accountID, req.Symbol, shares)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "bought", receipt)
}

// handleSellForm returns the symbols the account can sell.
func (h *TradeHandler) handleSellForm(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountID(r.Context())
	symbols, err := h.ledger.SymbolsHeld(r.Context(), accountID)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "sell", map[string]any{"symbols": symbols})
}

func (h *TradeHandler) handleSell(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountID(r.Context())

	req, shares, ok := h.decodeTrade(w, r)
	if !ok {
		return
	}

	receipt, err := h.ledger.Sell(r.Context(), accountID, req.Symbol, shares)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "sold", receipt)
}

func (h *TradeHandler) decodeTrade(w http.ResponseWriter, r *http.Request) (dto.TradeRequest, int64, bool) {
	var req dto.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return req, 0, false
	}
	shares, err := ledger.ParseShareCount(req.Shares)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return req, 0, false
	}
	return req, shares, true
}
