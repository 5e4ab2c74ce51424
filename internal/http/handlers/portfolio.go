package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/waihong/stocksim-be/internal/http/respond"
	"github.com/waihong/stocksim-be/internal/ledger"
	"github.com/waihong/stocksim-be/internal/middleware"
)

// PortfolioHandler serves the home portfolio view and the transaction
// history.
type PortfolioHandler struct {
	ledger *ledger.Service
	log    *logrus.Logger
}

// NewPortfolioHandler constructs the handler.
func NewPortfolioHandler(svc *ledger.Service, log *logrus.Logger) *PortfolioHandler {
	return &PortfolioHandler{ledger: svc, log: log}
}

// Register attaches the portfolio routes.
func (h *PortfolioHandler) Register(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/history", h.handleHistory)
}

func (h *PortfolioHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountID(r.Context())
	portfolio, err := h.ledger.Portfolio(r.Context(), accountID)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "portfolio", portfolio)
}

func (h *PortfolioHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountID(r.Context())
	history, err := h.ledger.History(r.Context(), accountID)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "history", history)
}
