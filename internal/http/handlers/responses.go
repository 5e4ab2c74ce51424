package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/waihong/stocksim-be/internal/http/respond"
	"github.com/waihong/stocksim-be/internal/ledger"
	"github.com/waihong/stocksim-be/internal/storage"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("respondJSON: %v", err)
	}
}

// writeLedgerError maps the ledger error taxonomy onto HTTP statuses: 403 for
// credential failures, 409 for username conflicts, 502 when pricing is down,
// 400 for everything else the user can correct, 500 otherwise.
func writeLedgerError(w http.ResponseWriter, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidCredentials):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrUsernameTaken):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrQuoteUnavailable), errors.Is(err, ledger.ErrPricingUnavailable):
		respond.Error(w, http.StatusBadGateway, userMessage(err))
	case errors.Is(err, ledger.ErrMissingField),
		errors.Is(err, ledger.ErrConfirmationMismatch),
		errors.Is(err, ledger.ErrPasswordMismatch),
		errors.Is(err, ledger.ErrInvalidShareCount),
		errors.Is(err, ledger.ErrSymbolNotFound),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrNoHolding),
		errors.Is(err, ledger.ErrInsufficientShares):
		respond.Error(w, http.StatusBadRequest, userMessage(err))
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusForbidden, "authentication required")
	default:
		log.WithError(err).Error("request failed")
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// userMessage strips wrapped detail so provider internals never leak.
func userMessage(err error) string {
	for _, sentinel := range []error{
		ledger.ErrMissingField,
		ledger.ErrConfirmationMismatch,
		ledger.ErrPasswordMismatch,
		ledger.ErrInvalidShareCount,
		ledger.ErrSymbolNotFound,
		ledger.ErrQuoteUnavailable,
		ledger.ErrInsufficientFunds,
		ledger.ErrNoHolding,
		ledger.ErrInsufficientShares,
		ledger.ErrPricingUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
