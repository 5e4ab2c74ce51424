package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/waihong/stocksim-be/internal/auth"
	"github.com/waihong/stocksim-be/internal/http/respond"
	"github.com/waihong/stocksim-be/internal/ledger"
	"github.com/waihong/stocksim-be/internal/middleware"
	"github.com/waihong/stocksim-be/internal/models"
	"github.com/waihong/stocksim-be/internal/models/dto"
)

// AuthHandler owns the register/login/logout/change_password endpoints.
type AuthHandler struct {
	ledger *ledger.Service
	tokens *auth.TokenManager
	log    *logrus.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc *ledger.Service, tokens *auth.TokenManager, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{ledger: svc, tokens: tokens, log: log}
}

// Register attaches the public auth routes.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
}

// RegisterProtected attaches routes that need an authenticated identity.
func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Post("/change_password", h.handleChangePassword)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	account, err := h.ledger.Register(r.Context(), req.Username, req.Password, req.Confirmation)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return
	}

	// A fresh registration establishes an authenticated identity.
	token, err := h.issueSession(w, account)
	if err != nil {
		h.log.WithError(err).Error("generate token")
		respond.Error(w, http.StatusInternalServerError, "failed to establish session")
		return
	}
	respond.JSON(w, http.StatusCreated, "account created",
		dto.SessionResponse{Token: token, Account: account})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	account, err := h.ledger.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeLedgerError(w, h.log, err)
		return
	}

	token, err := h.issueSession(w, account)
	if err != nil {
		h.log.WithError(err).Error("generate token")
		respond.Error(w, http.StatusInternalServerError, "failed to establish session")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful",
		dto.SessionResponse{Token: token, Account: account})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountID(r.Context())
	if !ok {
		respond.Error(w, http.StatusForbidden, "authentication required")
		return
	}

	var req dto.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.ledger.ChangePassword(r.Context(), accountID, req.Password, req.NewPassword, req.Confirmation); err != nil {
		writeLedgerError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "password updated", nil)
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, account models.Account) (string, error) {
	token, err := h.tokens.Generate(account)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}
