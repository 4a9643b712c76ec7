package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/go-repairs/auth"
	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/logger"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	accounts     *services.AccountService
	tokens       *auth.Manager
	secureCookie bool
}

func NewAuthHandler(accounts *services.AccountService, tokens *auth.Manager, secureCookie bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, secureCookie: secureCookie}
}

type sessionResponse struct {
	Token         string                `json:"token"`
	ExpiresAt     time.Time             `json:"expires_at"`
	User          *models.User          `json:"user"`
	Establishment *models.Establishment `json:"establishment,omitempty"`
}

// Signup registers a shop and opens a session.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	user, est, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("establishment registered",
		zap.Uint("user_id", user.ID), zap.Uint("establishment_id", est.ID))
	h.startSession(w, r, http.StatusCreated, user, est)
}

// Login opens a session for valid credentials.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	user, err := h.accounts.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.startSession(w, r, http.StatusOK, user, nil)
}

// Logout revokes the current token and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		if err := h.tokens.Revoke(r.Context(), claims); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *models.User, est *models.Establishment) {
	token, claims, err := h.tokens.Issue(user.ID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	expires := claims.ExpiresAt.Time
	auth.SetSessionCookie(w, token, expires, h.secureCookie)
	httpx.JSON(w, status, sessionResponse{Token: token, ExpiresAt: expires, User: user, Establishment: est})
}
