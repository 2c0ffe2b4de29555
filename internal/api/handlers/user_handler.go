package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/microlearn-be/internal/apperrors"
	"github.com/isdelr/microlearn-be/internal/auth"
	"github.com/isdelr/microlearn-be/internal/services"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, r, apperrors.Validation("Invalid request body"))
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login exchanges credentials for a bearer token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload services.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, r, apperrors.Validation("Invalid request body"))
		return
	}

	session, err := h.service.Login(r.Context(), payload)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Login successful",
		"access_token": session.AccessToken,
		"token_type":   session.TokenType,
		"expires_in":   int(session.ExpiresIn.Seconds()),
		"role":         session.User.Role,
		"user":         session.User,
	})
}

// GetMe returns the account of the authenticated caller.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, apperrors.Unauthenticated("missing identity"))
		return
	}

	user, err := h.service.GetByUsername(r.Context(), id.Subject)
	if err != nil {
		log.Warn().Err(err).Str("username", id.Subject).Msg("User from token not found")
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout acknowledges a logout. Tokens are stateless, so the client discards
// its own copy and nothing is revoked server-side.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
