package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"quizrush/internal/auth"
)

// AuthHandler issues the opaque host credential. The engine never sees it;
// it gates host-facing HTTP surfaces only.
type AuthHandler struct {
	tokens   *auth.Service
	password string
	logger   *zap.Logger
}

func NewAuthHandler(tokens *auth.Service, password string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, password: password, logger: logger}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// ServeLogin exchanges the admin password for a host token.
func (h *AuthHandler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) != 1 {
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}
	token, err := h.tokens.Issue(auth.RoleHost)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err))
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{Token: token})
}

// RequireHost wraps a handler with Bearer-token validation.
func RequireHost(tokens *auth.Service, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		if _, err := tokens.Validate(token); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
