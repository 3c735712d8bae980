package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// POST /auth/login  { "username": "...", "password": "..." }
func LoginHandler(a *AuthService, users *UserStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, err := users.Verify(r.Context(), req.Username, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			log.Info("login rejected", zap.String("username", req.Username))
			writeUnauthorized(w, "invalid credentials")
			return
		}
		if err != nil {
			log.Error("login lookup failed", zap.Error(err))
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loginResponse{AccessToken: tok, User: u})
	}
}
