package auth

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginHandler checks the password against the bcrypt hash in
// AUTH_PASSWORD_HASH and issues a token. AUTH_USERNAME defaults to "admin".
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"username and password are required"}`, http.StatusBadRequest)
		return
	}

	username := os.Getenv("AUTH_USERNAME")
	if username == "" {
		username = "admin"
	}
	hash := os.Getenv("AUTH_PASSWORD_HASH")
	if hash == "" {
		log.Error().Msg("AUTH_PASSWORD_HASH is not set, login disabled")
		http.Error(w, `{"error":"login not configured"}`, http.StatusServiceUnavailable)
		return
	}

	if req.Username != username || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		log.Warn().Str("username", req.Username).Msg("failed login")
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := GenerateToken(username)
	if err != nil {
		http.Error(w, `{"error":"failed to generate token"}`, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(LoginResponse{
		Token:     token,
		Username:  username,
		ExpiresAt: expiresAt,
	})
}
