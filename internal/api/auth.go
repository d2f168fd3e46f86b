package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/crypto/bcrypt"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

// tokenLifetime matches the gateway deployment's yearly reprovisioning cycle.
const tokenLifetime = 365 * 24 * time.Hour

type AuthHandler struct {
	db     *database.DB
	secret string
}

func NewAuthHandler(db *database.DB, secret string) *AuthHandler {
	return &AuthHandler{db: db, secret: secret}
}

// Login checks the username and bcrypt password hash and issues an HS256
// token. A missing user and a wrong password produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := DecodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("user lookup failed")
		WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := time.Now()
	claims := UserClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("token signing failed")
		WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

// Me returns the authenticated operator's identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())
	if claims == nil {
		WriteError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"id":       claims.UserID,
		"username": claims.Username,
	})
}

// Routes registers the authenticated half of the auth endpoints.
// Login is registered separately, outside the auth middleware.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Get("/auth/me", h.Me)
}
