package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"useradmin/internal/httpjson"
	"useradmin/internal/models"
	"useradmin/internal/store"
)

// UserStore defines the persistence operations the auth handlers need.
type UserStore interface {
	Insert(ctx context.Context, acc *models.Account) (string, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

// Handler holds the registration and login HTTP handlers.
type Handler struct {
	users  UserStore
	tokens *TokenService
}

func NewHandler(users UserStore, tokens *TokenService) *Handler {
	return &Handler{users: users, tokens: tokens}
}

// Register creates a new active account. No token is returned; the user logs
// in separately.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Non-empty is the whole password policy, by product requirement.
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if _, err := h.users.GetByEmail(r.Context(), req.Email); err == nil {
		httpjson.Error(w, http.StatusConflict, "user already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	acc := &models.Account{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hashed),
	}
	if _, err := h.users.Insert(r.Context(), acc); err != nil {
		// The unique index closes the check-then-insert race.
		if store.IsDuplicateEmail(err) {
			httpjson.Error(w, http.StatusConflict, "user already exists")
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpjson.Write(w, http.StatusCreated, map[string]string{"message": "user registered successfully"})
}

// Login verifies credentials against an active account and returns a signed
// session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	acc, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch acc.Status {
	case models.StatusBlocked:
		httpjson.Write(w, http.StatusForbidden, map[string]string{
			"error":     "user is blocked",
			"blockedBy": acc.BlockedBy.Hex(),
		})
		return
	case models.StatusDeleted:
		httpjson.Error(w, http.StatusForbidden, "user is deleted")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	if err := h.users.RecordLogin(r.Context(), acc.ID.Hex(), time.Now()); err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, err := h.tokens.Issue(acc.ID.Hex(), acc.Email)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{
		"message": "login successful",
		"token":   token,
	})
}
