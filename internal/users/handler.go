package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"useradmin/internal/httpjson"
	"useradmin/internal/middleware"
	"useradmin/internal/models"
	"useradmin/internal/store"
)

// Store defines the persistence operations the user handlers need.
type Store interface {
	List(ctx context.Context) ([]models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	SetBlocked(ctx context.Context, ids []string, blockedBy primitive.ObjectID) (int64, error)
	SetActive(ctx context.Context, ids []string) (int64, error)
	Remove(ctx context.Context, ids []string) (int64, error)
}

// ActionKind tags one of the bulk state transitions. All three share a single
// handler shape; only the store operation and result message differ.
type ActionKind int

const (
	ActionBlock ActionKind = iota
	ActionUnblock
	ActionDelete
)

// Handler holds the user listing, lookup, and bulk-action HTTP handlers.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List returns every account. Any authenticated caller sees (and may manage)
// all users; there is no pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accs, err := h.store.List(r.Context())
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if accs == nil {
		accs = []models.Account{}
	}
	httpjson.Write(w, http.StatusOK, accs)
}

// Get returns a single account by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	acc, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidID):
			httpjson.Error(w, http.StatusBadRequest, "invalid user id")
		case errors.Is(err, store.ErrNotFound):
			httpjson.Error(w, http.StatusNotFound, "user not found")
		default:
			httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	httpjson.Write(w, http.StatusOK, acc)
}

// Action returns the handler for one bulk state transition. Any authenticated
// caller may target any set of accounts, themself included; ids that match
// nothing are silently skipped.
func (h *Handler) Action(kind ActionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.BulkActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}

		caller := middleware.AccountFrom(r.Context())
		if caller == nil {
			httpjson.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}

		count, message, err := h.apply(r.Context(), kind, req.UserIDs, caller)
		if err != nil {
			httpjson.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}

		httpjson.Write(w, http.StatusOK, map[string]any{
			"message": message,
			"count":   count,
		})
	}
}

func (h *Handler) apply(ctx context.Context, kind ActionKind, ids []string, caller *models.Account) (int64, string, error) {
	switch kind {
	case ActionBlock:
		count, err := h.store.SetBlocked(ctx, ids, caller.ID)
		return count, "users blocked successfully", err
	case ActionUnblock:
		count, err := h.store.SetActive(ctx, ids)
		return count, "users unblocked successfully", err
	case ActionDelete:
		count, err := h.store.Remove(ctx, ids)
		return count, "users deleted successfully", err
	default:
		return 0, "", errors.New("unknown action")
	}
}
