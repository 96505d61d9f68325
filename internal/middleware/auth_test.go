package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"useradmin/internal/auth"
	"useradmin/internal/middleware"
	"useradmin/internal/models"
	"useradmin/internal/store"
)

// fakeAccountStore is an in-memory AccountStore keyed by object id hex.
type fakeAccountStore struct {
	accounts map[string]*models.Account
}

func (f *fakeAccountStore) GetByID(_ context.Context, id string) (*models.Account, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, store.ErrInvalidID
	}
	acc, ok := f.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccountStore) add(acc *models.Account) {
	f.accounts[acc.ID.Hex()] = acc
}

func newProtected(accounts *fakeAccountStore, tokens *auth.TokenService) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc := middleware.AccountFrom(r.Context())
		if acc == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(acc.Email))
	})
	return middleware.RequireAuth(tokens, accounts)(next)
}

func get(handler http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_NoToken(t *testing.T) {
	t.Parallel()

	h := newProtected(&fakeAccountStore{accounts: map[string]*models.Account{}}, auth.NewTokenService("s"))

	assert.Equal(t, http.StatusUnauthorized, get(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "Bearer ").Code)
}

func TestRequireAuth_BadToken(t *testing.T) {
	t.Parallel()

	tokens := auth.NewTokenService("s")
	h := newProtected(&fakeAccountStore{accounts: map[string]*models.Account{}}, tokens)

	assert.Equal(t, http.StatusForbidden, get(h, "Bearer not-a-jwt").Code)

	// Valid shape, wrong secret.
	forged, err := auth.NewTokenService("other-secret").Issue(primitive.NewObjectID().Hex(), "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(h, "Bearer "+forged).Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	secret := "s"
	claims := auth.Claims{
		Email: "a@b.c",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   primitive.NewObjectID().Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	h := newProtected(&fakeAccountStore{accounts: map[string]*models.Account{}}, auth.NewTokenService(secret))
	assert.Equal(t, http.StatusForbidden, get(h, "Bearer "+expired).Code)
}

func TestRequireAuth_AccountGone(t *testing.T) {
	t.Parallel()

	tokens := auth.NewTokenService("s")
	h := newProtected(&fakeAccountStore{accounts: map[string]*models.Account{}}, tokens)

	token, err := tokens.Issue(primitive.NewObjectID().Hex(), "gone@example.com")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, get(h, "Bearer "+token).Code)
}

func TestRequireAuth_Blocked(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{accounts: map[string]*models.Account{}}
	blocker := &models.Account{ID: primitive.NewObjectID(), Email: "boss@example.com", Name: "The Boss", Status: models.StatusActive}
	blocked := &models.Account{ID: primitive.NewObjectID(), Email: "b@example.com", Status: models.StatusBlocked, BlockedBy: blocker.ID}
	accounts.add(blocker)
	accounts.add(blocked)

	tokens := auth.NewTokenService("s")
	h := newProtected(accounts, tokens)

	token, err := tokens.Issue(blocked.ID.Hex(), blocked.Email)
	require.NoError(t, err)

	rec := get(h, "Bearer "+token)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user is blocked", resp["error"])
	assert.Equal(t, "The Boss", resp["blockedBy"])
}

func TestRequireAuth_BlockedByVanishedAccount(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{accounts: map[string]*models.Account{}}
	blocked := &models.Account{
		ID:        primitive.NewObjectID(),
		Email:     "b@example.com",
		Status:    models.StatusBlocked,
		BlockedBy: primitive.NewObjectID(), // blocker no longer exists
	}
	accounts.add(blocked)

	tokens := auth.NewTokenService("s")
	h := newProtected(accounts, tokens)

	token, err := tokens.Issue(blocked.ID.Hex(), blocked.Email)
	require.NoError(t, err)

	rec := get(h, "Bearer "+token)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Unknown", resp["blockedBy"])
}

func TestRequireAuth_Deleted(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{accounts: map[string]*models.Account{}}
	deleted := &models.Account{ID: primitive.NewObjectID(), Email: "d@example.com", Status: models.StatusDeleted}
	accounts.add(deleted)

	tokens := auth.NewTokenService("s")
	h := newProtected(accounts, tokens)

	token, err := tokens.Issue(deleted.ID.Hex(), deleted.Email)
	require.NoError(t, err)

	rec := get(h, "Bearer "+token)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user is deleted", resp["error"])
}

func TestRequireAuth_ActiveAccountPassesThrough(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{accounts: map[string]*models.Account{}}
	acc := &models.Account{ID: primitive.NewObjectID(), Email: "ok@example.com", Status: models.StatusActive}
	accounts.add(acc)

	tokens := auth.NewTokenService("s")
	h := newProtected(accounts, tokens)

	token, err := tokens.Issue(acc.ID.Hex(), acc.Email)
	require.NoError(t, err)

	rec := get(h, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok@example.com", rec.Body.String())
}

func TestRequireAuth_StatusRecheckedPerRequest(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{accounts: map[string]*models.Account{}}
	acc := &models.Account{ID: primitive.NewObjectID(), Email: "a@example.com", Status: models.StatusActive}
	accounts.add(acc)

	tokens := auth.NewTokenService("s")
	h := newProtected(accounts, tokens)

	token, err := tokens.Issue(acc.ID.Hex(), acc.Email)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, get(h, "Bearer "+token).Code)

	// Block after issuance: the same token must fail on the very next call.
	acc.Status = models.StatusBlocked
	acc.BlockedBy = acc.ID
	assert.Equal(t, http.StatusForbidden, get(h, "Bearer "+token).Code)

	// And succeed again once unblocked, without reissuing the token.
	acc.Status = models.StatusActive
	assert.Equal(t, http.StatusOK, get(h, "Bearer "+token).Code)
}
