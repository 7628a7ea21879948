package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/cryptofolio/api/internal/auth"
	"github.com/cryptofolio/api/internal/config"
	"github.com/cryptofolio/api/internal/db"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testDB     *db.DB
	testAuth   *auth.Service
	testRouter chi.Router
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	cfg := config.Load()

	ctx := context.Background()
	var err error
	testDB, err = db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer testDB.Close()

	migration, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to read migration: %v\n", err)
		os.Exit(1)
	}
	if _, err := testDB.Pool.Exec(ctx, string(migration)); err != nil && !strings.Contains(err.Error(), "already exists") {
		fmt.Fprintf(os.Stderr, "Unable to apply migration: %v\n", err)
		os.Exit(1)
	}

	testAuth = auth.NewService(testDB, cfg.SecretKey, cfg.BcryptWorkFactor)
	testRouter = NewHandler(testDB, testAuth, zap.NewNop()).Router()

	os.Exit(m.Run())
}

func cleanupDB(t *testing.T) {
	t.Helper()
	_, err := testDB.Pool.Exec(context.Background(),
		"TRUNCATE TABLE users, wallets, watchlists, transactions RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

// doRequest runs one request through the router. A non-nil body is sent as
// JSON; a non-empty token goes into the Authorization header.
func doRequest(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	testRouter.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// registerUser creates a user through the API and returns their token.
func registerUser(t *testing.T, username string) string {
	t.Helper()
	rec := doRequest(t, http.MethodPost, "/users", map[string]any{
		"username":           username,
		"password":           "password-" + username,
		"email":              username + "@example.com",
		"nativeFiatCurrency": "USD",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeResponse(t, rec)
	token, ok := body["token"].(string)
	require.True(t, ok, "registration response missing token")
	return token
}

func TestRegisterUser(t *testing.T) {
	cleanupDB(t)

	rec := doRequest(t, http.MethodPost, "/users", map[string]any{
		"username":           "u1",
		"password":           "password1",
		"email":              "u1@example.com",
		"nativeFiatCurrency": "USD",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeResponse(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "u1", user["username"])
	assert.Equal(t, "u1@example.com", user["email"])
	assert.Equal(t, "USD", user["nativeFiatCurrency"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotEmpty(t, body["token"])

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{
			name:    "DuplicateUsername",
			payload: map[string]any{"username": "u1", "password": "password1", "email": "other@example.com", "nativeFiatCurrency": "USD"},
		},
		{
			name:    "MissingFields",
			payload: map[string]any{"username": "u-new"},
		},
		{
			name:    "InvalidEmail",
			payload: map[string]any{"username": "u-new", "password": "password1", "email": "not-an-email", "nativeFiatCurrency": "USD"},
		},
		{
			name:    "UnknownField",
			payload: map[string]any{"username": "u-new", "password": "password1", "email": "new@example.com", "nativeFiatCurrency": "USD", "isAdmin": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, http.MethodPost, "/users", tt.payload, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestLogin(t *testing.T) {
	cleanupDB(t)
	registerUser(t, "u1")

	rec := doRequest(t, http.MethodPost, "/auth/token", map[string]any{
		"username": "u1",
		"password": "password-u1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decodeResponse(t, rec)["token"])

	rec = doRequest(t, http.MethodPost, "/auth/token", map[string]any{
		"username": "u1",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, http.MethodPost, "/auth/token", map[string]any{
		"username": "ghost",
		"password": "whatever",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserRoutes(t *testing.T) {
	cleanupDB(t)
	u1Token := registerUser(t, "u1")
	u2Token := registerUser(t, "u2")

	t.Run("ListUsersAlwaysUnauthorized", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/users", nil, u1Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doRequest(t, http.MethodGet, "/users", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("GetOwnProfile", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/users/u1", nil, u1Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		user := decodeResponse(t, rec)["user"].(map[string]any)
		assert.Equal(t, "u1", user["username"])
		assert.Equal(t, "u1@example.com", user["email"])
	})

	t.Run("GetOtherProfileUnauthorized", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/users/u1", nil, u2Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("PatchProfile", func(t *testing.T) {
		rec := doRequest(t, http.MethodPatch, "/users/u1", map[string]any{
			"nativeFiatCurrency": "EUR",
		}, u1Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		user := decodeResponse(t, rec)["user"].(map[string]any)
		assert.Equal(t, "EUR", user["nativeFiatCurrency"])
	})

	t.Run("PatchEmptyPayload", func(t *testing.T) {
		rec := doRequest(t, http.MethodPatch, "/users/u1", map[string]any{}, u1Token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("PatchPasswordRehashes", func(t *testing.T) {
		rec := doRequest(t, http.MethodPatch, "/users/u1", map[string]any{
			"password": "brand-new-pass",
		}, u1Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doRequest(t, http.MethodPost, "/auth/token", map[string]any{
			"username": "u1", "password": "password-u1",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "old password still accepted")

		rec = doRequest(t, http.MethodPost, "/auth/token", map[string]any{
			"username": "u1", "password": "brand-new-pass",
		}, "")
		assert.Equal(t, http.StatusOK, rec.Code, "new password rejected")
	})

	t.Run("DeleteAccount", func(t *testing.T) {
		rec := doRequest(t, http.MethodDelete, "/users/u2", nil, u2Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "u2", decodeResponse(t, rec)["deleted"])

		rec = doRequest(t, http.MethodPost, "/auth/token", map[string]any{
			"username": "u2", "password": "password-u2",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestWalletRoutes(t *testing.T) {
	cleanupDB(t)
	u1Token := registerUser(t, "u1")
	u2Token := registerUser(t, "u2")

	var walletID float64

	t.Run("Create", func(t *testing.T) {
		rec := doRequest(t, http.MethodPost, "/wallets", map[string]any{
			"userId":         "u1",
			"currencyName":   "BTC",
			"currencyAmount": 0.1,
			"currencyType":   "crypto",
		}, u1Token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		wallet := decodeResponse(t, rec)["wallet"].(map[string]any)
		assert.Equal(t, "u1", wallet["userId"])
		assert.Equal(t, "BTC", wallet["currencyName"])
		assert.Equal(t, 0.1, wallet["currencyAmount"])
		assert.Equal(t, "crypto", wallet["currencyType"])
		require.NotNil(t, wallet["id"])
		walletID = wallet["id"].(float64)
	})

	t.Run("CreateForOtherUserUnauthorized", func(t *testing.T) {
		rec := doRequest(t, http.MethodPost, "/wallets", map[string]any{
			"userId":         "u1",
			"currencyName":   "BTC",
			"currencyAmount": 0.1,
			"currencyType":   "crypto",
		}, u2Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		tests := []struct {
			name    string
			payload map[string]any
		}{
			{"MissingFields", map[string]any{"userId": "u1"}},
			{"BadAmountType", map[string]any{"userId": "u1", "currencyName": "BTC", "currencyAmount": "not-a-number", "currencyType": "crypto"}},
			{"NegativeAmount", map[string]any{"userId": "u1", "currencyName": "BTC", "currencyAmount": -1, "currencyType": "crypto"}},
			{"BadCurrencyType", map[string]any{"userId": "u1", "currencyName": "BTC", "currencyAmount": 1, "currencyType": "stock"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := doRequest(t, http.MethodPost, "/wallets", tt.payload, u1Token)
				assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			})
		}
	})

	t.Run("List", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/wallets", nil, u1Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		wallets := decodeResponse(t, rec)["wallets"].([]any)
		assert.Len(t, wallets, 1)

		// An explicit filter for someone else's wallets is rejected.
		rec = doRequest(t, http.MethodGet, "/wallets?userId=u1", nil, u2Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		// A user with no holdings gets an empty list.
		rec = doRequest(t, http.MethodGet, "/wallets", nil, u2Token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeResponse(t, rec)["wallets"])
	})

	t.Run("Get", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, fmt.Sprintf("/wallets/%.0f", walletID), nil, u1Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		wallet := decodeResponse(t, rec)["wallet"].(map[string]any)
		assert.Equal(t, walletID, wallet["id"])

		rec = doRequest(t, http.MethodGet, "/wallets/0", nil, u1Token)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(t, http.MethodGet, fmt.Sprintf("/wallets/%.0f", walletID), nil, u2Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Patch", func(t *testing.T) {
		rec := doRequest(t, http.MethodPatch, fmt.Sprintf("/wallets/%.0f", walletID), map[string]any{
			"currencyAmount": 2000,
		}, u1Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		wallet := decodeResponse(t, rec)["wallet"].(map[string]any)
		assert.Equal(t, float64(2000), wallet["currencyAmount"])
		assert.Equal(t, "BTC", wallet["currencyName"])

		rec = doRequest(t, http.MethodPatch, fmt.Sprintf("/wallets/%.0f", walletID), map[string]any{
			"id": 10,
		}, u1Token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id change attempt accepted")

		rec = doRequest(t, http.MethodPatch, fmt.Sprintf("/wallets/%.0f", walletID), map[string]any{}, u1Token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "empty payload accepted")

		rec = doRequest(t, http.MethodPatch, fmt.Sprintf("/wallets/%.0f", walletID), map[string]any{
			"currencyAmount": 1,
		}, u2Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doRequest(t, http.MethodPatch, "/wallets/0", map[string]any{
			"currencyAmount": 1,
		}, u1Token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := doRequest(t, http.MethodDelete, fmt.Sprintf("/wallets/%.0f", walletID), nil, u2Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doRequest(t, http.MethodDelete, fmt.Sprintf("/wallets/%.0f", walletID), nil, u1Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, walletID, decodeResponse(t, rec)["deleted"])

		rec = doRequest(t, http.MethodGet, fmt.Sprintf("/wallets/%.0f", walletID), nil, u1Token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("NoToken", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/wallets", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestWatchlistRoutes(t *testing.T) {
	cleanupDB(t)
	u1Token := registerUser(t, "u1")
	u2Token := registerUser(t, "u2")

	rec := doRequest(t, http.MethodPost, "/watchlists", map[string]any{
		"userId":     "u1",
		"cryptoName": "BTC",
	}, u1Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decodeResponse(t, rec)["watchlist"].(map[string]any)
	assert.Equal(t, "BTC", entry["cryptoName"])
	entryID := entry["id"].(float64)

	// Table-wide duplicate rule: u2 cannot watch BTC once u1 does.
	rec = doRequest(t, http.MethodPost, "/watchlists", map[string]any{
		"userId":     "u2",
		"cryptoName": "BTC",
	}, u2Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, http.MethodPost, "/watchlists", map[string]any{
		"userId":     "u1",
		"cryptoName": "ETH",
	}, u1Token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, http.MethodGet, "/watchlists", nil, u1Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entries := decodeResponse(t, rec)["watchlists"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "BTC", entries[0].(map[string]any)["cryptoName"])
	assert.Equal(t, "ETH", entries[1].(map[string]any)["cryptoName"])

	rec = doRequest(t, http.MethodGet, fmt.Sprintf("/watchlists/%.0f", entryID), nil, u2Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, http.MethodDelete, fmt.Sprintf("/watchlists/%.0f", entryID), nil, u1Token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, http.MethodGet, fmt.Sprintf("/watchlists/%.0f", entryID), nil, u1Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionRoutes(t *testing.T) {
	cleanupDB(t)
	u1Token := registerUser(t, "u1")
	u2Token := registerUser(t, "u2")

	payload := map[string]any{
		"userId":              "u1",
		"transactionType":     "buy",
		"startCurrencyName":   "USD",
		"startCurrencyAmount": 2000,
		"startCurrencyType":   "fiat",
		"endCurrencyName":     "BTC",
		"endCurrencyAmount":   0.1,
		"endCurrencyType":     "crypto",
		"timestampUtc":        "2023-04-29T18:44:00Z",
	}

	rec := doRequest(t, http.MethodPost, "/transactions", payload, u1Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decodeResponse(t, rec)["transaction"].(map[string]any)
	assert.Equal(t, "buy", tx["transactionType"])
	assert.Equal(t, float64(2000), tx["startCurrencyAmount"])
	txID := tx["id"].(float64)

	t.Run("InvalidType", func(t *testing.T) {
		bad := map[string]any{}
		for k, v := range payload {
			bad[k] = v
		}
		bad["transactionType"] = "transfer"
		rec := doRequest(t, http.MethodPost, "/transactions", bad, u1Token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("CreateForOtherUser", func(t *testing.T) {
		rec := doRequest(t, http.MethodPost, "/transactions", payload, u2Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ListAndGet", func(t *testing.T) {
		rec := doRequest(t, http.MethodGet, "/transactions", nil, u1Token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeResponse(t, rec)["transactions"].([]any), 1)

		rec = doRequest(t, http.MethodGet, fmt.Sprintf("/transactions/%.0f", txID), nil, u1Token)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(t, http.MethodGet, fmt.Sprintf("/transactions/%.0f", txID), nil, u2Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doRequest(t, http.MethodGet, "/transactions/0", nil, u1Token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("LedgerIsImmutable", func(t *testing.T) {
		// No PATCH or DELETE route exists for the ledger at all.
		rec := doRequest(t, http.MethodPatch, fmt.Sprintf("/transactions/%.0f", txID), map[string]any{
			"endCurrencyAmount": 99,
		}, u1Token)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

		rec = doRequest(t, http.MethodDelete, fmt.Sprintf("/transactions/%.0f", txID), nil, u1Token)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
