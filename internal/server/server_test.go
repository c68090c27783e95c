package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/dinoventures/moneymanager/internal/config"
	"github.com/dinoventures/moneymanager/internal/logging"
)

func devConfig() config.Config {
	return config.Config{
		AppName:         "MoneyManager",
		AppEnv:          "development",
		Port:            "8080",
		JWTSecret:       "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		ShutdownPeriod:  time.Second,
		BalanceCacheTTL: 30 * time.Second,
	}
}

type apiClient struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	srv, err := New(devConfig(), nil, nil, logging.Discard())
	require.NoError(t, err)
	return &apiClient{t: t, app: srv.app}
}

func (c *apiClient) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(c.t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func (c *apiClient) doList(method, path string) (int, []map[string]any) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if c.token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	var decoded []map[string]any
	if len(raw) > 0 && raw[0] == '[' {
		require.NoError(c.t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func (c *apiClient) register(email string) {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/v1/auth/register", map[string]any{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           email,
		"password":        "correct-horse",
		"confirmPassword": "correct-horse",
	})
	require.Equal(c.t, http.StatusCreated, status, "register: %v", body)
	c.token = body["accessToken"].(string)
}

func TestHealthz(t *testing.T) {
	c := newAPIClient(t)
	status, _ := c.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestAuthFlow(t *testing.T) {
	c := newAPIClient(t)
	c.register("ada@example.com")

	status, body := c.do(http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["refreshToken"])

	status, refreshed := c.do(http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refreshToken": body["refreshToken"],
	})
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, refreshed["accessToken"])

	status, _ = c.do(http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodPost, "/api/v1/auth/register", map[string]any{
		"firstName":       "Ada",
		"lastName":        "Again",
		"email":           "ada@example.com",
		"password":        "correct-horse",
		"confirmPassword": "correct-horse",
	})
	require.Equal(t, http.StatusConflict, status)
}

func TestWalletLifecycle(t *testing.T) {
	c := newAPIClient(t)

	// Movements require authentication.
	status, _ := c.do(http.MethodPost, "/api/v1/wallets/top-up", map[string]any{
		"assetCode": "GOLD_COINS", "amount": "10.00", "idempotencyKey": "k",
	})
	require.Equal(t, http.StatusUnauthorized, status)

	c.register("ada@example.com")

	status, body := c.do(http.MethodPost, "/api/v1/wallets/top-up", map[string]any{
		"assetCode":      "GOLD_COINS",
		"amount":         "150.00",
		"idempotencyKey": "topup-1",
		"description":    "first load",
	})
	require.Equal(t, http.StatusCreated, status, "top-up: %v", body)
	require.Equal(t, "TOP_UP", body["movementKind"])
	require.Equal(t, "150.00", fmt.Sprint(body["amount"]))
	require.Equal(t, "150.00", fmt.Sprint(body["newCreditBalance"]))
	firstTx := body["transactionId"]

	// Same idempotency key: same transaction, balance unchanged.
	status, body = c.do(http.MethodPost, "/api/v1/wallets/top-up", map[string]any{
		"assetCode":      "GOLD_COINS",
		"amount":         "150.00",
		"idempotencyKey": "topup-1",
	})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, firstTx, body["transactionId"])

	status, body = c.do(http.MethodPost, "/api/v1/wallets/bonus", map[string]any{
		"assetCode":      "GOLD_COINS",
		"amount":         "25.00",
		"idempotencyKey": "bonus-1",
	})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "BONUS", body["movementKind"])

	status, body = c.do(http.MethodPost, "/api/v1/wallets/spend", map[string]any{
		"assetCode":      "GOLD_COINS",
		"amount":         "60.00",
		"idempotencyKey": "spend-1",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "SPEND", body["movementKind"])

	status, body = c.do(http.MethodGet, "/api/v1/wallets/balance/GOLD_COINS", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "115.00", fmt.Sprint(body["balance"]))

	status, entries := c.doList(http.MethodGet, "/api/v1/wallets/statement/GOLD_COINS")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, 3)
	require.Equal(t, "SPEND", entries[0]["movementKind"], "statement must be newest first")
	require.Equal(t, "60.00", fmt.Sprint(entries[0]["amount"]))
}

func TestWalletErrorShapes(t *testing.T) {
	c := newAPIClient(t)
	c.register("ada@example.com")

	// Overdraft reports the shortfall.
	status, body := c.do(http.MethodPost, "/api/v1/wallets/spend", map[string]any{
		"assetCode":      "GOLD_COINS",
		"amount":         "10.00",
		"idempotencyKey": "broke",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "INSUFFICIENT_BALANCE", body["code"])
	require.Equal(t, "0.00", fmt.Sprint(body["availableBalance"]))
	require.Equal(t, "10.00", fmt.Sprint(body["requiredAmount"]))

	status, body = c.do(http.MethodGet, "/api/v1/wallets/balance/PLATINUM", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", body["code"])

	status, body = c.do(http.MethodPost, "/api/v1/wallets/top-up", map[string]any{
		"assetCode": "GOLD_COINS",
		"amount":    "1.005",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "INVALID_INPUT", body["code"])
	require.NotNil(t, body["fields"])
}

func TestTransactionAndBudgetEndpoints(t *testing.T) {
	c := newAPIClient(t)
	c.register("ada@example.com")

	status, body := c.do(http.MethodPost, "/api/v1/transactions/", map[string]any{
		"type":        "EXPENSE",
		"category":    "Groceries",
		"amount":      "54.20",
		"date":        "2026-08-15",
		"description": "weekly shop",
	})
	require.Equal(t, http.StatusCreated, status, "create transaction: %v", body)
	require.Equal(t, "54.20", fmt.Sprint(body["amount"]))
	txID := fmt.Sprint(body["id"])

	status, list := c.doList(http.MethodGet, "/api/v1/transactions/")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)

	status, _ = c.do(http.MethodDelete, "/api/v1/transactions/"+txID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = c.do(http.MethodPost, "/api/v1/budgets/", map[string]any{
		"category":  "Groceries",
		"monthYear": "2026-08",
		"limit":     "400.00",
	})
	require.Equal(t, http.StatusCreated, status, "create budget: %v", body)
	require.Equal(t, "400.00", fmt.Sprint(body["limit"]))

	status, body = c.do(http.MethodPost, "/api/v1/budgets/", map[string]any{
		"category":  "Groceries",
		"monthYear": "2026-08",
		"limit":     "500.00",
	})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "CONFLICT", body["code"])
}

func TestProfileEndpoint(t *testing.T) {
	c := newAPIClient(t)
	c.register("ada@example.com")

	status, body := c.do(http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ada@example.com", body["email"])
	require.Equal(t, "Ada", body["firstName"])
}
