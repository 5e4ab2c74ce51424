package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waihong/stocksim-be/internal/auth"
	"github.com/waihong/stocksim-be/internal/ledger"
	"github.com/waihong/stocksim-be/internal/models"
	"github.com/waihong/stocksim-be/internal/quote"
	"github.com/waihong/stocksim-be/internal/storage/memory"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*httptest.Server, *http.Client, *quote.StaticProvider) {
	t.Helper()

	provider := quote.NewStaticProvider()
	provider.Set(quote.Quote{Symbol: "TST", Name: "Test Corp", Price: decimal.RequireFromString("50.00")})
	svc := ledger.NewService(memory.NewStore(), provider, decimal.NewFromInt(10000))

	log := logrus.New()
	log.SetOutput(io.Discard)
	tokens := auth.NewTokenManager("test-secret", "stocksim-test", time.Hour)

	ts := httptest.NewServer(Router(svc, tokens, []string{"*"}, log))
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return ts, &http.Client{Jar: jar}, provider
}

func do(t *testing.T, client *http.Client, method, url string, payload any) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestTradingFlow(t *testing.T) {
	ts, client, _ := newTestServer(t)

	// Protected routes reject anonymous callers outright.
	status, _ := do(t, client, http.MethodGet, ts.URL+"/", nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Register establishes a session.
	status, env := do(t, client, http.MethodPost, ts.URL+"/register", map[string]string{
		"username": "alice", "password": "hunter22", "confirmation": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	// Fresh account: cash only.
	status, env = do(t, client, http.MethodGet, ts.URL+"/", nil)
	require.Equal(t, http.StatusOK, status)
	var portfolio models.Portfolio
	require.NoError(t, json.Unmarshal(env.Data, &portfolio))
	assert.Empty(t, portfolio.Entries)
	assert.True(t, portfolio.Cash.Equal(decimal.NewFromInt(10000)))

	// Quote works with both verbs.
	status, _ = do(t, client, http.MethodGet, ts.URL+"/quote?symbol=TST", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, client, http.MethodPost, ts.URL+"/quote", map[string]string{"symbol": "TST"})
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, client, http.MethodGet, ts.URL+"/quote?symbol=ZZZZ", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Buy 10 shares at 50.00.
	status, env = do(t, client, http.MethodPost, ts.URL+"/buy", map[string]string{
		"symbol": "tst", "shares": "10",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var receipt ledger.Receipt
	require.NoError(t, json.Unmarshal(env.Data, &receipt))
	assert.Equal(t, "TST", receipt.Symbol)
	assert.True(t, receipt.Cash.Equal(decimal.NewFromInt(9500)))

	// Share-count validation happens before any state change.
	status, _ = do(t, client, http.MethodPost, ts.URL+"/buy", map[string]string{
		"symbol": "TST", "shares": "2.5",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// Sell form lists the held symbol; sell part of the position.
	status, env = do(t, client, http.MethodGet, ts.URL+"/sell", nil)
	require.Equal(t, http.StatusOK, status)
	var sellForm struct {
		Symbols []string `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sellForm))
	assert.Equal(t, []string{"TST"}, sellForm.Symbols)

	status, _ = do(t, client, http.MethodPost, ts.URL+"/sell", map[string]string{
		"symbol": "TST", "shares": "4",
	})
	require.Equal(t, http.StatusOK, status)

	// Selling more than held is rejected.
	status, _ = do(t, client, http.MethodPost, ts.URL+"/sell", map[string]string{
		"symbol": "TST", "shares": "100",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// History keeps both committed rows in order.
	status, env = do(t, client, http.MethodGet, ts.URL+"/history", nil)
	require.Equal(t, http.StatusOK, status)
	var history []models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, int64(10), history[0].Shares)
	assert.Equal(t, int64(-4), history[1].Shares)

	// Password change, then logout kills the session.
	status, _ = do(t, client, http.MethodPost, ts.URL+"/change_password", map[string]string{
		"password": "wrong", "new_password": "newpass", "confirmation": "newpass",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, client, http.MethodPost, ts.URL+"/change_password", map[string]string{
		"password": "hunter22", "new_password": "newpass", "confirmation": "newpass",
	})
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, client, http.MethodGet, ts.URL+"/logout", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, client, http.MethodGet, ts.URL+"/", nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Login again with the new password.
	status, _ = do(t, client, http.MethodPost, ts.URL+"/login", map[string]string{
		"username": "alice", "password": "hunter22",
	})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = do(t, client, http.MethodPost, ts.URL+"/login", map[string]string{
		"username": "alice", "password": "newpass",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestRegisterConflictsAndValidation(t *testing.T) {
	ts, client, _ := newTestServer(t)

	payload := map[string]string{"username": "alice", "password": "x", "confirmation": "x"}
	status, _ := do(t, client, http.MethodPost, ts.URL+"/register", payload)
	require.Equal(t, http.StatusCreated, status)

	status, _ = do(t, client, http.MethodPost, ts.URL+"/register", payload)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = do(t, client, http.MethodPost, ts.URL+"/register", map[string]string{
		"username": "bob", "password": "x", "confirmation": "y",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPricingOutageFailsPortfolio(t *testing.T) {
	ts, client, provider := newTestServer(t)

	status, _ := do(t, client, http.MethodPost, ts.URL+"/register", map[string]string{
		"username": "alice", "password": "x", "confirmation": "x",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = do(t, client, http.MethodPost, ts.URL+"/buy", map[string]string{
		"symbol": "TST", "shares": "1",
	})
	require.Equal(t, http.StatusOK, status)

	provider.Remove("TST")
	status, _ = do(t, client, http.MethodGet, ts.URL+"/", nil)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestBearerTokenAuth(t *testing.T) {
	ts, client, _ := newTestServer(t)

	status, env := do(t, client, http.MethodPost, ts.URL+"/register", map[string]string{
		"username": "alice", "password": "x", "confirmation": "x",
	})
	require.Equal(t, http.StatusCreated, status)

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)

	// No cookie jar: the bearer header alone must authenticate.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/history", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.Token))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthIsPublic(t *testing.T) {
	ts, client, _ := newTestServer(t)
	resp, err := client.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
}
