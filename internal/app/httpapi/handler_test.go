package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	app "github.com/R3E-Network/longshot/internal/app"
)

const testSecret = "test-secret"

func newTestHandler(t *testing.T) (http.Handler, *Authenticator) {
	t.Helper()
	application, err := app.New(app.Stores{}, nil, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start application: %v", err)
	}
	t.Cleanup(func() { _ = application.Stop(context.Background()) })

	auth := NewAuthenticator(testSecret, nil, PublicPaths)
	return auth.Wrap(NewHandler(application)), auth
}

func marshal(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(data)
}

func authedRequest(t *testing.T, auth *Authenticator, address, method, path string, body *bytes.Reader) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	token, err := auth.IssueToken(address, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHandlerLifecycle(t *testing.T) {
	handler, auth := newTestHandler(t)

	initBody := marshal(t, map[string]any{"denom": "uluna", "ticket_price": 5})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "owner-addr", http.MethodPost, "/initialize", initBody))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 initialize, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "owner-addr", http.MethodGet, "/config", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 config, got %d", resp.Code)
	}
	var cfg map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	if cfg["Owner"] != "owner-addr" {
		t.Fatalf("expected initializing caller as owner, got %v", cfg["Owner"])
	}

	shootBody := marshal(t, map[string]any{"denom": "uluna", "amount": 5})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "player-addr", http.MethodPost, "/shoot", shootBody))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 shoot, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "player-addr", http.MethodGet, "/balance", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 balance, got %d", resp.Code)
	}
	var balance map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &balance); err != nil {
		t.Fatalf("unmarshal balance: %v", err)
	}
	if balance["Balance"].(float64) != 5 {
		t.Fatalf("expected pool balance 5, got %v", balance["Balance"])
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "player-addr", http.MethodGet, "/deadlines/player-addr", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 deadline, got %d", resp.Code)
	}
	var deadline map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &deadline); err != nil {
		t.Fatalf("unmarshal deadline: %v", err)
	}
	if deadline["Status"] != "active" {
		t.Fatalf("expected active status, got %v", deadline["Status"])
	}

	goalBody := marshal(t, map[string]any{"player": "player-addr"})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "owner-addr", http.MethodPost, "/goal", goalBody))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 goal, got %d: %s", resp.Code, resp.Body.String())
	}
	var settlement map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &settlement); err != nil {
		t.Fatalf("unmarshal settlement: %v", err)
	}
	if settlement["RewardAmount"].(float64) != 4 { // floor(5*80/100)
		t.Fatalf("expected reward 4, got %v", settlement["RewardAmount"])
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "owner-addr", http.MethodGet, "/transfers", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 transfers, got %d", resp.Code)
	}
	var transfers []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &transfers); err != nil {
		t.Fatalf("unmarshal transfers: %v", err)
	}
	if len(transfers) != 1 { // admin leg floors to zero at balance 5
		t.Fatalf("expected 1 transfer, got %d", len(transfers))
	}
}

func TestHandlerAuthRequired(t *testing.T) {
	handler, _ := newTestHandler(t)

	shootBody := marshal(t, map[string]any{"denom": "uluna", "amount": 0})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/shoot", shootBody))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/shoot", marshal(t, map[string]any{"denom": "uluna"}))
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 healthz without token, got %d", resp.Code)
	}
}

func TestHandlerQueriesAreUnauthenticated(t *testing.T) {
	handler, auth := newTestHandler(t)

	initBody := marshal(t, map[string]any{"denom": "uluna"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "owner-addr", http.MethodPost, "/initialize", initBody))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 initialize, got %d", resp.Code)
	}

	for _, path := range []string{"/config", "/balance", "/transfers"} {
		resp = httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 %s without token, got %d", path, resp.Code)
		}
	}

	// Unknown player, but not an auth failure.
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/deadlines/nobody", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deadlines without token, got %d", resp.Code)
	}

	// The config setters stay behind auth even though GET /config is open.
	priceBody := marshal(t, map[string]any{"ticket_price": 10})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/config/ticket-price", priceBody))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 setter without token, got %d", resp.Code)
	}
}

func TestHandlerOwnerGuards(t *testing.T) {
	handler, auth := newTestHandler(t)

	initBody := marshal(t, map[string]any{"denom": "uluna"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "owner-addr", http.MethodPost, "/initialize", initBody))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 initialize, got %d", resp.Code)
	}

	goalBody := marshal(t, map[string]any{"player": "player-addr"})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "player-addr", http.MethodPost, "/goal", goalBody))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 goal by non-owner, got %d", resp.Code)
	}

	priceBody := marshal(t, map[string]any{"ticket_price": 10})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "player-addr", http.MethodPost, "/config/ticket-price", priceBody))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 setter by non-owner, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "owner-addr", http.MethodPost, "/config/ticket-price", marshal(t, map[string]any{"ticket_price": 10})))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 setter by owner, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "owner-addr", http.MethodPost, "/initialize", marshal(t, map[string]any{"denom": "uluna"})))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 second initialize, got %d", resp.Code)
	}
}

func TestHandlerRejectsWrongPayment(t *testing.T) {
	handler, auth := newTestHandler(t)

	initBody := marshal(t, map[string]any{"denom": "uluna", "ticket_price": 10})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "owner-addr", http.MethodPost, "/initialize", initBody))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 initialize, got %d", resp.Code)
	}

	shootBody := marshal(t, map[string]any{"denom": "uluna", "amount": 9})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(t, auth, "player-addr", http.MethodPost, "/shoot", shootBody))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 underpaid shoot, got %d", resp.Code)
	}
	var errBody map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if errBody["error"] != "invalid payment: expected 10uluna, got 9uluna" {
		t.Fatalf("unexpected error message: %q", errBody["error"])
	}
}
