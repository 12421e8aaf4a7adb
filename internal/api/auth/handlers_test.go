package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codr1/salonbook/internal/api/authz"
	"github.com/codr1/salonbook/internal/db"
	"github.com/codr1/salonbook/internal/ratelimit"
	"github.com/codr1/salonbook/internal/testutil"
)

func setupLoginTest(t *testing.T, limiter *ratelimit.Limiter) (*db.DB, *Handler, *TokenIssuer) {
	t.Helper()

	database := testutil.NewTestDB(t)
	if err := EnsureAdmin(context.Background(), database.Queries, " Owner@Example.com ", "correct horse"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	tokens, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	return database, NewHandler(database.Queries, tokens, limiter, false), tokens
}

func login(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	h.HandleLogin(recorder, req)
	return recorder
}

func TestHandleLoginSuccess(t *testing.T) {
	_, h, tokens := setupLoginTest(t, nil)

	recorder := login(h, `{"email":"owner@example.com","password":"correct horse"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	subject, err := tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if subject != "owner@example.com" {
		t.Fatalf("subject: %q", subject)
	}
}

func TestHandleLoginFailures(t *testing.T) {
	_, h, _ := setupLoginTest(t, nil)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"email":"owner@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown admin", `{"email":"nobody@example.com","password":"correct horse"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"owner@example.com"}`, http.StatusBadRequest},
		{"unknown field", `{"email":"owner@example.com","password":"x","remember":true}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := login(h, tc.body).Code; got != tc.status {
				t.Fatalf("status: got %d want %d", got, tc.status)
			}
		})
	}
}

func TestHandleLoginRateLimited(t *testing.T) {
	limiter := ratelimit.New(&ratelimit.Config{
		Rules: map[string]ratelimit.Rule{ratelimit.ActionLogin: {PerMinute: 1, Burst: 2}},
	})
	t.Cleanup(limiter.Close)
	_, h, _ := setupLoginTest(t, limiter)

	body := `{"email":"owner@example.com","password":"nope"}`
	login(h, body)
	login(h, body)
	if got := login(h, body).Code; got != http.StatusTooManyRequests {
		t.Fatalf("status: got %d want 429", got)
	}
}

func TestEnsureAdminResetsPassword(t *testing.T) {
	database, h, _ := setupLoginTest(t, nil)

	if err := EnsureAdmin(context.Background(), database.Queries, "owner@example.com", "new password"); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if got := login(h, `{"email":"owner@example.com","password":"correct horse"}`).Code; got != http.StatusUnauthorized {
		t.Fatalf("old password status: %d", got)
	}
	if got := login(h, `{"email":"owner@example.com","password":"new password"}`).Code; got != http.StatusOK {
		t.Fatalf("new password status: %d", got)
	}
}

func TestHandleMe(t *testing.T) {
	_, h, _ := setupLoginTest(t, nil)

	recorder := httptest.NewRecorder()
	h.HandleMe(recorder, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status: %d", recorder.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(authz.ContextWithAdmin(req.Context(), &authz.AdminUser{ID: 1, Email: "owner@example.com"}))
	recorder = httptest.NewRecorder()
	h.HandleMe(recorder, req)
	if recorder.Code != http.StatusOK || !strings.Contains(recorder.Body.String(), "owner@example.com") {
		t.Fatalf("admin status %d body %s", recorder.Code, recorder.Body.String())
	}
}
