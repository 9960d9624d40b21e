package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"nozze/internal/auth"
	"nozze/internal/services"
	"nozze/internal/storage"
)

const testSecret = "test-secret-0123456789abcdef"

type fixture struct {
	server *Server
	repo   *storage.SQLiteRepository
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	verifier := auth.NewVerifier(testSecret)
	token, err := verifier.Sign("couple-1", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	svc := services.NewExpenseService(repo, nil)
	s := NewServer(":0", repo, svc, verifier)
	t.Cleanup(func() { s.rateLimiter.stop() })

	return &fixture{server: s, repo: repo, token: token}
}

func signToken(t *testing.T, owner string) string {
	t.Helper()
	token, err := auth.NewVerifier(testSecret).Sign(owner, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return token
}

// do runs a request through the full middleware stack.
func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/readyz", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/expenses", "/api/dashboard", "/api/categories", "/api/profile"} {
		rec := f.do(t, http.MethodGet, path, nil, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, rec.Code)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/expenses", nil, "not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	f := newFixture(t)

	verifier := auth.NewVerifier(testSecret)
	expired, err := verifier.Sign("couple-1", -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	rec := f.do(t, http.MethodGet, "/api/expenses", nil, expired)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status = %d, want 401", rec.Code)
	}
}

func TestSecurityHeadersSet(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/categories", nil, f.token)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}
