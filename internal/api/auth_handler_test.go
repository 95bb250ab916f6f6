package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumehub/internal/auth"
	"resumehub/internal/database"
	"resumehub/internal/resume"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestServer(t *testing.T, redisClient redis.UniversalClient, loginRateLimit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	authService := auth.NewService(db, tokens)
	store := resume.NewStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(logger)
	RegisterRoutes(router, authService, store, redisClient, logger, loginRateLimit)

	return &testServer{router: router, db: db}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	ts := newTestServer(t, nil, 0)

	rec := ts.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "a@b.c", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var registered struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeJSON(t, rec, &registered)
	if registered.AccessToken == "" || registered.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", registered)
	}

	rec = ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@b.c", "password": "secret1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var logged struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, rec, &logged)
	if logged.AccessToken == "" {
		t.Fatal("login returned empty token")
	}

	// Both tokens open the authenticated surface.
	for _, token := range []string{registered.AccessToken, logged.AccessToken} {
		if rec := ts.do(t, http.MethodGet, "/resume", token, nil); rec.Code != http.StatusOK {
			t.Fatalf("list with token: status = %d, want 200", rec.Code)
		}
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	ts := newTestServer(t, nil, 0)

	creds := gin.H{"email": "a@b.c", "password": "secret1"}
	if rec := ts.do(t, http.MethodPost, "/auth/register", "", creds); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}

	rec := ts.do(t, http.MethodPost, "/auth/register", "", creds)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d, want 400", rec.Code)
	}
	var payload struct {
		Code string `json:"code"`
	}
	decodeJSON(t, rec, &payload)
	if payload.Code != "email_taken" {
		t.Fatalf("error code = %q, want email_taken", payload.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t, nil, 0)

	for _, body := range []gin.H{
		{"email": "not-an-email", "password": "secret1"},
		{"email": "a@b.c", "password": "short"},
		{"email": "a@b.c"},
	} {
		if rec := ts.do(t, http.MethodPost, "/auth/register", "", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("register %v: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestLoginUniformUnauthorized(t *testing.T) {
	ts := newTestServer(t, nil, 0)

	if rec := ts.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "a@b.c", "password": "secret1"}); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	unknown := ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@b.c", "password": "secret1"})
	wrongPass := ts.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@b.c", "password": "wrong-pass"})

	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want both 401", unknown.Code, wrongPass.Code)
	}
	if unknown.Body.String() != wrongPass.Body.String() {
		t.Fatalf("failure bodies differ: %q vs %q", unknown.Body.String(), wrongPass.Body.String())
	}
}

func TestLoginRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ts := newTestServer(t, redisClient, 2)

	body := gin.H{"email": "a@b.c", "password": "wrong-pass"}
	for i := 0; i < 2; i++ {
		if rec := ts.do(t, http.MethodPost, "/auth/login", "", body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i, rec.Code)
		}
	}

	rec := ts.do(t, http.MethodPost, "/auth/login", "", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("throttled attempt: status = %d, want 429", rec.Code)
	}
}
