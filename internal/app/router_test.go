package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gatehq/gatehouse/internal/auth"
	"github.com/gatehq/gatehouse/internal/observability"
	"github.com/gatehq/gatehouse/internal/realtime"
	"github.com/gatehq/gatehouse/internal/shared"
	"github.com/gatehq/gatehouse/internal/token"
)

type emptyRepo struct{}

func (emptyRepo) Create(ctx context.Context, name, email, passwordHash string) (*auth.User, error) {
	return nil, shared.ErrEmailTaken
}

func (emptyRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return nil, shared.ErrNotFound
}

func (emptyRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	return nil, shared.ErrNotFound
}

func newTestServer(t *testing.T, metrics *observability.Metrics) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := token.NewIssuer("test-secret", time.Hour)
	handler := auth.NewHandler(logger, auth.NewService(emptyRepo{}), issuer, nil, metrics)
	hub := realtime.NewHub(logger, metrics)

	router := NewRouter(RouterParams{
		Logger:      logger,
		Config:      &Config{CORSAllowedOrigin: "http://localhost:3000"},
		AuthHandler: handler,
		Hub:         hub,
		Metrics:     metrics,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestRouterHealthz(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %q, want %q", body, `{"status":"ok"}`)
	}
}

func TestRouterSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", got, "DENY")
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
	if got := resp.Header.Get("Content-Security-Policy"); got != "default-src 'self'" {
		t.Errorf("Content-Security-Policy = %q, want %q", got, "default-src 'self'")
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/auth/login", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("Access-Control-Allow-Headers = %q, want Authorization included", got)
	}
}

func TestRouterAuthRoutesMounted(t *testing.T) {
	srv := newTestServer(t, nil)

	body := strings.NewReader(`{"email":"nobody@example.com","password":"whatever1"}`)
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", body)
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestRouterWebsocketEndpointMounted(t *testing.T) {
	srv := newTestServer(t, nil)

	// A plain GET without the upgrade handshake is rejected by the
	// websocket handler, not by the router.
	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("get ws: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		t.Fatal("ws endpoint not mounted")
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, observability.NewMetrics())

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "gatehouse_logins_total") {
		t.Error("metrics exposition missing gatehouse_logins_total")
	}
}
