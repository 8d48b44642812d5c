package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestAPIKeyRequired(t *testing.T) {
	mw := Middleware(SecConfig{FrontendKeys: map[string]struct{}{"secret": {}}})
	h := mw(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/threads", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key; got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer key; got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	req.Header.Set("X-API-Key", "secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with header key; got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	req.Header.Set("X-API-Key", "wrong")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key; got %d", rr.Code)
	}
}

func TestAllowUnauthBypassesKeyCheck(t *testing.T) {
	mw := Middleware(SecConfig{
		FrontendKeys: map[string]struct{}{"secret": {}},
		AllowUnauth:  true,
	})
	rr := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/threads", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with allow_unauth; got %d", rr.Code)
	}
}

func TestHealthzBypassesAuth(t *testing.T) {
	mw := Middleware(SecConfig{FrontendKeys: map[string]struct{}{"secret": {}}})
	rr := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected healthz to pass without key; got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	mw := Middleware(SecConfig{RPS: 1, Burst: 2})
	h := mw(okHandler())

	got429 := false
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			got429 = true
		}
	}
	if !got429 {
		t.Fatal("burst never exhausted")
	}

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	req.RemoteAddr = "10.2.2.2:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("fresh client limited: %d", rr.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	mw := Middleware(SecConfig{AllowedOrigins: []string{"https://app.example.com"}})
	h := mw(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/threads", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight: expected 204; got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("missing allow-origin header: %v", rr.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("disallowed origin got CORS headers")
	}
}

func TestOriginWildcard(t *testing.T) {
	if !originAllowed("https://anything.example", []string{"*"}) {
		t.Fatal("wildcard should allow any origin")
	}
	if originAllowed("https://x.example", []string{"https://y.example"}) {
		t.Fatal("mismatched origin allowed")
	}
}
