package handlers_test

import (
	"net/http"
	"strings"
	"testing"
)

// Internal failures render a friendly page without leaking details.
func TestErrorHandlerFriendlyMessage(t *testing.T) {
	env := newEnv(t, nil)
	c := env.client(t)
	_ = env.db.Close()

	resp := c.get("/products/")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	s := body(t, resp)
	if !strings.Contains(s, "Something went wrong") {
		t.Fatalf("friendly message missing; body=%s", s)
	}
	if strings.Contains(strings.ToLower(s), "sql") || strings.Contains(s, "closed") {
		t.Fatalf("internal details leaked to user; body=%s", s)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	env := newEnv(t, nil)
	resp := env.client(t).get("/definitely/not/here")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(body(t, resp), "Page not found") {
		t.Fatalf("404 page missing")
	}
}

func TestPublicPagesRender(t *testing.T) {
	env := newEnv(t, nil)
	for _, path := range []string{"/", "/about/", "/contact/", "/products/", "/buyer/", "/signup/", "/login/", "/forget-password/", "/admin/login/", "/healthz"} {
		if resp := env.client(t).get(path); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s returned %d", path, resp.StatusCode)
		}
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	env := newEnv(t, nil)
	resp := env.client(t).get("/")
	if resp.Header.Get("X-Frame-Options") == "" || resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("helmet headers missing: %v", resp.Header)
	}
}
