package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLogin_BackendSeeOtherRedirects(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "/dashboard")
		w.WriteHeader(http.StatusSeeOther)
	}))
	defer backend.Close()

	app := newTestApp(t, testConfig(backend.URL))

	req := httptest.NewRequest(http.MethodGet, "/login", http.NoBody)
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", got)
	}
}

func TestLogin_OtherStatusesRenderPage(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusFound, http.StatusUnauthorized, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Location", "/dashboard")
				w.WriteHeader(status)
			}))
			defer backend.Close()

			app := newTestApp(t, testConfig(backend.URL))

			req := httptest.NewRequest(http.MethodGet, "/login", http.NoBody)
			rec := httptest.NewRecorder()
			app.e.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
				t.Errorf("Content-Type = %q, want text/html", got)
			}
			if !strings.Contains(rec.Body.String(), `href="/api/login"`) {
				t.Errorf("page does not link to /api/login:\n%s", rec.Body.String())
			}
		})
	}
}

func TestLogin_CustomLoginPathLinked(t *testing.T) {
	var gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer backend.Close()

	cfg := testConfig(backend.URL)
	cfg.Backend.LoginPath = "/auth/spotify"
	app := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/login", http.NoBody)
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)

	if gotPath != "/auth/spotify" {
		t.Errorf("backend probed %q, want /auth/spotify", gotPath)
	}
	if !strings.Contains(rec.Body.String(), `href="/api/auth/spotify"`) {
		t.Errorf("page does not link to /api/auth/spotify:\n%s", rec.Body.String())
	}
}

func TestLogin_BackendDown(t *testing.T) {
	app := newTestApp(t, testConfig("http://127.0.0.1:1"))

	req := httptest.NewRequest(http.MethodGet, "/login", http.NoBody)
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}
