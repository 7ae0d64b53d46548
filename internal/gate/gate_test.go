package gate

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/api"
)

// --- Test Helpers ---

type gateRequest struct {
	path      string
	userAgent string
	referer   string
	hasToken  bool
}

// runGate sends one request through the gate in front of a trivial handler
// and returns the recorded response. Handler body "page" means the gate let
// the request through.
func runGate(t *testing.T, gr gateRequest) *httptest.ResponseRecorder {
	t.Helper()

	g, err := New("https://inkwell.example.com")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	e := echo.New()
	e.Pre(g.Middleware())
	e.Any("/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "page")
	})

	req := httptest.NewRequest(http.MethodGet, gr.path, nil)
	if gr.userAgent != "" {
		req.Header.Set("User-Agent", gr.userAgent)
	}
	if gr.referer != "" {
		req.Header.Set("Referer", gr.referer)
	}
	if gr.hasToken {
		req.AddCookie(&http.Cookie{Name: api.AccessTokenCookie, Value: "opaque"})
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("expected redirect to %q, got %q", location, got)
	}
}

func assertPassedThrough(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusOK || rec.Body.String() != "page" {
		t.Errorf("expected the request to pass through, got %d %q", rec.Code, rec.Body.String())
	}
}

// --- Protected paths ---

func TestGate_ProtectedPathWithoutCookieRedirects(t *testing.T) {
	for _, path := range []string{"/dashboard", "/my-blogs", "/analytics", "/blog/create", "/blog/edit/4"} {
		rec := runGate(t, gateRequest{path: path})
		if rec.Code != http.StatusFound {
			t.Errorf("%s: expected 302, got %d", path, rec.Code)
			continue
		}
		want := "/signin?redirect=" + url.QueryEscape(path)
		if got := rec.Header().Get("Location"); got != want {
			t.Errorf("%s: expected redirect to %q, got %q", path, want, got)
		}
	}
}

func TestGate_ProtectedPathWithCookiePasses(t *testing.T) {
	rec := runGate(t, gateRequest{path: "/dashboard", hasToken: true})
	assertPassedThrough(t, rec)
}

func TestGate_PublicPathsPassWithoutCookie(t *testing.T) {
	for _, path := range []string{"/", "/signin", "/signup", "/verify-email", "/blog/some-post"} {
		rec := runGate(t, gateRequest{path: path})
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected pass-through, got %d", path, rec.Code)
		}
	}
}

// --- Auth forms with a session ---

func TestGate_SignedInVisitorLeavesAuthForms(t *testing.T) {
	for _, path := range []string{"/signin", "/signup"} {
		rec := runGate(t, gateRequest{path: path, hasToken: true})
		assertRedirect(t, rec, "/dashboard")
	}
}

// --- Sign-in URL hygiene ---

func TestGate_SignInStripsUnlistedRedirect(t *testing.T) {
	for _, target := range []string{"https://evil.example.com/", "/settings", "//evil.example.com"} {
		rec := runGate(t, gateRequest{path: "/signin?redirect=" + target})
		assertRedirect(t, rec, "/signin")
	}
}

func TestGate_SignInKeepsProtectedRedirect(t *testing.T) {
	rec := runGate(t, gateRequest{path: "/signin?redirect=/my-blogs"})
	assertPassedThrough(t, rec)
}

func TestGate_SignInStripsDashboardRedirectOnDirectAccess(t *testing.T) {
	rec := runGate(t, gateRequest{path: "/signin?redirect=/dashboard"})
	assertRedirect(t, rec, "/signin")
}

func TestGate_SignInKeepsDashboardRedirectFromProtectedReferer(t *testing.T) {
	rec := runGate(t, gateRequest{
		path:    "/signin?redirect=/dashboard",
		referer: "https://inkwell.example.com/dashboard",
	})
	assertPassedThrough(t, rec)
}

func TestGate_SignInStripsDashboardRedirectFromForeignReferer(t *testing.T) {
	rec := runGate(t, gateRequest{
		path:    "/signin?redirect=/dashboard",
		referer: "https://elsewhere.example.com/dashboard",
	})
	assertRedirect(t, rec, "/signin")
}

// Stripping must converge: the URL the strip redirects to passes untouched.
func TestGate_StrippedSignInURLIsStable(t *testing.T) {
	rec := runGate(t, gateRequest{path: "/signin"})
	assertPassedThrough(t, rec)
}

// --- Crawler blocking ---

func TestGate_CrawlerBlockedOnProtectedPaths(t *testing.T) {
	agents := []string{
		"Mozilla/5.0 (compatible; GPTBot/1.0)",
		"ClaudeBot/1.0",
		"PerplexityBot",
		"some-ai-crawler/2.1",
	}
	for _, ua := range agents {
		// Even with a valid-looking cookie the crawler is refused.
		rec := runGate(t, gateRequest{path: "/my-blogs", userAgent: ua, hasToken: true})
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", ua, rec.Code)
		}
		body := rec.Body.String()
		if body == "" || rec.Header().Get("Content-Type") == "" {
			t.Errorf("%s: expected a JSON error body", ua)
		}
	}
}

func TestGate_CrawlerAllowedOnPublicPaths(t *testing.T) {
	rec := runGate(t, gateRequest{path: "/blog/some-post", userAgent: "GPTBot/1.0"})
	assertPassedThrough(t, rec)
}

func TestGate_OrdinaryBrowserNotBot(t *testing.T) {
	ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	rec := runGate(t, gateRequest{path: "/dashboard", userAgent: ua, hasToken: true})
	assertPassedThrough(t, rec)
}

// --- Skips ---

func TestGate_OperationalPathsSkipAllRules(t *testing.T) {
	rec := runGate(t, gateRequest{path: "/healthz", userAgent: "GPTBot/1.0"})
	assertPassedThrough(t, rec)
}

// --- Classification ---

func TestIsProtectedPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/dashboard", true},
		{"/my-blogs", true},
		{"/analytics", true},
		{"/blog/create", true},
		{"/blog/edit/12", true},
		{"/blog/some-post", false},
		{"/", false},
		{"/signin", false},
		{"https://evil.example.com/dashboard", false},
	}
	for _, tt := range tests {
		if got := IsProtectedPath(tt.path); got != tt.want {
			t.Errorf("IsProtectedPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
