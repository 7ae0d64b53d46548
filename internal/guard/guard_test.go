package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/api"
	"github.com/inkwellhq/inkwell/internal/apperror"
)

// --- Mock Session Checker ---

// mockChecker implements SessionChecker for testing.
type mockChecker struct {
	fetchUserFn func(ctx context.Context, clientID string, creds *api.Credentials) (*api.User, error)

	setTokenCalls []string
}

func (m *mockChecker) FetchUser(ctx context.Context, clientID string, creds *api.Credentials) (*api.User, error) {
	if m.fetchUserFn != nil {
		return m.fetchUserFn(ctx, clientID, creds)
	}
	return &api.User{ID: 1, Email: "ink@example.com"}, nil
}

func (m *mockChecker) SetToken(ctx context.Context, clientID, token string) {
	m.setTokenCalls = append(m.setTokenCalls, token)
}

// runGuard sends one request through Require in front of a handler that
// reports the user it sees.
func runGuard(t *testing.T, checker *mockChecker) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.GET("/dashboard", func(c echo.Context) error {
		user := GetUser(c)
		if user == nil {
			t.Error("handler ran without a validated user in context")
			return c.NoContent(http.StatusInternalServerError)
		}
		if GetCredentials(c) == nil {
			t.Error("handler ran without the checked credential set in context")
		}
		return c.String(http.StatusOK, user.Email)
	}, Require(checker))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: api.AccessTokenCookie, Value: "opaque"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequire_ValidSessionRendersPage(t *testing.T) {
	checker := &mockChecker{}
	rec := runGuard(t, checker)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ink@example.com" {
		t.Errorf("expected the validated profile to reach the handler, got %q", rec.Body.String())
	}
	if len(checker.setTokenCalls) != 0 {
		t.Errorf("a passing check must not touch the token, got calls %v", checker.setTokenCalls)
	}
}

func TestRequire_FailedCheckDemotesAndRedirects(t *testing.T) {
	checker := &mockChecker{
		fetchUserFn: func(ctx context.Context, clientID string, creds *api.Credentials) (*api.User, error) {
			return nil, apperror.NewUpstream(http.StatusUnauthorized, "Could not validate credentials")
		},
	}
	rec := runGuard(t, checker)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/signin" {
		t.Errorf("expected redirect to /signin, got %q", got)
	}
	if len(checker.setTokenCalls) != 1 || checker.setTokenCalls[0] != "" {
		t.Errorf("expected exactly one demoting SetToken(\"\"), got %v", checker.setTokenCalls)
	}
}

func TestRequire_TransportFailureAlsoRedirects(t *testing.T) {
	checker := &mockChecker{
		fetchUserFn: func(ctx context.Context, clientID string, creds *api.Credentials) (*api.User, error) {
			return nil, apperror.NewInternal(context.DeadlineExceeded)
		},
	}
	rec := runGuard(t, checker)

	// A network failure and a rejected session read the same from here.
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
}

func TestGetUser_WithoutRequireIsNil(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if GetUser(c) != nil {
		t.Error("expected nil user outside Require")
	}
}

func TestGetCredentials_WithoutRequireFallsBackToRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: api.AccessTokenCookie, Value: "a"})
	c := e.NewContext(req, httptest.NewRecorder())

	creds := GetCredentials(c)
	if creds == nil || !creds.Has(api.AccessTokenCookie) {
		t.Error("expected credentials extracted from the request cookies")
	}
}
