// Package gate is the server-side interception layer that runs before any
// page is routed. It enforces coarse access control from cookie presence
// alone -- it never validates a token's content or expiry -- and keeps the
// sign-in URL's redirect parameter clean. The authoritative session check
// belongs to the guard; the gate only exists so unauthenticated navigations
// never flash protected UI, and so simple automated crawlers are turned
// away early.
package gate

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/api"
)

// Paths with fixed roles. A post read view (/blog/{slug}) is public even
// though it shares the /blog prefix with the protected create/edit pages;
// classification special-cases this below.
const (
	signInPath         = "/signin"
	signUpPath         = "/signup"
	defaultLandingPath = "/dashboard"
)

// publicRoutes require no session.
var publicRoutes = []string{
	"/",
	signInPath,
	signUpPath,
	"/verify-email",
}

// protectedRoutes require a session and double as the allow-list for the
// sign-in page's redirect parameter.
var protectedRoutes = []string{
	"/dashboard",
	"/my-blogs",
	"/analytics",
	"/blog/create",
	"/blog/edit",
}

// aiBotPatterns match the user-agent signatures of known automated
// crawlers. Matched requests to non-public paths are rejected outright,
// independent of authentication state.
var aiBotPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)GPTBot`),
	regexp.MustCompile(`(?i)ChatGPT-User`),
	regexp.MustCompile(`(?i)ClaudeBot`),
	regexp.MustCompile(`(?i)anthropic-ai`),
	regexp.MustCompile(`(?i)Google-Extended`),
	regexp.MustCompile(`(?i)PerplexityBot`),
	regexp.MustCompile(`(?i)CCBot`),
	regexp.MustCompile(`(?i)Amazonbot`),
	regexp.MustCompile(`(?i)cohere-ai`),
	regexp.MustCompile(`(?i)ai-crawler`),
	regexp.MustCompile(`(?i)ai-bot`),
	regexp.MustCompile(`(?i)bot.*ai`),
	regexp.MustCompile(`(?i)crawler.*ai`),
}

// skipPrefixes are request paths the gate ignores entirely: static assets
// and operational endpoints.
var skipPrefixes = []string{"/static/", "/healthz", "/favicon.ico"}

// IsProtectedPath reports whether path falls under a protected prefix.
// Exported because the sign-in handler validates its redirect target with
// the same allow-list.
func IsProtectedPath(path string) bool {
	for _, route := range protectedRoutes {
		if strings.HasPrefix(path, route) {
			return true
		}
	}
	return false
}

// isPublicPath reports whether path requires no session. A /blog/... path
// is public (single-post read view) unless it is the create or edit page.
func isPublicPath(path string) bool {
	if strings.HasPrefix(path, "/blog/") &&
		!strings.HasPrefix(path, "/blog/create") &&
		!strings.HasPrefix(path, "/blog/edit") {
		return true
	}
	for _, route := range publicRoutes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

// isAIBot reports whether the user-agent matches a known crawler signature.
func isAIBot(userAgent string) bool {
	for _, pattern := range aiBotPatterns {
		if pattern.MatchString(userAgent) {
			return true
		}
	}
	return false
}

// Gate holds the configuration the rules need: the app's own origin, for
// the same-origin referer check on the sign-in page.
type Gate struct {
	origin *url.URL
}

// New creates a Gate for the app served at baseURL.
func New(baseURL string) (*Gate, error) {
	origin, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Gate{origin: origin}, nil
}

// Middleware returns the gate as Echo middleware. Registered with e.Pre so
// it runs before routing, on every navigation.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}

			// Rule: known crawlers never reach non-public content,
			// whatever cookies they carry.
			if !isPublicPath(path) && isAIBot(req.UserAgent()) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error":   "Automated access detected",
					"message": "AI crawlers are not permitted to access this content",
				})
			}

			// Presence check only. The cookie may be stale; the guard's
			// refresh-backed check is the authority.
			hasToken := hasSessionCookie(req)

			// Rule: protected path without a session cookie bounces to
			// sign-in, remembering where the user was headed.
			if IsProtectedPath(path) && !hasToken {
				return c.Redirect(http.StatusFound,
					signInPath+"?redirect="+url.QueryEscape(path))
			}

			// Rule: keep the sign-in page's redirect parameter honest.
			if path == signInPath {
				if done, err := g.cleanSignInURL(c); done {
					return err
				}
			}

			// Rule: a signed-in visitor has no business on the auth forms.
			if hasToken && (path == signInPath || path == signUpPath) {
				return c.Redirect(http.StatusFound, defaultLandingPath)
			}

			return next(c)
		}
	}
}

// cleanSignInURL validates the redirect parameter on the sign-in page.
// Anything outside the protected-path allow-list is stripped (open-redirect
// guard). A redirect to the default landing page is additionally stripped
// unless the user demonstrably arrived from a protected page of this app --
// that keeps hand-typed /signin URLs clean. Returns done=true when a
// redirect response was written. Stripping an already-clean URL is a no-op.
func (g *Gate) cleanSignInURL(c echo.Context) (bool, error) {
	req := c.Request()
	redirectParam := req.URL.Query().Get("redirect")
	if redirectParam == "" {
		return false, nil
	}

	if !IsProtectedPath(redirectParam) {
		return true, c.Redirect(http.StatusFound, signInPath)
	}

	if redirectParam == defaultLandingPath && !g.refererIsProtected(req.Referer()) {
		return true, c.Redirect(http.StatusFound, signInPath)
	}

	return false, nil
}

// refererIsProtected reports whether the referer is a same-origin protected
// page. An absent or unparseable referer counts as "no" -- direct access.
func (g *Gate) refererIsProtected(referer string) bool {
	if referer == "" {
		return false
	}
	ref, err := url.Parse(referer)
	if err != nil {
		return false
	}
	if ref.Host != g.origin.Host || ref.Scheme != g.origin.Scheme {
		return false
	}
	return IsProtectedPath(ref.Path)
}

// hasSessionCookie reports whether the request carries the backend's access
// token cookie. Presence only; the value is opaque to this process.
func hasSessionCookie(req *http.Request) bool {
	cookie, err := req.Cookie(api.AccessTokenCookie)
	return err == nil && cookie.Value != ""
}
