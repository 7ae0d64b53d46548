// Package api is the single outbound surface to the remote blog API. Every
// backend call in the app goes through Client, which applies the base URL,
// JSON content type, and credential-cookie forwarding uniformly, and
// implements the one cross-cutting behavior the app depends on: a silent
// refresh-and-replay when a call fails with 401 because the access token
// expired.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/inkwellhq/inkwell/internal/apperror"
	"github.com/inkwellhq/inkwell/internal/config"
)

// Cookie names owned by the backend. The client never mints these; it only
// forwards them on outbound calls and relays the backend's Set-Cookie
// headers to the browser.
const (
	// AccessTokenCookie proves an active session. Its presence (never its
	// content) is checked by the edge gate.
	AccessTokenCookie = "access_token"

	// RefreshTokenCookie lets /auth/refresh mint a new access token.
	RefreshTokenCookie = "refresh_token"
)

// badCredentialsDetail is the backend's detail message for a failed login.
// A 401 carrying it must never trigger a refresh: retrying a bad password
// is wrong.
const badCredentialsDetail = "Invalid email or password"

// Credentials carries the browser's backend session cookies through one
// logical operation. The zero of updates means no cookie changed; anything
// recorded there must be relayed to the browser so its cookie store stays
// in sync with the backend's view of the session.
//
// A Credentials value is scoped to a single request-handling goroutine and
// is not safe for concurrent use.
type Credentials struct {
	cookies []*http.Cookie
	updates []*http.Cookie
}

// NewCredentials builds a Credentials from explicit cookies. Used in tests
// and by flows that start with no session at all.
func NewCredentials(cookies ...*http.Cookie) *Credentials {
	return &Credentials{cookies: cookies}
}

// CredentialsFromRequest extracts the backend session cookies from an
// incoming browser request. Other cookies (client id, CSRF) never leave
// this process.
func CredentialsFromRequest(r *http.Request) *Credentials {
	creds := &Credentials{}
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			creds.cookies = append(creds.cookies, &http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return creds
}

// Has reports whether a cookie with the given name is present.
func (c *Credentials) Has(name string) bool {
	for _, ck := range c.cookies {
		if ck.Name == name {
			return true
		}
	}
	return false
}

// Updates returns the Set-Cookie values observed while calling the API, in
// the order they arrived. Handlers relay these to the browser verbatim.
func (c *Credentials) Updates() []*http.Cookie {
	return c.updates
}

// apply merges Set-Cookie values from an API response into the forwarded
// cookie set (so a replay after refresh carries the new token) and records
// them for relay to the browser.
func (c *Credentials) apply(setCookies []*http.Cookie) {
	for _, sc := range setCookies {
		replaced := false
		for i, ck := range c.cookies {
			if ck.Name == sc.Name {
				c.cookies[i] = &http.Cookie{Name: sc.Name, Value: sc.Value}
				replaced = true
				break
			}
		}
		if !replaced {
			c.cookies = append(c.cookies, &http.Cookie{Name: sc.Name, Value: sc.Value})
		}
		c.updates = append(c.updates, sc)
	}
}

// Client issues all requests to the blog API. It is stateless and safe for
// concurrent use; per-call credential state lives in Credentials.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a Client for the configured API base URL.
func New(cfg config.APIConfig) (*Client, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.URL)
	}
	return &Client{
		baseURL: base,
		// No cookie jar: credential cookies are request-scoped and passed
		// explicitly, so one browser's tokens can never leak into another
		// browser's calls.
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Do issues a request and decodes the JSON response into out (which may be
// nil for calls whose body the caller ignores).
//
// Responses pass through unchanged except exactly one case: a 401 that is
// not a credential failure. Then Do issues one silent POST /auth/refresh
// with the same credentials and, if it succeeds, replays the original
// request once with the renewed cookies. A second 401 after the replay
// propagates; a refresh failure propagates as the refresh's own error with
// zero replays.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, creds *Credentials) error {
	return c.do(ctx, method, path, body, out, creds, false)
}

// do is Do with the retry bookkeeping explicit. The retried flag is scoped
// to this call chain, never stored on shared state, so concurrent requests
// cannot observe each other's retry status.
func (c *Client) do(ctx context.Context, method, path string, body, out any, creds *Credentials, retried bool) error {
	status, data, setCookies, err := c.send(ctx, method, path, body, creds)
	if err != nil {
		return err
	}

	if status >= 200 && status < 300 {
		creds.apply(setCookies)
		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return apperror.NewInternal(fmt.Errorf("decoding %s %s response: %w", method, path, err))
			}
		}
		return nil
	}

	detail := decodeDetail(data)
	upstream := apperror.NewUpstream(status, detail)

	if status != http.StatusUnauthorized {
		return upstream
	}

	// A 401 from login/register, or one that names bad credentials, is a
	// credential error: surface it, never refresh.
	if isAuthEndpoint(path) || detail == badCredentialsDetail {
		return upstream
	}

	// At most one retry per original request.
	if retried {
		return upstream
	}

	slog.Debug("access token expired, refreshing session",
		slog.String("method", method),
		slog.String("path", path),
	)

	if err := c.refresh(ctx, creds); err != nil {
		return err
	}

	return c.do(ctx, method, path, body, out, creds, true)
}

// refresh silently renews the session cookie via POST /auth/refresh. The
// backend's Set-Cookie headers are merged into creds so the replay (and
// eventually the browser) picks up the new tokens.
func (c *Client) refresh(ctx context.Context, creds *Credentials) error {
	status, data, setCookies, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, creds)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return apperror.NewUpstream(status, decodeDetail(data))
	}
	creds.apply(setCookies)
	return nil
}

// send performs one HTTP round trip: marshal body, attach credential
// cookies, read the full response. Transport failures come back as internal
// errors that wrap the cause, so context cancellation stays detectable with
// errors.Is.
func (c *Client) send(ctx context.Context, method, path string, body any, creds *Credentials) (int, []byte, []*http.Cookie, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, apperror.NewInternal(fmt.Errorf("encoding %s %s request: %w", method, path, err))
		}
		reqBody = bytes.NewReader(encoded)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return 0, nil, nil, apperror.NewInternal(fmt.Errorf("parsing request path %q: %w", path, err))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), reqBody)
	if err != nil {
		return 0, nil, nil, apperror.NewInternal(fmt.Errorf("building %s %s request: %w", method, path, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, ck := range creds.cookies {
		req.AddCookie(ck)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, apperror.NewInternal(fmt.Errorf("calling blog api: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, apperror.NewInternal(fmt.Errorf("reading blog api response: %w", err))
	}

	return resp.StatusCode, data, resp.Cookies(), nil
}

// isAuthEndpoint reports whether path is a credential-submitting endpoint.
// A 401 from these means the submitted credentials are wrong, not that a
// session expired.
func isAuthEndpoint(path string) bool {
	return strings.HasPrefix(path, "/auth/login") || strings.HasPrefix(path, "/auth/register")
}

// decodeDetail extracts the backend's `detail` message from an error body.
// Returns "" when the body isn't the expected shape.
func decodeDetail(data []byte) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return ""
	}
	return eb.Detail
}

// --- Auth endpoints ---

// Register creates a new account. It does not authenticate the caller; the
// backend sends a verification email instead.
func (c *Client) Register(ctx context.Context, creds *Credentials, email, password string) (*Message, error) {
	payload := map[string]string{"email": email, "password": password}
	var out Message
	if err := c.Do(ctx, http.MethodPost, "/auth/register", payload, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login establishes a session. On success the backend sets the access and
// refresh cookies, which land in creds.Updates for relay to the browser.
func (c *Client) Login(ctx context.Context, creds *Credentials, email, password string) (*TokenResponse, error) {
	payload := map[string]string{"email": email, "password": password}
	var out TokenResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", payload, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout destroys the session. The backend clears both cookies.
func (c *Client) Logout(ctx context.Context, creds *Credentials) (*Message, error) {
	var out Message
	if err := c.Do(ctx, http.MethodPost, "/auth/logout", nil, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser fetches the profile for the active session. A successful call
// is the only authoritative proof of a valid session.
func (c *Client) CurrentUser(ctx context.Context, creds *Credentials) (*User, error) {
	var out User
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail consumes a one-time email verification token. Callers pass a
// request-scoped ctx so an abandoned page aborts the call in flight.
func (c *Client) VerifyEmail(ctx context.Context, creds *Credentials, token string) (*Message, error) {
	var out Message
	if err := c.Do(ctx, http.MethodGet, "/auth/verify-email/"+url.PathEscape(token), nil, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Blog endpoints ---

// MyPosts lists the caller's own posts, optionally filtered by status
// ("draft" or "published").
func (c *Client) MyPosts(ctx context.Context, creds *Credentials, status string) (*MyPostsResponse, error) {
	path := "/blog/my-blogs"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out MyPostsResponse
	if err := c.Do(ctx, http.MethodGet, path, nil, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analytics fetches the caller's aggregated post statistics.
func (c *Client) Analytics(ctx context.Context, creds *Credentials) (*Analytics, error) {
	var out Analytics
	if err := c.Do(ctx, http.MethodGet, "/blog/analytics", nil, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// PostBySlug fetches a single post for the public read view.
func (c *Client) PostBySlug(ctx context.Context, creds *Credentials, slug string) (*Post, error) {
	var out Post
	if err := c.Do(ctx, http.MethodPost, "/blog/get_blog_by_slug/"+url.PathEscape(slug), nil, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// PostByID fetches a single post for the edit view.
func (c *Client) PostByID(ctx context.Context, creds *Credentials, id int64) (*Post, error) {
	var out Post
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/blog/get_blog/%d", id), nil, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost creates a post (draft or published).
func (c *Client) CreatePost(ctx context.Context, creds *Credentials, input CreatePostInput) (*Post, error) {
	var out Post
	if err := c.Do(ctx, http.MethodPost, "/blog/create-blog", input, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePost saves changes to an existing post.
func (c *Client) UpdatePost(ctx context.Context, creds *Credentials, input UpdatePostInput) (*Post, error) {
	var out Post
	if err := c.Do(ctx, http.MethodPost, "/blog/update-blog", input, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, creds *Credentials, id int64) (*Message, error) {
	var out Message
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/blog/delete_blog/%d", id), nil, &out, creds); err != nil {
		return nil, err
	}
	return &out, nil
}

// IncrementViews bumps a post's view counter from the public read page.
// Best effort: callers log and ignore failures.
func (c *Client) IncrementViews(ctx context.Context, creds *Credentials, id int64) error {
	return c.Do(ctx, http.MethodPost, fmt.Sprintf("/blog/increment-views/%d", id), nil, nil, creds)
}
