package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/api"
	"github.com/inkwellhq/inkwell/internal/apperror"
	"github.com/inkwellhq/inkwell/internal/gate"
	"github.com/inkwellhq/inkwell/internal/middleware"
	"github.com/inkwellhq/inkwell/internal/pages"
	"github.com/inkwellhq/inkwell/internal/session"
)

const verifyFailureMessage = "Invalid or expired verification token. Please request a new verification email."

// SessionStore is the slice of the session store the auth handlers use.
type SessionStore interface {
	State(ctx context.Context, clientID string) session.State
	Login(ctx context.Context, clientID string, creds *api.Credentials, email, password string) error
	Register(ctx context.Context, clientID string, creds *api.Credentials, email, password string) error
	Logout(ctx context.Context, clientID string, creds *api.Credentials)
	ClearError(ctx context.Context, clientID string)
}

// Verifier confirms email verification tokens against the backend.
type Verifier interface {
	VerifyEmail(ctx context.Context, creds *api.Credentials, token string) (*api.Message, error)
}

// Handler serves the authentication pages.
type Handler struct {
	store    SessionStore
	verifier Verifier
}

// NewHandler creates an auth handler.
func NewHandler(store SessionStore, verifier Verifier) *Handler {
	return &Handler{store: store, verifier: verifier}
}

// SignInForm renders the sign-in page. A pending one-shot error from a prior
// attempt is shown once and cleared.
func (h *Handler) SignInForm(c echo.Context) error {
	ctx := c.Request().Context()
	clientID := middleware.GetClientID(c)

	data := pages.SignInData{
		CSRFToken: middleware.GetCSRFToken(c),
		Redirect:  signInTarget(c.QueryParam("redirect")),
	}
	if st := h.store.State(ctx, clientID); st.Error != "" {
		data.Error = st.Error
		h.store.ClearError(ctx, clientID)
	}
	return pages.Render(c, http.StatusOK, "signin.html", data)
}

// SignIn handles the sign-in form submission.
func (h *Handler) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	clientID := middleware.GetClientID(c)

	var req SignInRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid form data")
	}

	data := pages.SignInData{
		CSRFToken: middleware.GetCSRFToken(c),
		Email:     req.Email,
		Redirect:  signInTarget(req.Redirect),
	}
	if msg := validateSignIn(&req); msg != "" {
		data.Error = msg
		return pages.Render(c, http.StatusOK, "signin.html", data)
	}

	creds := api.CredentialsFromRequest(c.Request())
	err := h.store.Login(ctx, clientID, creds, req.Email, req.Password)
	middleware.RelayCookies(c, creds)
	if err != nil {
		st := h.store.State(ctx, clientID)
		data.Error = st.Error
		h.store.ClearError(ctx, clientID)
		return pages.Render(c, http.StatusOK, "signin.html", data)
	}

	target := signInTarget(req.Redirect)
	if target == "" {
		target = "/dashboard"
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// SignUpForm renders the registration page.
func (h *Handler) SignUpForm(c echo.Context) error {
	return pages.Render(c, http.StatusOK, "signup.html", pages.SignUpData{
		CSRFToken: middleware.GetCSRFToken(c),
	})
}

// SignUp handles the registration form submission.
func (h *Handler) SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	clientID := middleware.GetClientID(c)

	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid form data")
	}

	data := pages.SignUpData{
		CSRFToken: middleware.GetCSRFToken(c),
		Email:     req.Email,
	}
	if errs := validateSignUp(&req); errs != nil {
		data.FieldErrors = errs
		return pages.Render(c, http.StatusOK, "signup.html", data)
	}

	creds := api.CredentialsFromRequest(c.Request())
	err := h.store.Register(ctx, clientID, creds, req.Email, req.Password)
	middleware.RelayCookies(c, creds)
	if err != nil {
		st := h.store.State(ctx, clientID)
		data.Error = st.Error
		h.store.ClearError(ctx, clientID)
		return pages.Render(c, http.StatusOK, "signup.html", data)
	}

	return pages.Render(c, http.StatusOK, "signup_done.html", data)
}

// Logout ends the session. The local state is cleared even when the backend
// call fails, so a signed-out user never stays stuck signed in.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	clientID := middleware.GetClientID(c)

	creds := api.CredentialsFromRequest(c.Request())
	h.store.Logout(ctx, clientID, creds)
	middleware.RelayCookies(c, creds)

	return c.Redirect(http.StatusSeeOther, "/")
}

// VerifyEmail confirms an email verification token from the link the backend
// mailed out. A request aborted by the client renders nothing; an upstream
// rejection renders the failure page, not an error page.
func (h *Handler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return pages.Render(c, http.StatusOK, "verify_email.html", pages.VerifyEmailData{
			Message: verifyFailureMessage,
		})
	}

	creds := api.CredentialsFromRequest(c.Request())
	resp, err := h.verifier.VerifyEmail(c.Request().Context(), creds, token)
	middleware.RelayCookies(c, creds)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return pages.Render(c, http.StatusOK, "verify_email.html", pages.VerifyEmailData{
			Message: apperror.UpstreamDetail(err, verifyFailureMessage),
		})
	}

	message := "Email verified successfully!"
	if resp != nil && resp.Message != "" {
		message = resp.Message
	}
	return pages.Render(c, http.StatusOK, "verify_email.html", pages.VerifyEmailData{
		Succeeded: true,
		Message:   message,
	})
}

// signInTarget validates a post-sign-in redirect target. Only known
// protected paths are honored; anything else falls back to empty.
func signInTarget(raw string) string {
	if gate.IsProtectedPath(raw) {
		return raw
	}
	return ""
}
