// Package pages renders Inkwell's HTML page shells. Layout and styling are
// deliberately minimal: the pages exist to carry the auth and posting flows,
// not to be looked at.
package pages

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/api"
)

//go:embed templates/*.html
var templateFS embed.FS

// tmpl holds all parsed page templates, keyed by file name.
var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Render writes the named page template to the response with the given
// status code.
func Render(c echo.Context, statusCode int, name string, data any) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Response().WriteHeader(statusCode)
	if err := tmpl.ExecuteTemplate(c.Response().Writer, name, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return nil
}

// --- View data ---

// SignInData feeds signin.html.
type SignInData struct {
	CSRFToken string
	Email     string
	Error     string
	// Redirect is the validated post-login target carried through the form.
	Redirect string
}

// SignUpData feeds signup.html and signup_done.html.
type SignUpData struct {
	CSRFToken   string
	Email       string
	Error       string
	FieldErrors map[string]string
}

// VerifyEmailData feeds verify_email.html.
type VerifyEmailData struct {
	Succeeded bool
	Message   string
}

// DashboardData feeds dashboard.html.
type DashboardData struct {
	User      *api.User
	Analytics *api.Analytics
}

// MyPostsData feeds my_blogs.html.
type MyPostsData struct {
	User      *api.User
	Posts     []api.Post
	Total     int64
	Status    string
	CSRFToken string
}

// AnalyticsData feeds analytics.html.
type AnalyticsData struct {
	User      *api.User
	Analytics *api.Analytics
}

// PostReadData feeds post_read.html. Content has already been sanitized;
// the template embeds it without escaping.
type PostReadData struct {
	Post    *api.Post
	Content template.HTML
}

// PostFormData feeds post_form.html for both create and edit.
type PostFormData struct {
	CSRFToken string
	Action    string
	Title     string
	Content   string
	Sources   string
	Status    string
	Error     string
}

// ErrorData feeds error.html.
type ErrorData struct {
	Code    int
	Message string
}
