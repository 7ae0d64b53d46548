package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/middleware"
)

// RegisterRoutes sets up the auth-related routes on the given Echo instance.
// Auth routes are public -- the edge gate already bounces a signed-in client
// off the sign-in and sign-up pages.
//
// POST endpoints are rate-limited to prevent brute-force and credential
// stuffing attacks: 10 attempts per IP per minute for sign-in, 5 for sign-up.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/signin", h.SignInForm)
	e.POST("/signin", h.SignIn, middleware.RateLimit(10, time.Minute))
	e.GET("/signup", h.SignUpForm)
	e.POST("/signup", h.SignUp, middleware.RateLimit(5, time.Minute))
	e.GET("/verify-email", h.VerifyEmail)

	e.POST("/logout", h.Logout)
}
