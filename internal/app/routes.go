package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/pages"
	"github.com/inkwellhq/inkwell/internal/plugins/auth"
	"github.com/inkwellhq/inkwell/internal/plugins/blog"
)

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each plugin's route registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Landing page. The edge gate already sends signed-in clients to the
	// dashboard before routing gets here.
	e.GET("/", func(c echo.Context) error {
		return pages.Render(c, http.StatusOK, "landing.html", nil)
	})

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		if err := a.Redis.Ping(c.Request().Context()).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// auth plugin (sign-in, sign-up, logout, email verification).
	auth.RegisterRoutes(e, auth.NewHandler(a.Store, a.Client))

	// blog plugin (public read view plus the guarded author pages).
	blog.RegisterRoutes(e, blog.NewHandler(a.Client), a.Store)
}
