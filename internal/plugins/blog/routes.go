package blog

import (
	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/guard"
)

// RegisterRoutes sets up the post routes on the given Echo instance. The
// read view is public; everything touching the author's own posts runs
// behind the session guard.
func RegisterRoutes(e *echo.Echo, h *Handler, store guard.SessionChecker) {
	e.GET("/blog/:slug", h.ReadPost)

	g := e.Group("", guard.Require(store))
	g.GET("/dashboard", h.Dashboard)
	g.GET("/my-blogs", h.MyBlogs)
	g.GET("/analytics", h.Analytics)
	g.GET("/blog/create", h.CreateForm)
	g.POST("/blog/create", h.Create)
	g.GET("/blog/edit/:id", h.EditForm)
	g.POST("/blog/edit/:id", h.Edit)
	g.POST("/blog/delete/:id", h.Delete)
}
