package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/inkwellhq/inkwell/internal/api"
)

// RelayCookies copies the Set-Cookie values observed during outbound API
// calls onto the browser response, attributes intact. The backend owns the
// credential cookies; this app only ferries them. Call after every handler
// path that touched the API -- a silent refresh can renew cookies on any
// authenticated call.
func RelayCookies(c echo.Context, creds *api.Credentials) {
	for _, ck := range creds.Updates() {
		c.SetCookie(ck)
	}
}
