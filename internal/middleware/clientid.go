package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// clientCookieName is the cookie identifying one browser to this app. It
// carries no authority -- it only keys the client's UI state (signed-in
// hint, last error) in the session store. The backend's credential cookies
// are a separate concern and never minted here.
const clientCookieName = "inkwell_client"

// contextKeyClientID is the Echo context key the client id is stored under.
const contextKeyClientID = "client_id"

// clientCookieMaxAge keeps the client id stable across visits so the
// persisted signed-in hint can be found again. One year, in seconds.
const clientCookieMaxAge = 365 * 24 * 60 * 60

// ClientID returns middleware that guarantees every request has a client id:
// it reads the client cookie, minting and setting one when absent, and
// stores the id in the Echo context for handlers.
func ClientID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			var id string
			if cookie, err := req.Cookie(clientCookieName); err == nil && cookie.Value != "" {
				id = cookie.Value
			} else {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     clientCookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
					SameSite: http.SameSiteLaxMode,
					MaxAge:   clientCookieMaxAge,
				})
			}

			c.Set(contextKeyClientID, id)
			return next(c)
		}
	}
}

// GetClientID retrieves the client id from the Echo context. Returns empty
// string if the middleware didn't run.
func GetClientID(c echo.Context) string {
	id, ok := c.Get(contextKeyClientID).(string)
	if !ok {
		return ""
	}
	return id
}
