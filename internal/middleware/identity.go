package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a client identity function used to key the rate
// limiter: authenticated users are identified by account, anonymous
// traffic by remote IP.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// clientIdentity returns a stable identifier for the caller. JWTAuth
// stores numeric JWT claims as float64, but tests may set native integers;
// when no user is authenticated the remote IP is used instead.
func clientIdentity(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		switch t := v.(type) {
		case float64:
			return "u" + strconv.FormatUint(uint64(t), 10)
		case uint64:
			return "u" + strconv.FormatUint(t, 10)
		case string:
			if t != "" {
				return "u" + t
			}
		}
	}
	return c.RealIP()
}
