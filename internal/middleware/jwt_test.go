package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/transportpass/api/internal/utils"
)

const testSecret = "test-secret"

func runProtected(t *testing.T, authHeader string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler chain: %v", err)
	}
	return rec
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec := runProtected(t, "", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access token required")
}

func TestJWTAuthMalformedToken(t *testing.T) {
	rec := runProtected(t, "Bearer not-a-jwt", JWTAuth(testSecret))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 42, "u@example.com", "user", 15)
	assert.NoError(t, err)
	rec := runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "u@example.com", "user", 15)
	assert.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotRole interface{}
	var gotSub interface{}
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		gotSub = c.Get("user_id")
		gotRole = c.Get("role")
		return c.String(http.StatusOK, "ok")
	})
	assert.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	// Numeric JSON claims decode as float64.
	assert.EqualValues(t, 42, gotSub)
	assert.Equal(t, "user", gotRole)
}

func TestRequireAdminRejectsUserRole(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "u@example.com", "user", 15)
	assert.NoError(t, err)
	rec := runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret), RequireAdmin())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin access required")
}

func TestRequireAdminAllowsAdminRole(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 1, "admin@example.com", "admin", 15)
	assert.NoError(t, err)
	rec := runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret), RequireAdmin())
	assert.Equal(t, http.StatusOK, rec.Code)
}
