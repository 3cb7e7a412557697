package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/models"
)

var testSecret = []byte("test-secret")

func issue(t *testing.T, roles ...string) string {
	t.Helper()
	token, _, err := IssueToken(testSecret, &models.User{ID: 7, Username: "alice", Roles: roles}, time.Minute)
	require.NoError(t, err)
	return token
}

func protectedApp(extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{JWTMiddleware(testSecret)}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		claims, err := ExtractClaims(c)
		if err != nil {
			return err
		}
		return c.SendString(claims.Username)
	})
	app.Get("/test", handlers...)
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) int {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestJWTMiddlewareBearer(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, "user"))
	assert.Equal(t, 200, do(t, protectedApp(), req))
}

func TestJWTMiddlewareCookie(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: issue(t, "user")})
	assert.Equal(t, 200, do(t, protectedApp(), req))
}

func TestJWTMiddlewareRejects(t *testing.T) {
	expired, _, err := IssueToken(testSecret, &models.User{ID: 1, Username: "old"}, -time.Minute)
	require.NoError(t, err)
	foreign, _, err := IssueToken([]byte("other"), &models.User{ID: 1, Username: "x"}, time.Minute)
	require.NoError(t, err)

	cases := map[string]string{
		"missing":   "",
		"no bearer": issue(t, "user"),
		"garbage":   "Bearer not-a-jwt",
		"expired":   "Bearer " + expired,
		"foreign":   "Bearer " + foreign,
	}
	for name, header := range cases {
		req := httptest.NewRequest("GET", "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, 401, do(t, protectedApp(), req), name)
	}
}

func TestParseTokenRejectsNoneAlgorithm(t *testing.T) {
	claims := &models.JwtClaims{UserID: 1, Roles: []string{"admin"}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminRequired(t *testing.T) {
	app := protectedApp(AdminRequired)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, "admin", "user"))
	assert.Equal(t, 200, do(t, app, req))

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, "user"))
	assert.Equal(t, 403, do(t, app, req))
}

func TestAdminRequiredWithoutClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/test", AdminRequired, func(c *fiber.Ctx) error { return c.SendString("ok") })
	assert.Equal(t, 403, do(t, app, httptest.NewRequest("GET", "/test", nil)))
}

func TestRoleRequired(t *testing.T) {
	app := protectedApp(RoleRequired("user", "admin"))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, "user"))
	assert.Equal(t, 200, do(t, app, req))

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t))
	assert.Equal(t, 403, do(t, app, req))
}
