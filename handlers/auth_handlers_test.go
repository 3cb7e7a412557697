package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/middleware"
	"salesforecast/models"
)

func TestRegisterLoginMe(t *testing.T) {
	h := newTestHandler()
	app := newTestApp(h)

	resp, env := doJSON(t, app, "POST", "/api/v1/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"s3cret-pass"}`, "")
	require.Equal(t, 201, resp.StatusCode, env.Message)
	var created models.User
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, []string{"user"}, created.Roles)
	assert.NotContains(t, string(env.Data), "s3cret-pass")
	assert.NotContains(t, string(env.Data), "password")

	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"username":"alice","password":"s3cret-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	loginResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, loginResp.StatusCode)

	var body struct {
		AccessToken string      `json:"accessToken"`
		User        models.User `json:"user"`
	}
	raw, _ := io.ReadAll(loginResp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotEmpty(t, body.AccessToken)
	assert.Equal(t, []string{"user"}, body.User.Roles)

	var cookieFound bool
	for _, c := range loginResp.Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cookieFound = true
			assert.Equal(t, body.AccessToken, c.Value)
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, cookieFound, "access token cookie not set")

	resp, env = doJSON(t, app, "GET", "/api/v1/auth/me", "", body.AccessToken)
	require.Equal(t, 200, resp.StatusCode)
	var me models.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(newTestHandler())

	cases := map[string]string{
		"missing password": `{"username":"bob","email":"bob@example.com"}`,
		"bad email":        `{"username":"bob","email":"not-an-email","password":"x"}`,
		"long username":    `{"username":"` + strings.Repeat("b", 51) + `","email":"bob@example.com","password":"x"}`,
		"not json":         `{`,
	}
	for name, body := range cases {
		resp, env := doJSON(t, app, "POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, 400, resp.StatusCode, name)
		assert.Equal(t, "error", env.Status, name)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	app := newTestApp(newTestHandler())
	body := `{"username":"carol","email":"carol@example.com","password":"pw"}`

	resp, _ := doJSON(t, app, "POST", "/api/v1/auth/register", body, "")
	require.Equal(t, 201, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/api/v1/auth/register", body, "")
	assert.Equal(t, 409, resp.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(newTestHandler())
	resp, _ := doJSON(t, app, "POST", "/api/v1/auth/register",
		`{"username":"dave","email":"dave@example.com","password":"right"}`, "")
	require.Equal(t, 201, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/auth/login", `{"username":"dave","password":"wrong"}`, "")
	assert.Equal(t, 401, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/api/v1/auth/login", `{"username":"nobody","password":"right"}`, "")
	assert.Equal(t, 401, resp.StatusCode)
}

func TestLogoutClearsCookie(t *testing.T) {
	app := newTestApp(newTestHandler())
	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/auth/logout", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cleared = c.Value == ""
		}
	}
	assert.True(t, cleared)
}

func TestMeRequiresToken(t *testing.T) {
	app := newTestApp(newTestHandler())
	resp, _ := doJSON(t, app, "GET", "/api/v1/auth/me", "", "")
	assert.Equal(t, 401, resp.StatusCode)

	// valid token for an account that was never stored
	resp, _ = doJSON(t, app, "GET", "/api/v1/auth/me", "", tokenFor(t, 99, "ghost", "user"))
	assert.Equal(t, 401, resp.StatusCode)
}
