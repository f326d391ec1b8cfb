package admin

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.cookie = ""

	w := env.get("/admin/tags")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.cookie = ""

	w := env.postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"nope"}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestLogin_NonStaffRefused(t *testing.T) {
	env := newTestEnv(t)
	env.cookie = ""
	createTestUser(t, env.db, "reader", "reader-password", false)

	w := env.postForm("/admin/login", url.Values{"username": {"reader"}, "password": {"reader-password"}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/admin/me")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "admin", body["user"].(map[string]interface{})["username"])
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/admin/logout", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	env.cookie = sessionCookie(w)

	assert.Equal(t, http.StatusUnauthorized, env.get("/admin/me").Code)
}

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword("password123")
	require.NoError(t, err)

	assert.True(t, checkPasswordHash("password123", hash))
	assert.False(t, checkPasswordHash("wrong", hash))
}
