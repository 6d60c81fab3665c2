package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill/internal/acl"
	"quill/pkg/jwt"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubDenylist struct {
	revoked map[string]bool
	err     error
}

func (s *stubDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

type probe struct {
	called bool
	user   *PayloadUser
	role   acl.Role
	can    acl.Can
}

func newTestRouter(m *AuthMiddleware, p *probe) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(), m.Authenticate())
	r.GET("/probe", func(c *gin.Context) {
		p.called = true
		p.user, _ = CurrentUser(c)
		p.role = CurrentRole(c)
		p.can = Capability(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/private", m.RequireLogin(), func(c *gin.Context) {
		p.called = true
		c.Status(http.StatusNoContent)
	})
	return r
}

func signedToken(t *testing.T, role string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.JWTClaims{
		Role:      role,
		FirstName: "Ada",
		Email:     "ada@example.com",
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        "jti-1",
			Subject:   "u1",
			IssuedAt:  gojwt.NewNumericDate(expiresAt.Add(-time.Hour)),
			ExpiresAt: gojwt.NewNumericDate(expiresAt),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func do(r http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateAnonymousIsGuest(t *testing.T) {
	p := &probe{}
	r := newTestRouter(NewAuthMiddleware(jwt.NewJWTManager(testSecret, time.Hour, "quill"), nil), p)

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "bearer lowercase"} {
		*p = probe{}
		w := do(r, "/probe", header)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, p.called)
		assert.Nil(t, p.user)
		assert.Equal(t, acl.RoleGuest, p.role)
		assert.True(t, p.can(acl.ResourceAuth, acl.ActionLogin))
		assert.False(t, p.can(acl.ResourceContent, acl.ActionPublish))
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	p := &probe{}
	r := newTestRouter(NewAuthMiddleware(jwt.NewJWTManager(testSecret, time.Hour, "quill"), nil), p)

	w := do(r, "/probe", "Bearer "+signedToken(t, "author", time.Now().Add(time.Hour)))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, p.user)
	assert.Equal(t, "u1", p.user.ID)
	assert.Equal(t, acl.RoleAuthor, p.user.Role)
	assert.Equal(t, "Ada", p.user.FirstName)
	assert.Equal(t, "jti-1", p.user.TokenID)
	assert.True(t, p.can(acl.ResourceContent, acl.ActionCreate))
}

func TestAuthenticateExpiredTokenStopsBeforeHandler(t *testing.T) {
	p := &probe{}
	r := newTestRouter(NewAuthMiddleware(jwt.NewJWTManager(testSecret, time.Hour, "quill"), nil), p)

	w := do(r, "/probe", "Bearer "+signedToken(t, "admin", time.Now().Add(-time.Minute)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, p.called)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 401, body["status"])
	assert.NotEmpty(t, body["message"])
}

func TestAuthenticateBadSignature(t *testing.T) {
	p := &probe{}
	r := newTestRouter(NewAuthMiddleware(jwt.NewJWTManager("another-secret", time.Hour, "quill"), nil), p)

	w := do(r, "/probe", "Bearer "+signedToken(t, "admin", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, p.called)
}

func TestAuthenticateTamperedRoleDowngrades(t *testing.T) {
	p := &probe{}
	r := newTestRouter(NewAuthMiddleware(jwt.NewJWTManager(testSecret, time.Hour, "quill"), nil), p)

	for _, role := range []string{"", "superadmin", "ADMIN", "root"} {
		*p = probe{}
		w := do(r, "/probe", "Bearer "+signedToken(t, role, time.Now().Add(time.Hour)))
		require.Equal(t, http.StatusNoContent, w.Code, role)
		require.NotNil(t, p.user)
		assert.Equal(t, acl.RoleGuest, p.user.Role, role)
		assert.Equal(t, acl.RoleGuest, p.role, role)
		assert.False(t, p.can(acl.ResourceUsers, acl.ActionList), role)
		assert.False(t, p.can(acl.ResourceACLs, acl.ActionList), role)
	}
}

func TestAuthenticateRevokedToken(t *testing.T) {
	p := &probe{}
	deny := &stubDenylist{revoked: map[string]bool{"jti-1": true}}
	r := newTestRouter(NewAuthMiddleware(jwt.NewJWTManager(testSecret, time.Hour, "quill"), deny), p)

	w := do(r, "/probe", "Bearer "+signedToken(t, "admin", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, p.called)

	deny.revoked = nil
	deny.err = errors.New("redis down")
	w = do(r, "/probe", "Bearer "+signedToken(t, "admin", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, p.called)
}

func TestRequireLogin(t *testing.T) {
	p := &probe{}
	r := newTestRouter(NewAuthMiddleware(jwt.NewJWTManager(testSecret, time.Hour, "quill"), nil), p)

	w := do(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, p.called)

	w = do(r, "/private", "Bearer "+signedToken(t, "subscriber", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, p.called)
}

func TestWebSocketTokenFromQuery(t *testing.T) {
	p := &probe{}
	r := newTestRouter(NewAuthMiddleware(jwt.NewJWTManager(testSecret, time.Hour, "quill"), nil), p)

	req := httptest.NewRequest(http.MethodGet, "/probe?token="+signedToken(t, "editor", time.Now().Add(time.Hour)), nil)
	req.Header.Set("Upgrade", "websocket")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, p.user)
	assert.Equal(t, acl.RoleEditor, p.user.Role)

	*p = probe{}
	w = do(r, "/probe?token="+signedToken(t, "editor", time.Now().Add(time.Hour)), "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, p.user)
}

func TestCapabilityWithoutMiddlewareDeniesEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, Capability(c)(acl.ResourceAuth, acl.ActionLogin))
	assert.Equal(t, acl.RoleGuest, CurrentRole(c))
	assert.Empty(t, CallerID(c))
}
