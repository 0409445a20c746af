package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"algomancy.gg/deckhub/internal/entity"
	userDto "algomancy.gg/deckhub/internal/modules/user/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubResolver struct {
	calls     int
	fail      bool
	bySubject map[string]*entity.User
}

func (s *stubResolver) EnsureUser(_ context.Context, identity userDto.Identity) (*entity.User, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("db down")
	}
	u, ok := s.bySubject[identity.Subject]
	if !ok {
		u = &entity.User{ID: uuid.New(), Subject: identity.Subject, Username: identity.Username, Role: entity.RolePlayer}
		s.bySubject[identity.Subject] = u
	}
	if identity.Role != "" {
		u.Role = identity.Role
	}
	return u, nil
}

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims(subject, role string) Claims {
	return Claims{
		Username: "player-" + subject,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newRouter(m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	echo := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("user_role")})
	}
	r.GET("/private", m.RequireAuth(), echo)
	r.GET("/optional", m.OptionalAuth(), echo)
	r.GET("/admin", m.RequireAuth(), m.RequireAdmin(), echo)
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	resolver := &stubResolver{bySubject: map[string]*entity.User{}}
	r := newRouter(NewAuthMiddleware(resolver, testSecret, nil))

	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", sign(t, "wrong", validClaims("a", ""))).Code)

	expired := validClaims("a", "")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", sign(t, testSecret, expired)).Code)

	token := sign(t, testSecret, validClaims("a", ""))
	w := get(r, "/private", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), resolver.bySubject["a"].ID.String())

	get(r, "/private", token)
	assert.Equal(t, 1, resolver.calls)
}

func TestRequireAuth_QueryTokenFallback(t *testing.T) {
	resolver := &stubResolver{bySubject: map[string]*entity.User{}}
	r := newRouter(NewAuthMiddleware(resolver, testSecret, nil))

	w := get(r, "/private?token="+sign(t, testSecret, validClaims("ws", "")), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_ResolverFailure(t *testing.T) {
	resolver := &stubResolver{bySubject: map[string]*entity.User{}, fail: true}
	r := newRouter(NewAuthMiddleware(resolver, testSecret, nil))

	w := get(r, "/private", sign(t, testSecret, validClaims("a", "")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	resolver := &stubResolver{bySubject: map[string]*entity.User{}}
	r := newRouter(NewAuthMiddleware(resolver, testSecret, nil))

	w := get(r, "/optional", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/optional", "garbage").Code)
	assert.Equal(t, http.StatusOK, get(r, "/optional", sign(t, testSecret, validClaims("b", ""))).Code)
}

func TestRequireAdmin(t *testing.T) {
	resolver := &stubResolver{bySubject: map[string]*entity.User{}}
	r := newRouter(NewAuthMiddleware(resolver, testSecret, nil))

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", sign(t, testSecret, validClaims("p", entity.RolePlayer))).Code)

	w := get(r, "/admin", sign(t, testSecret, validClaims("boss", entity.RoleAdmin)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}
