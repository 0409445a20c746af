package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"algomancy.gg/deckhub/internal/entity"
	userDto "algomancy.gg/deckhub/internal/modules/user/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

const identityCacheSize = 4096

// IdentityResolver maps a verified token identity onto a local user.
type IdentityResolver interface {
	EnsureUser(ctx context.Context, identity userDto.Identity) (*entity.User, error)
}

// Claims are the fields the auth provider puts in its access tokens.
type Claims struct {
	Username string `json:"preferred_username"`
	Picture  string `json:"picture"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type resolvedUser struct {
	id   uuid.UUID
	role string
}

type AuthMiddleware struct {
	users  IdentityResolver
	secret []byte
	cache  *lru.Cache
	log    *zap.Logger
}

func NewAuthMiddleware(users IdentityResolver, secret string, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	if secret == "" {
		log.Warn("JWT_SECRET is empty, using the development secret")
		secret = "development-secret"
	}
	cache, _ := lru.New(identityCacheSize)
	return &AuthMiddleware{
		users:  users,
		secret: []byte(secret),
		cache:  cache,
		log:    log.Named("auth"),
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Browsers cannot set headers on websocket upgrades.
	return c.Query("token")
}

func (m *AuthMiddleware) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// resolve returns the local user for the claims. Users are cached per
// (subject, role) so a role change at the provider is picked up.
func (m *AuthMiddleware) resolve(ctx context.Context, claims *Claims) (resolvedUser, error) {
	cacheKey := claims.Subject + "|" + claims.Role
	if v, ok := m.cache.Get(cacheKey); ok {
		return v.(resolvedUser), nil
	}

	identity := userDto.Identity{
		Subject:  claims.Subject,
		Username: claims.Username,
		Role:     claims.Role,
	}
	if claims.Picture != "" {
		picture := claims.Picture
		identity.AvatarURL = &picture
	}

	user, err := m.users.EnsureUser(ctx, identity)
	if err != nil {
		return resolvedUser{}, err
	}

	resolved := resolvedUser{id: user.ID, role: user.Role}
	m.cache.Add(cacheKey, resolved)
	return resolved, nil
}

func (m *AuthMiddleware) authenticate(c *gin.Context, tokenString string) bool {
	claims, err := m.parse(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		c.Abort()
		return false
	}

	user, err := m.resolve(c.Request.Context(), claims)
	if err != nil {
		m.log.Error("failed to resolve user", zap.String("subject", claims.Subject), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not load user"})
		c.Abort()
		return false
	}

	c.Set("user_id", user.id.String())
	c.Set("user_role", user.role)
	return true
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		if !m.authenticate(c, tokenString) {
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is present. A bad token is
// still rejected so clients notice expired sessions.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		if !m.authenticate(c, tokenString) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		if c.GetString("user_role") != entity.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
