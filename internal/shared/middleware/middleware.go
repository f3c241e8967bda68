package middleware

import (
	"net/http"
	"strings"
	"time"

	"cineplex/internal/shared/apperror"
	"cineplex/internal/shared/utils/response"
	"cineplex/internal/users"
	"cineplex/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
	ctxRequestID = "request_id"

	RequestIDHeader = "X-Request-ID"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == users.RoleAdmin.String()
}

// CurrentUser returns the principal set by JWTAuth.
func CurrentUser(c *gin.Context) (Principal, error) {
	raw, ok := c.Get(ctxUserID)
	if !ok {
		return Principal{}, apperror.ErrUnauthorized
	}
	idStr, _ := raw.(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Principal{}, apperror.ErrUnauthorized
	}
	return Principal{
		UserID: id,
		Email:  c.GetString(ctxUserEmail),
		Role:   c.GetString(ctxUserRole),
	}, nil
}

// JWTAuth requires a valid access token signed with secret
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		claims, ok := parseAccessToken(secret, authHeader)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth validates a token if present but doesn't require it
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if claims, ok := parseAccessToken(secret, authHeader); ok {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func parseAccessToken(secret, authHeader string) (jwt.MapClaims, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != "access" {
		return nil, false
	}
	return claims, true
}

func setClaims(c *gin.Context, claims jwt.MapClaims) {
	c.Set(ctxUserID, claims["user_id"])
	c.Set(ctxUserEmail, claims["email"])
	c.Set(ctxUserRole, claims["role"])
}

// RequireAdmin middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(users.RoleAdmin.String())
}

// RequireRoles middleware checks if user has any of the required roles
func RequireRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(ctxUserRole)
		if userRole == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "user role not found in context", nil, nil)
			c.Abort()
			return
		}

		for _, role := range requiredRoles {
			if userRole == role {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

// RequestID propagates or assigns an X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs each request once it has been served
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithRequestID(c.GetString(ctxRequestID)).LogHTTPRequest(c, time.Since(start))
	}
}
