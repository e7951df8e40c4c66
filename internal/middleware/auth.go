package middleware

import (
	"errors"
	"strings"
	"sync"

	"pharmacy/internal/apperror"
	"pharmacy/pkg/logger"
	"pharmacy/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by the auth middleware
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

var (
	secretMu  sync.RWMutex
	jwtSecret []byte
)

// InitAuth sets the HMAC secret used to verify access tokens
func InitAuth(secret string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecret = []byte(secret)
}

func getJWTSecret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return jwtSecret
}

// Claims is the subset of token claims the API relies on
type Claims struct {
	UserID string
	Role   string
}

var errMissingSecret = errors.New("auth secret not initialized")

// ParseToken verifies an HS256 token and extracts its subject and role
func ParseToken(tokenString string) (Claims, error) {
	secret := getJWTSecret()
	if len(secret) == 0 {
		return Claims{}, errMissingSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	sub, _ := mapClaims["sub"].(string)
	role, _ := mapClaims["role"].(string)
	if sub == "" || role == "" {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	return Claims{UserID: sub, Role: role}, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
// ok is false when the header is absent.
func bearerToken(c *gin.Context) (token string, ok bool, err error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", true, errors.New("invalid authorization format. Expected 'Bearer <token>'")
	}
	return strings.TrimSpace(parts[1]), true, nil
}

func abort(c *gin.Context, appErr *apperror.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, response.FieldError(appErr.HTTPStatus, appErr.Code, appErr.Field, appErr.Message, appErr.Details))
}

func setIdentity(c *gin.Context, claims Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserRole, claims.Role)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
}

// RequireRole validates the bearer token and checks the user's role is one of allowedRoles
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, present, err := bearerToken(c)
		if !present {
			abort(c, apperror.NewUnauthorized("Authorization is missing"))
			return
		}
		if err != nil {
			abort(c, apperror.NewUnauthorized(err.Error()))
			return
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			logger.Debug(c.Request.Context(), "token rejected", "error", err)
			abort(c, apperror.NewUnauthorized("Invalid token"))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if claims.Role == role {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			abort(c, apperror.NewForbidden("Access denied: insufficient permissions"))
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the identity when a valid bearer token is sent and
// lets anonymous requests through. A malformed or invalid token is still rejected.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, present, err := bearerToken(c)
		if !present {
			c.Next()
			return
		}
		if err != nil {
			abort(c, apperror.NewUnauthorized(err.Error()))
			return
		}
		claims, err := ParseToken(tokenString)
		if err != nil {
			abort(c, apperror.NewUnauthorized("Invalid token"))
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// Identity returns the authenticated user id and role, empty when anonymous
func Identity(c *gin.Context) (userID, role string) {
	userID = c.GetString(ContextUserID)
	role = c.GetString(ContextUserRole)
	return userID, role
}
