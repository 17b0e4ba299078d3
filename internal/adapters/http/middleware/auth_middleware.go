package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"libraryhub/internal/config"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/jwt"
	"libraryhub/internal/pkg/logger"
	"libraryhub/internal/pkg/response"
)

// AccessTokenCookie is the cookie the access token is stored in
const AccessTokenCookie = "access_token"

func extractToken(c *fiber.Ctx) string {
	// 1. Try to get token from cookie first
	if token := c.Cookies(AccessTokenCookie); token != "" {
		return token
	}
	// 2. Fall back to the Authorization header
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func setClaims(c *fiber.Ctx, claims *jwt.Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("email", claims.Email)
	c.Locals("name", claims.Name)
	c.Locals("role", claims.Role)
	c.SetUserContext(logger.WithFields(c.UserContext(), map[string]interface{}{"user_id": claims.UserID}))
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg config.JWTConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		setClaims(c, claims)
		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if role == string(allowed) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only ADMIN role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// StaffOnly middleware allows LIBRARIAN or ADMIN roles
func StaffOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleLibrarian, domain.RoleAdmin)
}

// OptionalAuth sets user info when a valid token is present and never rejects
func OptionalAuth(cfg config.JWTConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := extractToken(c); accessToken != "" {
			if claims, err := jwt.ValidateAccessToken(accessToken, cfg.Secret); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}
