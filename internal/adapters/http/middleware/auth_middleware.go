package middleware

import (
	"strings"

	"shg-finance/internal/core/domain"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/jwt"
	"shg-finance/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	principalKey = "principal"
	claimsKey    = "claims"
)

// AuthMiddleware verifies the access token and stores the caller's principal
func AuthMiddleware(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := tokenFrom(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		principal, claims, err := auth.Authenticate(c.UserContext(), accessToken)
		if err != nil {
			return response.FromError(c, err)
		}

		c.Locals(principalKey, principal)
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// OptionalAuth resolves the principal when a valid token is present and
// lets the request through either way
func OptionalAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := tokenFrom(c); accessToken != "" {
			if principal, claims, err := auth.Authenticate(c.UserContext(), accessToken); err == nil {
				c.Locals(principalKey, principal)
				c.Locals(claimsKey, claims)
			}
		}
		return c.Next()
	}
}

// RequireRoles allows callers holding any of roles. ADMIN always passes.
func RequireRoles(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := Principal(c)
		if !p.Authenticated() {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !p.CanAccess(roles...) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// AdminOnly middleware allows only ADMIN role
func AdminOnly() fiber.Handler {
	return RequireRoles(domain.RoleAdmin)
}

// Principal returns the authenticated caller, or nil
func Principal(c *fiber.Ctx) *domain.Principal {
	p, _ := c.Locals(principalKey).(*domain.Principal)
	return p
}

// Claims returns the verified access token claims, or nil
func Claims(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(claimsKey).(*jwt.Claims)
	return claims
}

// tokenFrom reads the access token from the cookie first, then the Authorization header
func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
