package middleware

import (
	config "github.com/eyobtef/school_admin/configs"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(config.Config("JWT_SECRET")),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// RoleRequired gates a route to the given staff roles. ADMIN always passes.
func RoleRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := ClaimRole(c)
		if role == models.RoleAdmin {
			return c.Next()
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: insufficient role",
		})
	}
}

func claims(c *fiber.Ctx) jwt.MapClaims {
	token := c.Locals("user").(*jwt.Token)
	return token.Claims.(jwt.MapClaims)
}

func ClaimRole(c *fiber.Ctx) string {
	role, _ := claims(c)["role"].(string)
	return role
}

func ClaimUserID(c *fiber.Ctx) uuid.UUID {
	raw, _ := claims(c)["user_id"].(string)
	id, _ := uuid.Parse(raw)
	return id
}

// ClaimBranchID returns the acting user's branch, or nil for super admins.
func ClaimBranchID(c *fiber.Ctx) *uuid.UUID {
	raw, _ := claims(c)["branch_id"].(string)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// CanAccessBranch reports whether the acting user may touch records owned by
// branchID. Cross-branch access is reserved for super admins.
func CanAccessBranch(c *fiber.Ctx, branchID uuid.UUID) bool {
	if ClaimRole(c) == models.RoleAdmin && ClaimBranchID(c) == nil {
		return true
	}
	own := ClaimBranchID(c)
	return own != nil && *own == branchID
}
