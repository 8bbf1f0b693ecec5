package middleware

import (
    "os"
    "strings"

    "github.com/gofiber/fiber/v2"
    "github.com/golang-jwt/jwt/v5"
)

func Protected() fiber.Handler {
    return func(c *fiber.Ctx) error {
        // Get token from Authorization header
        authHeader := c.Get("Authorization")
        if authHeader == "" {
            return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
                "error": "Missing authorization header",
            })
        }

        // Extract token from "Bearer <token>"
        tokenString := strings.Replace(authHeader, "Bearer ", "", 1)

        // Parse and validate token
        token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
            // Validate signing method
            if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
                return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
            }
            return []byte(os.Getenv("JWT_SECRET")), nil
        })

        if err != nil || !token.Valid {
            return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
                "error": "Invalid or expired token",
            })
        }

        // Extract claims. A signed token missing a claim just leaves the
        // local unset; downstream gates reject it.
        if claims, ok := token.Claims.(jwt.MapClaims); ok {
            if id, ok := claims["user_id"].(float64); ok {
                c.Locals("user_id", uint(id))
            }
            if email, ok := claims["email"].(string); ok {
                c.Locals("email", email)
            }
            if role, ok := claims["role"].(string); ok {
                c.Locals("role", role)
            }
        }

        return c.Next()
    }
}

// AdminOnly requires the role claim set by Protected. Keep it after
// Protected in the chain.
func AdminOnly() fiber.Handler {
    return func(c *fiber.Ctx) error {
        role, _ := c.Locals("role").(string)
        if role != "admin" {
            return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
                "error": "Admin access required",
            })
        }
        return c.Next()
    }
}

// CronAuth guards the cleanup trigger. GET requests carry the cron secret,
// POST (the manual admin trigger) carries the admin API key.
func CronAuth() fiber.Handler {
    return func(c *fiber.Ctx) error {
        authHeader := c.Get("Authorization")
        if authHeader == "" {
            return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
                "error": "Missing authorization header",
            })
        }
        token := strings.TrimPrefix(authHeader, "Bearer ")

        var expected string
        if c.Method() == fiber.MethodPost {
            expected = os.Getenv("ADMIN_API_KEY")
        } else {
            expected = os.Getenv("CRON_SECRET")
        }

        if expected == "" || token != expected {
            return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
                "error": "Invalid or missing credentials",
            })
        }
        return c.Next()
    }
}
