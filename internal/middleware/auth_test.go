package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func newCronApp() *fiber.App {
	app := fiber.New()
	app.All("/cron", CronAuth(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestCronAuth(t *testing.T) {
	t.Setenv("CRON_SECRET", "cron-token")
	t.Setenv("ADMIN_API_KEY", "admin-token")

	app := newCronApp()

	tests := []struct {
		name   string
		method string
		bearer string
		want   int
	}{
		{"scheduler with cron secret", http.MethodGet, "cron-token", http.StatusOK},
		{"manual trigger with admin key", http.MethodPost, "admin-token", http.StatusOK},
		{"cron secret on manual trigger", http.MethodPost, "cron-token", http.StatusUnauthorized},
		{"admin key on scheduler call", http.MethodGet, "admin-token", http.StatusUnauthorized},
		{"wrong token", http.MethodGet, "nope", http.StatusUnauthorized},
		{"no header", http.MethodGet, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/cron", nil)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

// A validly signed token missing the identity claims must not crash the
// middleware; downstream gates handle the missing locals.
func TestProtectedToleratesMissingClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	app := fiber.New()
	app.Get("/protected", Protected(), func(c *fiber.Ctx) error {
		if _, ok := c.Locals("user_id").(uint); ok {
			t.Error("user_id local set despite missing claim")
		}
		return c.SendStatus(fiber.StatusOK)
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAdminOnlyRejectsMissingRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	app := fiber.New()
	app.Get("/admin", Protected(), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"email":   "someone@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for a token without a role claim", resp.StatusCode)
	}
}

func TestCronAuthRejectsWhenUnconfigured(t *testing.T) {
	t.Setenv("CRON_SECRET", "")
	t.Setenv("ADMIN_API_KEY", "")

	app := newCronApp()

	req := httptest.NewRequest(http.MethodGet, "/cron", nil)
	req.Header.Set("Authorization", "Bearer ")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 when secrets are unset", resp.StatusCode)
	}
}
