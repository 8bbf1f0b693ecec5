package handlers

import (
    "os"
    "time"

    "github.com/gofiber/fiber/v2"
    "github.com/golang-jwt/jwt/v5"
    "golang.org/x/crypto/bcrypt"
    "gorm.io/gorm"

    "github.com/D-Honoured1/Kamisoft-sub001/internal/database"
    "github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

type AdminHandler struct {
    db *gorm.DB
}

func NewAdminHandler() *AdminHandler {
    return &AdminHandler{
        db: database.DB,
    }
}

// AdminLogin
func (h *AdminHandler) AdminLogin(c *fiber.Ctx) error {
    var req struct {
        Email    string `json:"email" validate:"required,email"`
        Password string `json:"password" validate:"required"`
    }

    if err := c.BodyParser(&req); err != nil {
        return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
            "error": "Invalid request body",
        })
    }

    // Find user by email
    var user models.User
    if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
        return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
            "error": "Invalid credentials",
        })
    }

    // Check if user is admin
    if !user.IsAdmin() {
        return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
            "error": "Admin access required",
        })
    }

    // Check if account is suspended
    if user.IsSuspended {
        return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
            "error": "Account is suspended",
        })
    }

    // Verify password
    if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
        return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
            "error": "Invalid credentials",
        })
    }

    // Generate JWT token
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "user_id": user.ID,
        "email":   user.Email,
        "role":    user.Role,
        "exp":     time.Now().Add(time.Hour * 24 * 7).Unix(), // 7 days for admin
    })

    tokenString, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
    if err != nil {
        return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
            "error": "Failed to generate token",
        })
    }

    return c.JSON(fiber.Map{
        "message": "Admin login successful",
        "token":   tokenString,
        "user": fiber.Map{
            "id":        user.ID,
            "full_name": user.FullName,
            "email":     user.Email,
            "role":      user.Role,
        },
    })
}

// InitializeFirstAdmin bootstraps the first admin account with the setup key
func (h *AdminHandler) InitializeFirstAdmin(c *fiber.Ctx) error {
    // Check if any admin already exists
    var adminCount int64
    h.db.Model(&models.User{}).Where("role = ?", "admin").Count(&adminCount)

    if adminCount > 0 {
        return c.Status(fiber.StatusConflict).JSON(fiber.Map{
            "error": "Admin already exists.",
        })
    }

    var req struct {
        FullName string `json:"full_name" validate:"required"`
        Email    string `json:"email" validate:"required,email"`
        Password string `json:"password" validate:"required,min=8"`
        SetupKey string `json:"setup_key" validate:"required"`
    }

    if err := c.BodyParser(&req); err != nil {
        return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
            "error": "Invalid request body",
        })
    }
    if err := validate.Struct(&req); err != nil {
        return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
            "error": "Validation failed", "details": err.Error(),
        })
    }

    setupKey := os.Getenv("ADMIN_SETUP_KEY")
    if setupKey == "" {
        return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
            "error": "Admin setup is not configured",
        })
    }

    if req.SetupKey != setupKey {
        return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
            "error": "Invalid setup key",
        })
    }

    // Hash password
    hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
    if err != nil {
        return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
            "error": "Failed to hash password",
        })
    }

    admin := models.User{
        FullName: req.FullName,
        Email:    req.Email,
        Password: string(hashedPassword),
        Role:     "admin",
    }

    if err := h.db.Create(&admin).Error; err != nil {
        return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
            "error": "Failed to create admin account",
        })
    }

    return c.Status(fiber.StatusCreated).JSON(fiber.Map{
        "message": "First admin account created successfully",
        "admin": fiber.Map{
            "id":        admin.ID,
            "full_name": admin.FullName,
            "email":     admin.Email,
            "role":      admin.Role,
        },
    })
}

// GetAdminProfile returns the current admin's profile
func (h *AdminHandler) GetAdminProfile(c *fiber.Ctx) error {
    userID := c.Locals("user_id").(uint)

    var admin models.User
    if err := h.db.First(&admin, userID).Error; err != nil {
        return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
            "error": "Admin not found",
        })
    }

    return c.JSON(fiber.Map{
        "admin": fiber.Map{
            "id":         admin.ID,
            "full_name":  admin.FullName,
            "email":      admin.Email,
            "role":       admin.Role,
            "created_at": admin.CreatedAt,
        },
    })
}

// GetDashboardStats summarizes the payment pipeline for the admin dashboard
func (h *AdminHandler) GetDashboardStats(c *fiber.Ctx) error {
    var totalRequests, pendingPayments, confirmedPayments int64
    var confirmedVolume float64

    h.db.Model(&models.ServiceRequest{}).Count(&totalRequests)
    h.db.Model(&models.Payment{}).Where("payment_status = ?", models.PaymentPending).Count(&pendingPayments)
    h.db.Model(&models.Payment{}).Where("payment_status = ?", models.PaymentConfirmed).Count(&confirmedPayments)
    h.db.Model(&models.Payment{}).Where("payment_status = ?", models.PaymentConfirmed).
        Select("COALESCE(SUM(amount), 0)").Scan(&confirmedVolume)

    var outstanding float64
    h.db.Model(&models.ServiceRequest{}).Select("COALESCE(SUM(balance_due), 0)").Scan(&outstanding)

    return c.JSON(fiber.Map{
        "total_requests":      totalRequests,
        "pending_payments":    pendingPayments,
        "confirmed_payments":  confirmedPayments,
        "confirmed_volume":    confirmedVolume,
        "outstanding_balance": outstanding,
    })
}
