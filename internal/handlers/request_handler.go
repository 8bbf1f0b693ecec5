package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/database"
	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

type CreateRequestBody struct {
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	ServiceID *uint  `json:"service_id"`
	Title     string `json:"title" validate:"required"`
	Details   string `json:"details"`
}

type ApproveRequestBody struct {
	EstimatedCost float64 `json:"estimated_cost" validate:"required,gt=0"`
	LinkMinutes   int     `json:"link_minutes" validate:"omitempty,gt=0"`
}

type IssueLinkBody struct {
	LinkMinutes int `json:"link_minutes" validate:"omitempty,gt=0"`
}

// CreateServiceRequest takes a public enquiry and opens a request for it,
// creating the client record on first contact.
func CreateServiceRequest(c *fiber.Ctx) error {
	req := new(CreateRequestBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	var client models.Client
	err := database.DB.Where("email = ?", req.Email).First(&client).Error
	if err == gorm.ErrRecordNotFound {
		client = models.Client{
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
			Company:  req.Company,
		}
		if err := database.DB.Create(&client).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create client"})
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	request := models.ServiceRequest{
		ClientID:  client.ID,
		ServiceID: req.ServiceID,
		Title:     req.Title,
		Details:   req.Details,
		Status:    models.RequestPending,
	}
	if err := database.DB.Create(&request).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create request"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Request submitted. We'll get back to you with an estimate.",
		"request": request,
	})
}

// GetAllRequests lists service requests for the back office
func GetAllRequests(c *fiber.Ctx) error {
	query := database.DB.Preload("Client")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.ServiceRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve requests"})
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetRequestByID retrieves one request with its payments
func GetRequestByID(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var request models.ServiceRequest
	if err := database.DB.Preload("Client").Preload("Payments").First(&request, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{"request": request})
}

// ApproveRequest sets the estimate, approves the request and issues the
// first payment link.
func ApproveRequest(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	req := new(ApproveRequestBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	var request models.ServiceRequest
	if err := database.DB.First(&request, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if request.Status != models.RequestPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only pending requests can be approved"})
	}

	if err := database.DB.Model(&models.ServiceRequest{}).Where("id = ?", request.ID).
		Updates(map[string]interface{}{
			"estimated_cost": req.EstimatedCost,
			"balance_due":    req.EstimatedCost,
			"status":         models.RequestApproved,
		}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to approve request"})
	}

	window := time.Duration(req.LinkMinutes) * time.Minute
	updated, err := paymentLinks.IssueLink(request.ID, window)
	if err != nil {
		return businessError(c, err)
	}

	if notificationService != nil {
		if nerr := notificationService.NotifyRequestApproved(updated); nerr != nil {
			log.Printf("⚠️  approval notification for request %d failed: %v", request.ID, nerr)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Request approved and payment link issued",
		"request": updated,
	})
}

// IssuePaymentLink issues a fresh link, typically for a remaining balance
func IssuePaymentLink(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	req := new(IssueLinkBody)
	if err := c.BodyParser(req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	window := time.Duration(req.LinkMinutes) * time.Minute
	request, err := paymentLinks.IssueLink(uint(id), window)
	if err != nil {
		return businessError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":    "Payment link issued",
		"expires_at": request.PaymentLinkExpiry,
	})
}
