package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/database"
	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

type ServiceBody struct {
	Name        string   `json:"name" validate:"required"`
	Slug        string   `json:"slug" validate:"required"`
	Description string   `json:"description"`
	BasePrice   *float64 `json:"base_price"`
	IsPublished *bool    `json:"is_published"`
}

// ListServices returns the published catalog for the public site
func ListServices(c *fiber.Ctx) error {
	var services []models.Service
	if err := database.DB.Where("is_published = ?", true).Order("name ASC").Find(&services).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve services"})
	}
	return c.JSON(fiber.Map{"services": services, "count": len(services)})
}

// GetServiceBySlug returns one catalog entry
func GetServiceBySlug(c *fiber.Ctx) error {
	var service models.Service
	if err := database.DB.Where("slug = ? AND is_published = ?", c.Params("slug"), true).First(&service).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(fiber.Map{"service": service})
}

// CreateService adds a catalog entry
func CreateService(c *fiber.Ctx) error {
	req := new(ServiceBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	var existing models.Service
	if err := database.DB.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Slug already in use"})
	}

	service := models.Service{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		IsPublished: req.IsPublished == nil || *req.IsPublished,
	}
	if err := database.DB.Create(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create service"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"service": service})
}

// UpdateService edits a catalog entry
func UpdateService(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service id"})
	}

	var service models.Service
	if err := database.DB.First(&service, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	req := new(ServiceBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != "" {
		service.Name = req.Name
	}
	if req.Slug != "" {
		service.Slug = req.Slug
	}
	if req.Description != "" {
		service.Description = req.Description
	}
	if req.BasePrice != nil {
		service.BasePrice = req.BasePrice
	}
	if req.IsPublished != nil {
		service.IsPublished = *req.IsPublished
	}

	if err := database.DB.Save(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update service"})
	}

	return c.JSON(fiber.Map{"service": service})
}

// DeleteService removes a catalog entry and its image
func DeleteService(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service id"})
	}

	var service models.Service
	if err := database.DB.First(&service, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if service.ImagePublicID != "" && cloudinaryService != nil {
		if err := cloudinaryService.DeleteImage(service.ImagePublicID); err != nil {
			// Image cleanup is best-effort; the catalog row still goes.
			fmt.Printf("Failed to delete image %s: %v\n", service.ImagePublicID, err)
		}
	}

	if err := database.DB.Delete(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete service"})
	}

	return c.JSON(fiber.Map{"message": "Service deleted successfully"})
}

// UploadServiceImage handles a catalog image upload
func UploadServiceImage(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service id"})
	}

	var service models.Service
	if err := database.DB.First(&service, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file provided"})
	}

	// Validate file size (10MB max)
	maxSize := int64(10 * 1024 * 1024)
	if file.Size > maxSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large. Maximum size is %dMB", maxSize/(1024*1024)),
		})
	}

	result, err := cloudinaryService.UploadImage(file, "kamisoft/services")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to upload file: %v", err),
		})
	}

	// Replace the previous image if there was one
	if service.ImagePublicID != "" {
		if derr := cloudinaryService.DeleteImage(service.ImagePublicID); derr != nil {
			fmt.Printf("Failed to delete old image %s: %v\n", service.ImagePublicID, derr)
		}
	}

	service.ImageURL = result.SecureURL
	service.ImagePublicID = result.PublicID
	if err := database.DB.Save(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store image reference"})
	}

	return c.JSON(fiber.Map{
		"message": "Image uploaded successfully",
		"file": fiber.Map{
			"url":        result.SecureURL,
			"public_id":  result.PublicID,
			"format":     result.Format,
			"size_bytes": result.Bytes,
		},
	})
}
