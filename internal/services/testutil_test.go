package services

import (
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Client{},
		&models.ServiceRequest{},
		&models.Payment{},
		&models.PaymentAuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

var clientSeq int

func createTestClient(t *testing.T, db *gorm.DB) *models.Client {
	t.Helper()

	clientSeq++
	client := models.Client{
		FullName: "Test Client",
		Email:    fmt.Sprintf("client%d@example.com", clientSeq),
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return &client
}

func createTestRequest(t *testing.T, db *gorm.DB, estimatedCost float64) *models.ServiceRequest {
	t.Helper()

	client := createTestClient(t, db)
	request := models.ServiceRequest{
		ClientID:             client.ID,
		Title:                "Custom software build",
		EstimatedCost:        &estimatedCost,
		BalanceDue:           estimatedCost,
		PartialPaymentStatus: models.PartialNone,
		Status:               models.RequestApproved,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return &request
}

func createTestPayment(t *testing.T, db *gorm.DB, requestID uint, amount float64, method models.PaymentMethod, ptype models.PaymentType, status models.PaymentStatus) *models.Payment {
	t.Helper()

	payment := models.Payment{
		RequestID:        requestID,
		PaymentSequence:  1,
		Amount:           amount,
		Currency:         "USD",
		PaymentMethod:    method,
		PaymentType:      ptype,
		IsPartialPayment: ptype == models.PaymentTypeSplit,
		PaymentStatus:    status,
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("failed to create payment: %v", err)
	}
	return &payment
}

func reloadPayment(t *testing.T, db *gorm.DB, id uint) *models.Payment {
	t.Helper()

	var payment models.Payment
	if err := db.First(&payment, id).Error; err != nil {
		t.Fatalf("failed to reload payment %d: %v", id, err)
	}
	return &payment
}

func reloadRequest(t *testing.T, db *gorm.DB, id uint) *models.ServiceRequest {
	t.Helper()

	var request models.ServiceRequest
	if err := db.First(&request, id).Error; err != nil {
		t.Fatalf("failed to reload request %d: %v", id, err)
	}
	return &request
}
