package database

import (
    "fmt"
    "log"

    "github.com/D-Honoured1/Kamisoft-sub001/internal/models"
)


func Migrate() error {
    log.Println("Running database migrations...")

    err := DB.AutoMigrate(
        &models.User{},
        &models.Client{},
        &models.Service{},
        &models.ServiceRequest{},
        &models.Payment{},
        &models.PaymentAuditLog{},
        &models.Notification{},
    )

    if err != nil {
        log.Printf("Error migrating database: %v", err)
        return fmt.Errorf("failed to migrate database: %w", err)
    }

    log.Println("Database migration completed successfully")
    return nil
}
