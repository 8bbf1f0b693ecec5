package services

import (
    "fmt"
    "log"
    "os"

    "github.com/resend/resend-go/v2"
)

type EmailService struct {
    Client *resend.Client
    From   string
}

func NewEmailService() *EmailService {
    apiKey := os.Getenv("RESEND_API_KEY")
    fromEmail := os.Getenv("FROM_EMAIL")

    log.Printf("📧 Email Service Initialized (Resend)")
    log.Printf("   - From Email: %s", fromEmail)
    log.Printf("   - API Key: %s", maskAPIKey(apiKey))

    if apiKey == "" {
        log.Printf("⚠️  WARNING: RESEND_API_KEY is empty!")
    }
    if fromEmail == "" {
        log.Printf("⚠️  WARNING: FROM_EMAIL is empty!")
        fromEmail = "onboarding@resend.dev" // Resend's default test email
    }

    client := resend.NewClient(apiKey)

    return &EmailService{
        Client: client,
        From:   fromEmail,
    }
}

// Helper function to mask API key for logging
func maskAPIKey(key string) string {
    if len(key) == 0 {
        return "❌ EMPTY"
    }
    if len(key) < 8 {
        return "***"
    }
    return key[:4] + "****" + key[len(key)-4:]
}

// SendPaymentEmail sends a payment-related email using Resend
func (es *EmailService) SendPaymentEmail(to, subject, body string) error {
    htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .body-box { background-color: #f4f4f4; border-left: 4px solid #007bff; padding: 20px; margin: 20px 0; border-radius: 5px; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Kamisoft</h2>
        <div class="body-box">
            <p>%s</p>
        </div>
        <p>If you have any questions, reply to this email and our team will get back to you.</p>
        <div class="footer">
            <p>This is an automated message from Kamisoft.</p>
        </div>
    </div>
</body>
</html>
    `, body)

    params := &resend.SendEmailRequest{
        From:    es.From,
        To:      []string{to},
        Subject: subject,
        Html:    htmlBody,
    }

    sent, err := es.Client.Emails.Send(params)
    if err != nil {
        log.Printf("❌ Resend API Error: %v", err)
        return fmt.Errorf("failed to send email: %v", err)
    }

    log.Printf("✅ Email sent successfully to: %s (ID: %s)", to, sent.Id)
    return nil
}
