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

// FormatAmount renders minor currency units for humans, e.g. 10000 GHS
// -> "GHS 100.00".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, minor/100, minor%100)
}

// SendReceiptEmail thanks the giver after a gift settles.
func (es *EmailService) SendReceiptEmail(to, name, reference, amount, category string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .amount-box { background-color: #f4f4f4; border: 2px dashed #28a745; padding: 20px; text-align: center; margin: 20px 0; border-radius: 5px; }
        .amount { font-size: 32px; font-weight: bold; color: #28a745; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Thank you for your gift, %s!</h2>
        <p>Your gift towards <strong>%s</strong> has been received.</p>
        <div class="amount-box">
            <div class="amount">%s</div>
        </div>
        <p>Reference: <strong>%s</strong></p>
        <p>Keep this reference for your records.</p>
        <div class="footer">
            <p>This is an automated message, please do not reply.</p>
        </div>
    </div>
</body>
</html>
	`, name, category, amount, reference)

	return es.send(to, "FaithGive - Gift Received", htmlBody)
}

// SendPaymentFailedEmail tells the giver why a charge did not go through.
func (es *EmailService) SendPaymentFailedEmail(to, name, reference, amount, reason string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .reason-box { background-color: #f4f4f4; border: 2px dashed #dc3545; padding: 20px; text-align: center; margin: 20px 0; border-radius: 5px; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Hi %s, your gift could not be processed</h2>
        <p>Your gift of <strong>%s</strong> (reference %s) did not complete.</p>
        <div class="reason-box">%s</div>
        <p>You can try again at any time from the giving page.</p>
        <div class="footer">
            <p>This is an automated message, please do not reply.</p>
        </div>
    </div>
</body>
</html>
	`, name, amount, reference, reason)

	return es.send(to, "FaithGive - Gift Failed", htmlBody)
}

// SendPlanPausedEmail tells the giver their standing gift was paused and
// why, so a plan never stops silently.
func (es *EmailService) SendPlanPausedEmail(to, name, amount, frequency, reason string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .reason-box { background-color: #f4f4f4; border: 2px dashed #ffc107; padding: 20px; text-align: center; margin: 20px 0; border-radius: 5px; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Hi %s, your recurring gift was paused</h2>
        <p>Your %s gift of <strong>%s</strong> has been paused:</p>
        <div class="reason-box">%s</div>
        <p>You can resume the plan from your giving page once the issue is resolved.</p>
        <div class="footer">
            <p>This is an automated message, please do not reply.</p>
        </div>
    </div>
</body>
</html>
	`, name, frequency, amount, reason)

	return es.send(to, "FaithGive - Recurring Gift Paused", htmlBody)
}

func (es *EmailService) send(to, subject, htmlBody string) error {
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
