package utils

import (
	"fmt"
	"strconv"

	"hope-backend/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var mailer *gomail.Dialer

// InitializeMailer sets up the mailer using environment variables
func InitializeMailer() {
	mailHost := config.GetEnv("SMTP_HOST")
	mailPort := config.GetEnvOrDefault("SMTP_PORT", "25")
	mailUser := config.GetEnv("SMTP_USER")
	mailPassword := config.GetEnv("SMTP_PASSWORD")

	port, err := strconv.Atoi(mailPort)
	if err != nil {
		config.Logger.Error("Invalid SMTP_PORT value, defaulting to port 25",
			zap.String("provided_port", mailPort),
			zap.Error(err),
		)
		port = 25
	}

	mailer = gomail.NewDialer(mailHost, port, mailUser, mailPassword)
	config.Logger.Info("Mailer initialized successfully")
}

// SendEmail sends a plain email and returns an error if it fails.
func SendEmail(email string, subject string, body string) error {
	if mailer == nil {
		err := fmt.Errorf("mailer is not initialized")
		config.Logger.Error("Email send failed: mailer is not initialized",
			zap.String("to_email", email),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", config.GetEnv("SMTP_FROM"))
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := mailer.DialAndSend(m); err != nil {
		config.Logger.Error("Failed to send email via SMTP",
			zap.String("to_email", email),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	config.Logger.Info("Email sent successfully",
		zap.String("to_email", email),
		zap.String("subject", subject),
	)
	return nil
}

// MergeFailureMailer emails operations staff when an import merge fails.
type MergeFailureMailer struct {
	AdminEmail string
}

func NewMergeFailureMailer(adminEmail string) *MergeFailureMailer {
	return &MergeFailureMailer{AdminEmail: adminEmail}
}

func (m *MergeFailureMailer) NotifyMergeFailure(importName string, mergeErr error) {
	if m.AdminEmail == "" {
		config.Logger.Warn("No admin email configured, skipping merge failure notification",
			zap.String("import", importName),
		)
		return
	}

	subject := "Merge failed: " + importName
	body := fmt.Sprintf(
		"The merge of registration data import %q failed and was rolled back.\n\nError: %v\n\nThe import is now in MERGE_ERROR and can be retried from the review screen.",
		importName, mergeErr,
	)
	if err := SendEmail(m.AdminEmail, subject, body); err != nil {
		config.Logger.Error("Could not deliver merge failure notification",
			zap.String("import", importName),
			zap.Error(err),
		)
	}
}
