package services

import (
	"context"
	"fmt"

	"main/config"

	"github.com/resend/resend-go/v2"
)

// Mailer dispatches transactional mail. The only message this application
// sends is the OTP verification code.
type Mailer interface {
	SendOTP(ctx context.Context, recipient, code string) error
}

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	sender string
}

func NewResendMailer(cfg config.EmailConfig) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(cfg.APIKey),
		sender: cfg.Sender,
	}
}

func (m *ResendMailer) SendOTP(ctx context.Context, recipient, code string) error {
	params := &resend.SendEmailRequest{
		From:    m.sender,
		To:      []string{recipient},
		Subject: "Verify your email",
		Html: fmt.Sprintf(
			"<p>Your verification code is <strong>%s</strong>. It expires in 10 minutes.</p>", code),
	}

	if _, err := m.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	return nil
}
