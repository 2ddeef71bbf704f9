package mailer

import (
	"github.com/NishanKutu/ghumfir-api/pkg/logger"
)

// DevMailer logs outbound mail instead of sending it. Default when
// EMAIL_DEV_MODE is set.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationEmail(toEmail, toName, verifyURL string) error {
	logger.Info("[DEV MAIL] verification email",
		"to", toEmail,
		"name", toName,
		"verify_url", verifyURL,
	)
	return nil
}

func (d *DevMailer) SendPasswordResetEmail(toEmail, toName, resetURL string) error {
	logger.Info("[DEV MAIL] password reset email",
		"to", toEmail,
		"name", toName,
		"reset_url", resetURL,
	)
	return nil
}
