package mailer

type Service interface {
	SendVerificationEmail(toEmail, toName, verifyURL string) error
	SendPasswordResetEmail(toEmail, toName, resetURL string) error
}
