package mailer

// Service is the narrow outbound-mail contract the auth flows need. Delivery
// failures are reported to the caller but never abort committed state.
type Service interface {
	SendVerificationCode(toEmail, toName, code string) error
}
