package mailer

import "fmt"

const verificationSubject = "Verify your Rentora account"

func verificationText(name, code string) string {
	return fmt.Sprintf("Hello %s,\n\nYour Rentora verification code is: %s\n\nThis code expires in 10 minutes. If you didn't register, ignore this email.", name, code)
}

func verificationHTML(name, code string) string {
	return fmt.Sprintf(`
		<h2>Welcome to Rentora!</h2>
		<p>Hello %s,</p>
		<p>Please use the verification code below to verify your email address:</p>
		<p style="font-size: 32px; font-weight: bold; letter-spacing: 8px;">%s</p>
		<p><strong>Important:</strong> this code will expire in 10 minutes.</p>
		<p>If you didn't request this verification, please ignore this email.</p>
	`, name, code)
}
