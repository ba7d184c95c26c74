package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rentora/rentora-backend/internal/domain"
)

// Register creates an account and sends the verification code. Registering
// an email that exists but is unverified re-issues a code instead of failing.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	result, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if !result.Created {
		writeSuccess(w, http.StatusOK, "Verification code sent to your email", map[string]interface{}{
			"email": result.User.Email,
		})
		return
	}

	writeSuccess(w, http.StatusCreated, "Registration successful. Verification code sent to your email.", map[string]interface{}{
		"email":      result.User.Email,
		"email_sent": result.EmailSent,
	})
}

// VerifyEmail confirms the code and logs the user straight in.
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	result, err := h.authService.VerifyEmail(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Email verified successfully", map[string]interface{}{
		"token": result.Token,
		"user":  result.User.ToUserInfo(),
	})
}

// ResendCode issues a fresh verification code for an unverified account.
func (h *Handlers) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	sent, err := h.authService.ResendCode(r.Context(), req.Email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !sent {
		writeError(w, http.StatusInternalServerError, "Failed to send email", "EMAIL_SEND_FAILED")
		return
	}

	writeSuccess(w, http.StatusOK, "Verification code sent successfully", nil)
}

// Login authenticates and returns a bearer token. Unknown email and wrong
// password are indistinguishable; an unverified account is told apart so the
// client can route to the verification screen.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
		"token": result.Token,
		"user":  result.User.ToUserInfo(),
	})
}
