package domain

import "errors"

// Sentinel errors returned by services and repositories. Handlers translate
// each one into a fixed HTTP status and machine-readable code.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidLogin = errors.New("invalid email or password")

	// verification
	ErrAlreadyVerified = errors.New("email already verified")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrCodeMismatch    = errors.New("invalid verification code")
	ErrUnverified      = errors.New("email not verified")

	// authorization
	ErrForbidden = errors.New("insufficient permissions")
	ErrLastAdmin = errors.New("at least one admin must remain")

	// bookings
	ErrInvalidStatus = errors.New("invalid booking status")
	ErrInvalidDate   = errors.New("invalid date format")

	// content
	ErrKeyExists = errors.New("content block key already exists")
)
