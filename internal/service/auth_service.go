package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/rentora/rentora-backend/internal/domain"
	"github.com/rentora/rentora-backend/internal/mailer"
	"github.com/rentora/rentora-backend/internal/repository"
	"github.com/rentora/rentora-backend/pkg/auth"
	"github.com/rentora/rentora-backend/pkg/config"
	"github.com/rentora/rentora-backend/pkg/events"
	"github.com/rentora/rentora-backend/pkg/logger"
)

type RegisterResult struct {
	User      *domain.User
	Created   bool // false when an unverified account was re-issued a code
	EmailSent bool
}

type LoginResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (*LoginResult, error)
	ResendCode(ctx context.Context, email string) (emailSent bool, err error)
	Login(ctx context.Context, req *domain.LoginRequest) (*LoginResult, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenService
	mailer   mailer.Service
	eventBus events.Publisher
	config   *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.TokenService,
	mailSvc mailer.Service,
	eventBus events.Publisher,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailSvc,
		eventBus: eventBus,
		config:   cfg,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*RegisterResult, error) {
	req.Normalize()
	if err := req.Validate(s.config.Auth.MinPasswordLength); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.IsVerified {
			return nil, domain.ErrEmailExists
		}

		// Unverified re-registration: re-issue a fresh code instead of failing.
		code, err := generateVerificationCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate verification code: %w", err)
		}
		expiresAt := time.Now().Add(s.config.Auth.VerificationCodeTTL)
		if err := s.userRepo.SetVerificationCode(ctx, existing.ID, code, expiresAt); err != nil {
			return nil, fmt.Errorf("failed to store verification code: %w", err)
		}

		sent := s.sendCodeEmail(ctx, existing.Email, existing.Name, code)
		return &RegisterResult{User: existing, Created: false, EmailSent: sent}, nil
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	expiresAt := time.Now().Add(s.config.Auth.VerificationCodeTTL)

	user, err := s.userRepo.Create(ctx, req.Name, req.Email, passwordHash, code, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		RegisteredAt: user.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish user registered event", "error", err, "user_id", user.ID)
	}

	// The row is committed before the send, so a delivery failure never
	// loses the issued code; the caller can retry via resend.
	sent := s.sendCodeEmail(ctx, user.Email, user.Name, code)

	return &RegisterResult{User: user, Created: true, EmailSent: sent}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (*LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	if user.IsVerified {
		return nil, domain.ErrAlreadyVerified
	}
	if user.CodeExpiresAt == nil || time.Now().After(*user.CodeExpiresAt) {
		return nil, domain.ErrCodeExpired
	}
	if user.VerificationCode == nil || *user.VerificationCode != req.Code {
		return nil, domain.ErrCodeMismatch
	}

	// The compare-and-set is the authoritative check: if a concurrent resend
	// replaced the code after the read above, it fails and we re-diagnose.
	ok, err := s.userRepo.ConfirmVerification(ctx, user.ID, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm verification: %w", err)
	}
	if !ok {
		fresh, err := s.userRepo.FindByID(ctx, user.ID)
		if err != nil || fresh == nil {
			return nil, domain.ErrCodeMismatch
		}
		if fresh.IsVerified {
			return nil, domain.ErrAlreadyVerified
		}
		if fresh.CodeExpiresAt == nil || time.Now().After(*fresh.CodeExpiresAt) {
			return nil, domain.ErrCodeExpired
		}
		return nil, domain.ErrCodeMismatch
	}

	verified, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload verified user: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.UserVerified, events.UserVerifiedEvent{
		UserID:     verified.ID,
		Email:      verified.Email,
		VerifiedAt: time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish user verified event", "error", err, "user_id", verified.ID)
	}

	token, err := s.tokens.Issue(verified.ID, verified.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{Token: token, User: verified}, nil
}

func (s *authService) ResendCode(ctx context.Context, email string) (bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return false, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return false, domain.ErrNotFound
	}
	if user.IsVerified {
		return false, domain.ErrAlreadyVerified
	}

	// Only one code is stored per user, so issuing a new one implicitly
	// invalidates the previous.
	code, err := generateVerificationCode()
	if err != nil {
		return false, fmt.Errorf("failed to generate verification code: %w", err)
	}
	expiresAt := time.Now().Add(s.config.Auth.VerificationCodeTTL)
	if err := s.userRepo.SetVerificationCode(ctx, user.ID, code, expiresAt); err != nil {
		return false, fmt.Errorf("failed to store verification code: %w", err)
	}

	return s.sendCodeEmail(ctx, user.Email, user.Name, code), nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidLogin
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidLogin
	}

	if !user.IsVerified {
		return nil, domain.ErrUnverified
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		logger.WarnContext(ctx, "Failed to stamp last login", "error", err, "user_id", user.ID)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	now := time.Now()
	user.LastLogin = &now

	return &LoginResult{Token: token, User: user}, nil
}

// sendCodeEmail delivers the code with a bounded wait. On timeout the send
// keeps running in the background; the caller only loses the confirmation.
func (s *authService) sendCodeEmail(ctx context.Context, email, name, code string) bool {
	done := make(chan error, 1)
	go func() {
		done <- s.mailer.SendVerificationCode(email, name, code)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "email", email)
			return false
		}
		return true
	case <-time.After(s.config.Email.SendTimeout):
		logger.WarnContext(ctx, "Verification email send timed out", "email", email)
		return false
	}
}

// generateVerificationCode returns a uniformly random 6-digit code; leading
// zeros are allowed.
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
