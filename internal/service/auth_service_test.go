package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/rentora/rentora-backend/internal/domain"
	"github.com/rentora/rentora-backend/internal/service"
	"github.com/rentora/rentora-backend/pkg/auth"
	"github.com/rentora/rentora-backend/pkg/config"
	"github.com/rentora/rentora-backend/pkg/events"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID int64
	users  map[int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, users: make(map[int64]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, name, email, passwordHash, code string, codeExpiresAt time.Time) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return nil, domain.ErrEmailExists
		}
	}
	user := &domain.User{
		ID:               m.nextID,
		Name:             name,
		Email:            email,
		PasswordHash:     passwordHash,
		Role:             domain.RoleUser,
		VerificationCode: &code,
		CodeExpiresAt:    &codeExpiresAt,
		CreatedAt:        time.Now(),
	}
	m.users[m.nextID] = user
	m.nextID++
	return copyUser(user), nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		out = append(out, *copyUser(u))
	}
	return out, nil
}

func (m *mockUserRepo) SetVerificationCode(_ context.Context, userID int64, code string, expiresAt time.Time) error {
	u, ok := m.users[userID]
	if !ok || u.IsVerified {
		return domain.ErrAlreadyVerified
	}
	u.VerificationCode = &code
	u.CodeExpiresAt = &expiresAt
	return nil
}

func (m *mockUserRepo) ConfirmVerification(_ context.Context, userID int64, code string) (bool, error) {
	u, ok := m.users[userID]
	if !ok || u.IsVerified {
		return false, nil
	}
	if u.VerificationCode == nil || *u.VerificationCode != code {
		return false, nil
	}
	if u.CodeExpiresAt == nil || time.Now().After(*u.CodeExpiresAt) {
		return false, nil
	}
	now := time.Now()
	u.IsVerified = true
	u.VerificationCode = nil
	u.CodeExpiresAt = nil
	u.LastLogin = &now
	return true, nil
}

func (m *mockUserRepo) TouchLastLogin(_ context.Context, userID int64) error {
	if u, ok := m.users[userID]; ok {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

func (m *mockUserRepo) UpdateName(_ context.Context, userID int64, name string) error {
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Name = name
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, userID int64, role string, guardLastAdmin bool) error {
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if guardLastAdmin && u.Role == domain.RoleAdmin && role != domain.RoleAdmin && m.adminCount() <= 1 {
		return domain.ErrLastAdmin
	}
	u.Role = role
	return nil
}

func (m *mockUserRepo) DeleteCascade(_ context.Context, userID int64, guardLastAdmin bool) error {
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if guardLastAdmin && u.Role == domain.RoleAdmin && m.adminCount() <= 1 {
		return domain.ErrLastAdmin
	}
	delete(m.users, userID)
	return nil
}

func (m *mockUserRepo) adminCount() int {
	n := 0
	for _, u := range m.users {
		if u.Role == domain.RoleAdmin {
			n++
		}
	}
	return n
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

type mockMailer struct {
	lastEmail string
	lastName  string
	lastCode  string
	sent      int
	sendErr   error
}

func (m *mockMailer) SendVerificationCode(toEmail, toName, code string) error {
	m.lastEmail = toEmail
	m.lastName = toName
	m.lastCode = code
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent++
	return nil
}

type mockPublisher struct {
	subjects []string
}

func (m *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// ---------- Setup ----------

func newAuthService() (service.AuthService, *mockUserRepo, *mockMailer, *mockPublisher) {
	repo := newMockUserRepo()
	mail := &mockMailer{}
	bus := &mockPublisher{}
	cfg := config.Load()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	return service.NewAuthService(repo, tokens, mail, bus, cfg), repo, mail, bus
}

func register(t *testing.T, svc service.AuthService, name, email, password string) *service.RegisterResult {
	t.Helper()
	result, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name: name, Email: email, Password: password,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return result
}

// ---------- Tests ----------

func TestRegister_NewUser(t *testing.T) {
	svc, repo, mail, bus := newAuthService()

	result := register(t, svc, "Alice", "alice@example.com", "secret123")

	if !result.Created {
		t.Fatal("expected Created=true for a fresh registration")
	}
	if !result.EmailSent {
		t.Fatal("expected EmailSent=true")
	}

	stored := repo.users[result.User.ID]
	if stored.PasswordHash == "secret123" {
		t.Fatal("password stored in plaintext")
	}
	if ok, _ := argon2id.ComparePasswordAndHash("secret123", stored.PasswordHash); !ok {
		t.Fatal("stored hash does not verify the password")
	}
	if stored.IsVerified {
		t.Fatal("new user must start unverified")
	}
	if stored.VerificationCode == nil || len(*stored.VerificationCode) != 6 {
		t.Fatalf("expected a 6-digit code, got %v", stored.VerificationCode)
	}
	if mail.lastCode != *stored.VerificationCode {
		t.Fatal("mailed code differs from stored code")
	}
	if len(bus.subjects) != 1 || bus.subjects[0] != events.UserRegistered {
		t.Fatalf("expected user.registered event, got %v", bus.subjects)
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	svc, _, mail, _ := newAuthService()

	result := register(t, svc, "Ann", "  Ann@Example.COM ", "secret123")

	if result.User.Email != "ann@example.com" {
		t.Fatalf("expected normalized email, got %q", result.User.Email)
	}
	if mail.lastEmail != "ann@example.com" {
		t.Fatalf("mail sent to %q", mail.lastEmail)
	}
}

func TestRegister_UnverifiedDuplicate_ReissuesCode(t *testing.T) {
	svc, repo, mail, _ := newAuthService()

	first := register(t, svc, "Bob", "bob@example.com", "secret123")
	firstCode := mail.lastCode

	second := register(t, svc, "Bob", "bob@example.com", "secret123")

	if second.Created {
		t.Fatal("expected Created=false for an unverified duplicate")
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected one user, got %d", len(repo.users))
	}

	stored := repo.users[first.User.ID]
	if *stored.VerificationCode == firstCode {
		t.Fatal("expected a fresh code to replace the old one")
	}
	if mail.sent != 2 {
		t.Fatalf("expected 2 emails, got %d", mail.sent)
	}
}

func TestRegister_VerifiedDuplicate_Conflict(t *testing.T) {
	svc, repo, _, _ := newAuthService()

	result := register(t, svc, "Carol", "carol@example.com", "secret123")
	repo.users[result.User.ID].IsVerified = true

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name: "Carol", Email: "carol@example.com", Password: "secret123",
	})
	if !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _, _ := newAuthService()

	tests := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{"missing name", domain.RegisterRequest{Email: "a@b.com", Password: "secret123"}},
		{"missing email", domain.RegisterRequest{Name: "A", Password: "secret123"}},
		{"bad email", domain.RegisterRequest{Name: "A", Email: "not-an-email", Password: "secret123"}},
		{"short password", domain.RegisterRequest{Name: "A", Email: "a@b.com", Password: "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := svc.Register(context.Background(), &req); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestVerifyEmail_Success_ThenAlreadyVerified(t *testing.T) {
	svc, _, mail, bus := newAuthService()

	register(t, svc, "Dave", "dave@example.com", "secret123")

	req := &domain.VerifyEmailRequest{Email: "dave@example.com", Code: mail.lastCode}
	result, err := svc.VerifyEmail(context.Background(), req)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a token after verification")
	}
	if !result.User.IsVerified {
		t.Fatal("user should be verified")
	}
	if result.User.LastLogin == nil {
		t.Fatal("verification should stamp last login")
	}
	found := false
	for _, s := range bus.subjects {
		if s == events.UserVerified {
			found = true
		}
	}
	if !found {
		t.Fatal("expected user.verified event")
	}

	// Same code a second time.
	if _, err := svc.VerifyEmail(context.Background(), req); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestVerifyEmail_WrongCode_LeavesCodePending(t *testing.T) {
	svc, repo, mail, _ := newAuthService()

	result := register(t, svc, "Eve", "eve@example.com", "secret123")

	wrong := "000000"
	if wrong == mail.lastCode {
		wrong = "000001"
	}
	_, err := svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{
		Email: "eve@example.com", Code: wrong,
	})
	if !errors.Is(err, domain.ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	stored := repo.users[result.User.ID]
	if stored.IsVerified {
		t.Fatal("mismatch must not verify the user")
	}
	if stored.VerificationCode == nil || *stored.VerificationCode != mail.lastCode {
		t.Fatal("mismatch must leave the pending code intact")
	}

	// Correct code still works afterwards.
	if _, err := svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{
		Email: "eve@example.com", Code: mail.lastCode,
	}); err != nil {
		t.Fatalf("correct code rejected after a mismatch: %v", err)
	}
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	svc, repo, mail, _ := newAuthService()

	result := register(t, svc, "Frank", "frank@example.com", "secret123")

	expired := time.Now().Add(-time.Minute)
	repo.users[result.User.ID].CodeExpiresAt = &expired

	_, err := svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{
		Email: "frank@example.com", Code: mail.lastCode,
	})
	if !errors.Is(err, domain.ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestVerifyEmail_UnknownUser(t *testing.T) {
	svc, _, _, _ := newAuthService()

	_, err := svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{
		Email: "ghost@example.com", Code: "123456",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResendCode_InvalidatesPrevious(t *testing.T) {
	svc, repo, mail, _ := newAuthService()

	result := register(t, svc, "Grace", "grace@example.com", "secret123")
	oldCode := mail.lastCode

	sent, err := svc.ResendCode(context.Background(), "grace@example.com")
	if err != nil {
		t.Fatalf("ResendCode failed: %v", err)
	}
	if !sent {
		t.Fatal("expected the email to be sent")
	}

	newCode := *repo.users[result.User.ID].VerificationCode
	if newCode == oldCode {
		t.Fatal("resend must issue a fresh code")
	}

	// The old code no longer verifies.
	if _, err := svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{
		Email: "grace@example.com", Code: oldCode,
	}); !errors.Is(err, domain.ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch for the stale code, got %v", err)
	}
}

func TestResendCode_AlreadyVerified(t *testing.T) {
	svc, _, mail, _ := newAuthService()

	register(t, svc, "Henry", "henry@example.com", "secret123")
	if _, err := svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{
		Email: "henry@example.com", Code: mail.lastCode,
	}); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	if _, err := svc.ResendCode(context.Background(), "henry@example.com"); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestLogin_UnverifiedUserRejected(t *testing.T) {
	svc, _, _, _ := newAuthService()

	register(t, svc, "Iris", "iris@example.com", "secret123")

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email: "iris@example.com", Password: "secret123",
	})
	if !errors.Is(err, domain.ErrUnverified) {
		t.Fatalf("expected ErrUnverified, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, mail, _ := newAuthService()

	register(t, svc, "Jack", "jack@example.com", "secret123")
	if _, err := svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{
		Email: "jack@example.com", Code: mail.lastCode,
	}); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	result, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email: "JACK@example.com", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a token")
	}
	if result.User.LastLogin == nil {
		t.Fatal("login should stamp last login")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _, mail, _ := newAuthService()

	register(t, svc, "Kate", "kate@example.com", "secret123")
	if _, err := svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{
		Email: "kate@example.com", Code: mail.lastCode,
	}); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	// Wrong password and unknown email yield the same error.
	if _, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email: "kate@example.com", Password: "wrong-password",
	}); !errors.Is(err, domain.ErrInvalidLogin) {
		t.Fatalf("expected ErrInvalidLogin for wrong password, got %v", err)
	}
	if _, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email: "nobody@example.com", Password: "secret123",
	}); !errors.Is(err, domain.ErrInvalidLogin) {
		t.Fatalf("expected ErrInvalidLogin for unknown email, got %v", err)
	}
}

func TestRegister_CodeIsSixDigits(t *testing.T) {
	svc, repo, _, _ := newAuthService()

	result := register(t, svc, "Liam", "liam@example.com", "secret123")

	code := *repo.users[result.User.ID].VerificationCode
	if len(code) != 6 || strings.Trim(code, "0123456789") != "" {
		t.Fatalf("expected a 6-digit numeric code, got %q", code)
	}
}
