package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/service"
	"github.com/NishanKutu/ghumfir-api/pkg/config"
	"github.com/NishanKutu/ghumfir-api/pkg/events"

	"github.com/alexedwards/argon2id"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret",
			AccessTokenTTL:       time.Hour,
			EmailVerificationTTL: 24 * time.Hour,
			PasswordResetTTL:     time.Hour,
		},
		App: config.AppConfig{FrontendURL: "http://localhost:5173"},
	}
}

func newAuthFixture() (service.AuthService, *mockUserRepo, *mockTokenRepo, *mockMailer, *mockPublisher) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	mail := &mockMailer{}
	bus := &mockPublisher{}
	svc := service.NewAuthService(users, tokens, mail, bus, testConfig())
	return svc, users, tokens, mail, bus
}

func TestRegister(t *testing.T) {
	svc, users, tokens, mail, bus := newAuthFixture()

	user, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Username: "ramesh",
		Email:    "Ramesh@Example.COM",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ramesh@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("new accounts must start as user, got %q", user.Role)
	}
	if user.IsVerified {
		t.Error("new accounts must start unverified")
	}
	if user.PasswordHash == "correct-horse-battery" {
		t.Error("password stored in plaintext")
	}
	if users.byEmail["ramesh@example.com"] == nil {
		t.Error("user not persisted")
	}
	if mail.sentVerify != 1 {
		t.Errorf("expected 1 verification email, got %d", mail.sentVerify)
	}
	if !strings.Contains(mail.verifyURL, "/verify-email?token=") {
		t.Errorf("unexpected verify URL: %q", mail.verifyURL)
	}
	if len(tokens.verifyRows) != 1 {
		t.Errorf("expected 1 verification token, got %d", len(tokens.verifyRows))
	}
	if got := bus.subjects(); len(got) != 1 || got[0] != events.UserRegistered {
		t.Errorf("expected %q event, got %v", events.UserRegistered, got)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()
	users.add(&domain.User{Username: "taken", Email: "taken@example.com"})

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Username: "other",
		Email:    "taken@example.com",
		Password: "some-password-123",
	})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, users, _, mail, bus := newAuthFixture()

	user, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Username: "sita",
		Email:    "sita@example.com",
		Password: "some-password-123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	token := strings.TrimPrefix(mail.verifyURL, "http://localhost:5173/verify-email?token=")
	verified, err := svc.VerifyEmail(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if verified.ID != user.ID || !verified.IsVerified {
		t.Errorf("user not marked verified: %+v", verified)
	}
	if !users.byID[user.ID].IsVerified {
		t.Error("verification not persisted")
	}

	// Single use: the same token must not verify twice.
	if _, err := svc.VerifyEmail(context.Background(), token); err == nil {
		t.Error("expected replayed token to be rejected")
	}

	if got := bus.subjects(); len(got) != 2 || got[1] != events.UserVerified {
		t.Errorf("expected %q event, got %v", events.UserVerified, got)
	}
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture()
	if _, err := svc.VerifyEmail(context.Background(), "no-such-token"); err == nil {
		t.Fatal("expected error for unknown token")
	}
}

func TestLogin(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()

	hash, err := argon2id.CreateHash("some-password-123", argon2id.DefaultParams)
	if err != nil {
		t.Fatal(err)
	}
	users.add(&domain.User{
		Username:     "hari",
		Email:        "hari@example.com",
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsVerified:   true,
	})

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "hari@example.com",
		Password: "some-password-123",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("empty access token")
	}
	if resp.User == nil || resp.User.Email != "hari@example.com" {
		t.Errorf("unexpected user info: %+v", resp.User)
	}

	if _, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "hari@example.com",
		Password: "wrong-password",
	}); err == nil || !strings.Contains(err.Error(), "invalid credentials") {
		t.Errorf("expected invalid credentials, got %v", err)
	}
}

func TestLoginUnverified(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()

	hash, _ := argon2id.CreateHash("some-password-123", argon2id.DefaultParams)
	users.add(&domain.User{
		Username:     "gita",
		Email:        "gita@example.com",
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "gita@example.com",
		Password: "some-password-123",
	})
	if err == nil || !strings.Contains(err.Error(), "not verified") {
		t.Fatalf("expected not verified error, got %v", err)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _, mail, _ := newAuthFixture()

	// Unknown accounts get the same silent success as known ones.
	if err := svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if mail.sentReset != 0 {
		t.Errorf("no email should be sent for unknown accounts, got %d", mail.sentReset)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, users, _, mail, _ := newAuthFixture()

	users.add(&domain.User{
		Username:   "maya",
		Email:      "maya@example.com",
		Role:       domain.RoleUser,
		IsVerified: true,
	})

	if err := svc.ForgotPassword(context.Background(), "maya@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if mail.sentReset != 1 {
		t.Fatalf("expected reset email, got %d", mail.sentReset)
	}

	token := strings.TrimPrefix(mail.resetURL, "http://localhost:5173/reset-password?token=")
	if err := svc.ResetPassword(context.Background(), token, "new-password-456"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	// The new password must verify against the stored hash.
	user := users.byEmail["maya@example.com"]
	ok, err := argon2id.ComparePasswordAndHash("new-password-456", user.PasswordHash)
	if err != nil || !ok {
		t.Errorf("new password does not verify (ok=%v err=%v)", ok, err)
	}

	// Single use.
	if err := svc.ResetPassword(context.Background(), token, "another-password-789"); err == nil {
		t.Error("expected replayed reset token to be rejected")
	}
}

func TestResetPasswordMalformedToken(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture()

	for _, token := range []string{"", "no-dot", "abc.secret", "-1.secret", "7."} {
		if err := svc.ResetPassword(context.Background(), token, "new-password-456"); err == nil {
			t.Errorf("token %q: expected rejection", token)
		}
	}
}

func TestToggleRole(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()

	admin := users.add(&domain.User{Username: "admin", Email: "admin@example.com", Role: domain.RoleAdmin})
	target := users.add(&domain.User{Username: "bikash", Email: "bikash@example.com", Role: domain.RoleUser})
	other := users.add(&domain.User{Username: "root2", Email: "root2@example.com", Role: domain.RoleAdmin})

	updated, err := svc.ToggleRole(context.Background(), admin.ID, target.ID)
	if err != nil {
		t.Fatalf("ToggleRole: %v", err)
	}
	if updated.Role != domain.RoleGuide {
		t.Errorf("expected guide, got %q", updated.Role)
	}

	updated, err = svc.ToggleRole(context.Background(), admin.ID, target.ID)
	if err != nil {
		t.Fatalf("ToggleRole back: %v", err)
	}
	if updated.Role != domain.RoleUser {
		t.Errorf("expected user, got %q", updated.Role)
	}

	if _, err := svc.ToggleRole(context.Background(), admin.ID, admin.ID); err == nil {
		t.Error("self role change must be rejected")
	}
	if _, err := svc.ToggleRole(context.Background(), admin.ID, other.ID); err == nil {
		t.Error("changing another admin must be rejected")
	}
}

func TestDeleteUser(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()

	admin := users.add(&domain.User{Username: "admin", Email: "admin@example.com", Role: domain.RoleAdmin})
	target := users.add(&domain.User{Username: "tourist", Email: "tourist@example.com", Role: domain.RoleUser})

	if err := svc.DeleteUser(context.Background(), admin.ID, admin.ID); err == nil {
		t.Error("self deletion must be rejected")
	}
	if err := svc.DeleteUser(context.Background(), admin.ID, target.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if users.byID[target.ID] != nil {
		t.Error("user still present after delete")
	}
}
