package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/platform/mailer"
	"github.com/NishanKutu/ghumfir-api/internal/repo/postgres"
	"github.com/NishanKutu/ghumfir-api/pkg/auth"
	"github.com/NishanKutu/ghumfir-api/pkg/config"
	"github.com/NishanKutu/ghumfir-api/pkg/events"
	"github.com/NishanKutu/ghumfir-api/pkg/logger"
	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *domain.UpdateProfileRequest) (*domain.User, error)
	// ToggleRole flips a non-admin account between user and guide.
	// Toggling your own account is rejected.
	ToggleRole(ctx context.Context, actorID, targetID int64) (*domain.User, error)
	// DeleteUser removes an account. Self-deletion is rejected.
	DeleteUser(ctx context.Context, actorID, targetID int64) error
}

type authService struct {
	userRepo  postgres.UserRepo
	tokenRepo postgres.TokenRepo
	mailer    mailer.Service
	eventBus  events.Publisher
	config    *config.Config
}

func NewAuthService(
	userRepo postgres.UserRepo,
	tokenRepo postgres.TokenRepo,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		eventBus:  eventBus,
		config:    config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user with this email already exists")
	}

	existing, err = s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing username: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("username is already taken")
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.issueVerification(ctx, user); err != nil {
		return nil, err
	}

	event := events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		Username:     user.Username,
		RegisteredAt: user.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.UserRegistered, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish user registered event", "error", err, "user_id", user.ID)
	}

	return user, nil
}

func (s *authService) issueVerification(ctx context.Context, user *domain.User) error {
	token := uuid.NewString()
	expiresAt := time.Now().Add(s.config.Auth.EmailVerificationTTL)

	if err := s.tokenRepo.CreateEmailVerification(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.config.App.FrontendURL, token)
	if err := s.mailer.SendVerificationEmail(user.Email, user.Username, verifyURL); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID)
		// Registration still succeeds; the user can ask for a resend.
	}
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokenRepo.ConsumeEmailVerification(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to consume verification token: %w", err)
	}
	if userID == 0 {
		return nil, fmt.Errorf("invalid or expired verification token")
	}

	if err := s.userRepo.MarkVerified(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to mark user as verified: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get verified user: %w", err)
	}

	event := events.UserVerifiedEvent{UserID: userID, Email: user.Email, VerifiedAt: time.Now()}
	if err := s.eventBus.Publish(ctx, events.UserVerified, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish user verified event", "error", err, "user_id", userID)
	}

	return user, nil
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// Don't reveal whether the account exists
		return nil
	}
	if user.IsVerified {
		return fmt.Errorf("account is already verified")
	}

	return s.issueVerification(ctx, user)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if !user.IsVerified {
		return nil, fmt.Errorf("email not verified")
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("invalid credentials")
	}

	accessToken, err := auth.NewAccessToken(
		user.ID,
		user.Email,
		string(user.Role),
		s.config.Auth.JWTSecret,
		s.config.Auth.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:        user.ToUserInfo(),
	}, nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// Respond identically whether or not the account exists
		return nil
	}

	secret := uuid.NewString()
	secretHash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash reset secret: %w", err)
	}

	expiresAt := time.Now().Add(s.config.Auth.PasswordResetTTL)
	tokenID, err := s.tokenRepo.CreatePasswordReset(ctx, user.ID, string(secretHash), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	// The public token carries the row id and the raw secret; only the
	// bcrypt hash ever reaches the database.
	token := fmt.Sprintf("%d.%s", tokenID, secret)
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.App.FrontendURL, token)

	if err := s.mailer.SendPasswordResetEmail(user.Email, user.Username, resetURL); err != nil {
		logger.ErrorContext(ctx, "Failed to send password reset email", "error", err, "user_id", user.ID)
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	req := domain.ResetPasswordRequest{Password: newPassword}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tokenID, secret, ok := splitResetToken(token)
	if !ok {
		return fmt.Errorf("invalid or expired reset token")
	}

	userID, err := s.tokenRepo.ConsumePasswordReset(ctx, tokenID, secret)
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if userID == 0 {
		return fmt.Errorf("invalid or expired reset token")
	}

	passwordHash, err := argon2id.CreateHash(newPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func splitResetToken(token string) (int64, string, bool) {
	id, secret, found := strings.Cut(token, ".")
	if !found || secret == "" {
		return 0, "", false
	}
	tokenID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || tokenID <= 0 {
		return 0, "", false
	}
	return tokenID, secret, true
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID int64, req *domain.UpdateProfileRequest) (*domain.User, error) {
	if req.DailyRate != nil && *req.DailyRate < 0 {
		return nil, fmt.Errorf("daily rate must not be negative")
	}
	user, err := s.userRepo.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func (s *authService) ToggleRole(ctx context.Context, actorID, targetID int64) (*domain.User, error) {
	if actorID == targetID {
		return nil, fmt.Errorf("cannot change your own role")
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("user not found")
	}
	if target.Role == domain.RoleAdmin {
		return nil, fmt.Errorf("cannot change the role of an administrator")
	}

	newRole := target.Role.Toggle()
	if err := s.userRepo.UpdateRole(ctx, targetID, newRole); err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	target.Role = newRole
	return target, nil
}

func (s *authService) DeleteUser(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return fmt.Errorf("cannot delete your own account")
	}

	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
