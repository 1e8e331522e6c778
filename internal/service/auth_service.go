package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nexusmart/internal/cache"
	"nexusmart/internal/models"
	"nexusmart/internal/pricing"
	"nexusmart/internal/repository"
	"nexusmart/internal/utils"
)

type AuthService struct {
	users  repository.UserRepository
	cache  *cache.Cache
	mailer utils.Mailer
	logger *zap.Logger

	now    func() time.Time
	newOTP func() (string, error)
}

func NewAuthService(store *repository.Store, c *cache.Cache, mailer utils.Mailer, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  store.Users,
		cache:  c,
		mailer: mailer,
		logger: logger,
		now:    time.Now,
		newOTP: utils.GenerateOTP,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignup(name, email, password string) error {
	var bad []string
	if strings.TrimSpace(name) == "" {
		bad = append(bad, "name")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		bad = append(bad, "email")
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	if len(password) < utils.MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates an unverified account and emails a verification OTP.
// Registering again with an unverified email replaces the pending account's
// details and sends a fresh code.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validateSignup(name, email, password); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && user.IsVerified:
		return nil, ErrEmailTaken
	case err == nil:
		user.Name = strings.TrimSpace(name)
		user.Password = hash
		if err := s.users.Update(ctx, user); err != nil {
			return nil, errors.Wrap(err, "update pending user")
		}
	case errors.Is(err, repository.ErrNotFound):
		user = &models.User{
			Name:      strings.TrimSpace(name),
			Email:     email,
			Password:  hash,
			Role:      models.RoleUser,
			CreatedAt: s.now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrEmailTaken
			}
			return nil, errors.Wrap(err, "create user")
		}
	default:
		return nil, errors.Wrap(err, "load user")
	}

	if err := s.sendOTP(ctx, cache.OTPRegister, user, cache.RegisterOTPTTL, utils.RegistrationOTPEmail); err != nil {
		return nil, err
	}
	s.logger.Info("👤 user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Verify activates the account when otp matches the registration code.
func (s *AuthService) Verify(ctx context.Context, email, otp string) (*models.User, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}
	if err := s.consume(ctx, cache.OTPRegister, email, otp); err != nil {
		return nil, err
	}
	user.IsVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "verify user")
	}
	_ = s.cache.InvalidateUser(ctx, user.ID)
	s.logger.Info("✅ email verified", zap.String("user_id", user.ID))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil || !ok {
		return nil, ErrInvalidCredential
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	return user, nil
}

// ForgotPassword emails a reset code. Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Info("🔑 password reset for unknown email")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "load user")
	}
	return s.sendOTP(ctx, cache.OTPReset, user, cache.ResetOTPTTL, utils.PasswordResetOTPEmail)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, otp, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < utils.MinPasswordLength {
		return ErrWeakPassword
	}
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return errors.Wrap(err, "load user")
	}
	if err := s.consume(ctx, cache.OTPReset, email, otp); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	user.Password = hash
	// Receiving the code proves ownership of the address.
	user.IsVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return errors.Wrap(err, "update password")
	}
	_ = s.cache.InvalidateUser(ctx, user.ID)
	s.logger.Info("🔑 password reset", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.cache.User(ctx, userID, func() (*models.User, error) {
		return s.users.GetByID(ctx, userID)
	})
}

// EnsureAdmin creates or promotes the account at email to a verified admin.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return s.users.Create(ctx, &models.User{
			Name:       "Admin",
			Email:      email,
			Password:   hash,
			Role:       models.RoleAdmin,
			IsVerified: true,
			CreatedAt:  s.now(),
		})
	}
	if err != nil {
		return errors.Wrap(err, "load admin")
	}
	user.Role = models.RoleAdmin
	user.IsVerified = true
	user.Password = hash
	return s.users.Update(ctx, user)
}

func (s *AuthService) sendOTP(ctx context.Context, purpose cache.OTPPurpose, user *models.User, ttl time.Duration,
	render func(name, code string) (utils.Email, error)) error {
	code, err := s.newOTP()
	if err != nil {
		return err
	}
	if err := s.cache.SaveOTP(ctx, purpose, user.Email, code, ttl); err != nil {
		return errors.Wrap(err, "store otp")
	}
	email, err := render(user.Name, code)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, user.Email, email.Subject, email.HTML); err != nil {
		return errors.Wrap(err, "send otp email")
	}
	return nil
}

func (s *AuthService) consume(ctx context.Context, purpose cache.OTPPurpose, email, otp string) error {
	otp = strings.TrimSpace(otp)
	if !pricing.ValidOTP(otp) {
		return ErrInvalidOTP
	}
	ok, err := s.cache.ConsumeOTP(ctx, purpose, email, otp)
	if err != nil {
		return errors.Wrap(err, "check otp")
	}
	if !ok {
		return ErrInvalidOTP
	}
	return nil
}
