package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/disfruleg/disfruleg-pos/internal/config"
	"github.com/disfruleg/disfruleg-pos/internal/domain/cart"
	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/internal/domain/repository"
	"github.com/disfruleg/disfruleg-pos/internal/infrastructure/metrics"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/clock"
	"github.com/disfruleg/disfruleg-pos/pkg/utils"
)

// AuthService verifies operator credentials, issues session tokens and
// performs admin step-up for special products.
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	policy     config.AuthConfig
	clock      clock.Clock
	metrics    *metrics.ReceiptMetrics
	log        *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	jwtManager *utils.JWTManager,
	policy config.AuthConfig,
	clk clock.Clock,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		policy:     policy,
		clock:      clk,
		log:        log.Named("auth"),
	}
}

// WithMetrics records login outcomes on m.
func (s *AuthService) WithMetrics(m *metrics.ReceiptMetrics) *AuthService {
	s.metrics = m
	return s
}

// LoginOutput represents the login output
type LoginOutput struct {
	User        *entity.SystemUser
	AccessToken string
	Session     entity.AuthSession
}

// Verify checks username and password. Unknown users, inactive users and
// wrong passwords all fail with ErrInvalidCredentials. Only wrong passwords
// on active accounts count towards the lockout.
func (s *AuthService) Verify(ctx context.Context, username, password string) (*entity.SystemUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.DataUnavailable(err)
	}
	if user == nil {
		utils.BurnPasswordCheck(password)
		return nil, apperror.ErrInvalidCredentials
	}

	now := s.clock.Now()
	if user.IsLocked(now) {
		return nil, apperror.ErrAccountLocked
	}

	match, err := checkPassword(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, apperror.ErrInvalidCredentials
	}
	if !match {
		return nil, s.recordFailure(ctx, user, now)
	}

	if user.FailedAttempts > 0 || user.LockedUntil != nil {
		if err := s.userRepo.ResetFailures(ctx, user.ID); err != nil {
			return nil, apperror.DataUnavailable(err)
		}
		user.FailedAttempts = 0
		user.FirstFailedAt = nil
		user.LastFailedAt = nil
		user.LockedUntil = nil
	}
	return user, nil
}

// checkPassword runs the hash comparison off the caller's goroutine so a
// cancelled context returns promptly.
func checkPassword(ctx context.Context, password, hash string) (bool, error) {
	done := make(chan bool, 1)
	go func() {
		done <- utils.CheckPasswordHash(password, hash)
	}()
	select {
	case ok := <-done:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// recordFailure counts a failed attempt inside the failure window, which
// opens at the first failure and lasts FailureWindow. A failure after the
// window has closed opens a new one. Reaching the limit inside a window
// locks the account and reports ErrAccountLocked.
func (s *AuthService) recordFailure(ctx context.Context, user *entity.SystemUser, now time.Time) error {
	f := repository.LoginFailure{Attempts: user.FailedAttempts + 1, At: now}
	if user.FirstFailedAt == nil || now.Sub(*user.FirstFailedAt) > s.policy.FailureWindow {
		f.Attempts = 1
		f.WindowStart = now
	} else {
		f.WindowStart = *user.FirstFailedAt
	}

	if s.policy.MaxFailedAttempts > 0 && f.Attempts >= s.policy.MaxFailedAttempts {
		until := now.Add(s.policy.LockDuration)
		f.LockedUntil = &until
	}

	if err := s.userRepo.RecordFailure(ctx, user.ID, f); err != nil {
		return apperror.DataUnavailable(err)
	}
	if f.LockedUntil != nil {
		s.log.Warn("account locked",
			zap.String("username", user.Username),
			zap.Int("failed_attempts", f.Attempts),
			zap.Time("locked_until", *f.LockedUntil),
		)
		return apperror.ErrAccountLocked
	}
	return apperror.ErrInvalidCredentials
}

// Login authenticates a user and returns an access token for a new session
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginOutput, error) {
	user, err := s.Verify(ctx, username, password)
	if err != nil {
		s.metrics.ObserveLogin(string(apperror.KindOf(err)))
		return nil, err
	}
	s.metrics.ObserveLogin("ok")

	now := s.clock.Now()
	session := entity.AuthSession{
		SessionID: uuid.New(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		LoginAt:   now,
		ExpiresAt: now.Add(s.jwtManager.Expiry()),
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role.String(), now, session.SessionID)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	s.log.Info("operator logged in",
		zap.String("username", user.Username),
		zap.String("role", user.Role.String()),
		zap.String("session_id", session.SessionID.String()),
	)

	return &LoginOutput{
		User:        user,
		AccessToken: accessToken,
		Session:     session,
	}, nil
}

// RequireAdmin asks prompt for credentials and reports whether they belong
// to an active admin. A dismissed prompt is a plain denial. Credentials are
// never retained.
func (s *AuthService) RequireAdmin(ctx context.Context, prompt cart.Prompt) (bool, error) {
	if prompt == nil {
		return false, nil
	}
	username, password, ok := prompt.AdminCredentials(ctx)
	if !ok {
		return false, nil
	}

	user, err := s.Verify(ctx, username, password)
	if err != nil {
		return false, err
	}
	if !user.IsAdmin() {
		return false, apperror.ErrNotAdmin
	}

	s.log.Info("admin step-up granted", zap.String("admin", user.Username))
	return true, nil
}

// GetCurrentUser returns the user behind a session
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.SystemUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.DataUnavailable(err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}
