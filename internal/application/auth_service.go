package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	repo "github.com/oksasatya/doitnow-api/internal/domain/repository"
	"github.com/oksasatya/doitnow-api/pkg/helpers"
)

const (
	defaultOTPTTL = 5 * time.Minute
	sessionTTL    = 24 * time.Hour
)

// AuthService handles registration with OTP verification, login and the
// Redis-backed session that the auth middleware checks.
type AuthService struct {
	Repo   repo.UserRepository
	Ledger *LedgerService
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	OTP    OTPSender
	Logger *logrus.Logger
	OTPTTL time.Duration
	Now    func() time.Time
}

type TokenPair struct {
	SessionID          string
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func SessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func NewAuthService(users repo.UserRepository, ledger *LedgerService, jwt *helpers.JWTManager, rdb *redis.Client, otp OTPSender, logger *logrus.Logger, otpTTL time.Duration) *AuthService {
	if otpTTL <= 0 {
		otpTTL = defaultOTPTTL
	}
	return &AuthService{
		Repo:   users,
		Ledger: ledger,
		JWT:    jwt,
		Redis:  rdb,
		OTP:    otp,
		Logger: logger,
		OTPTTL: otpTTL,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	FirstName      string
	LastName       string
	SecondLastName string
	Email          string
	Password       string
	Confirm        string
	IP             string
	UserAgent      string
}

// Register creates an unverified account and sends its passcode. The
// account is removed again when the passcode cannot be handed to the
// transport.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if in.Password != in.Confirm {
		return nil, fmt.Errorf("passwords do not match: %w", ErrInvalidInput)
	}
	if _, err := s.Repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, s.internal(err, logrus.Fields{"email": in.Email}, "lookup email failed")
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, s.internal(err, nil, "hash password failed")
	}
	code, err := helpers.GenOTPCode()
	if err != nil {
		return nil, s.internal(err, nil, "generate otp failed")
	}
	exp := s.Now().Add(s.OTPTTL)
	u := &entity.User{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		SecondLastName: strings.TrimSpace(in.SecondLastName),
		Email:          in.Email,
		Password:       hash,
		OTPCode:        &code,
		OTPExpiresAt:   &exp,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, s.internal(err, logrus.Fields{"email": in.Email}, "create user failed")
	}

	msg := OTPMessage{Email: u.Email, Name: u.FullName(), Code: code, ExpiresAt: exp, IP: in.IP, UserAgent: in.UserAgent}
	if err := s.sendOTP(ctx, msg); err != nil {
		if delErr := s.Repo.Delete(ctx, u.ID); delErr != nil && s.Logger != nil {
			s.Logger.WithError(delErr).WithField("user_id", u.ID).Error("rollback of unconfirmed registration failed")
		}
		return nil, s.internal(err, logrus.Fields{"user_id": u.ID}, "send otp failed")
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("user registered, otp sent")
	}
	return u, nil
}

// VerifyOTP consumes a pending passcode.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.OTPCode == nil || u.OTPExpiresAt == nil {
		return fmt.Errorf("no pending passcode: %w", ErrInvalidInput)
	}
	if *u.OTPCode != code || s.Now().After(*u.OTPExpiresAt) {
		return fmt.Errorf("passcode invalid or expired: %w", ErrInvalidInput)
	}
	if err := s.Repo.ClearOTP(ctx, u.ID); err != nil {
		return s.internal(err, logrus.Fields{"user_id": u.ID}, "clear otp failed")
	}
	return nil
}

// ResendOTP replaces the pending passcode of an unverified account.
func (s *AuthService) ResendOTP(ctx context.Context, email, ip, userAgent string) error {
	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.Verified() {
		return fmt.Errorf("account already verified: %w", ErrInvalidInput)
	}
	code, err := helpers.GenOTPCode()
	if err != nil {
		return s.internal(err, nil, "generate otp failed")
	}
	exp := s.Now().Add(s.OTPTTL)
	if err := s.Repo.SetOTP(ctx, u.ID, code, exp); err != nil {
		return s.internal(err, logrus.Fields{"user_id": u.ID}, "store otp failed")
	}
	msg := OTPMessage{Email: u.Email, Name: u.FullName(), Code: code, ExpiresAt: exp, IP: ip, UserAgent: userAgent}
	if err := s.sendOTP(ctx, msg); err != nil {
		return s.internal(err, logrus.Fields{"user_id": u.ID}, "send otp failed")
	}
	return nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal(err, logrus.Fields{"email": email}, "lookup email failed")
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.Verified() {
		return nil, ErrEmailNotVerified
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, s.internal(err, logrus.Fields{"user_id": u.ID}, "generate access token failed")
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, s.internal(err, logrus.Fields{"user_id": u.ID}, "generate refresh token failed")
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.FullName(),
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{SessionID: sid, AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

type LoginResponse struct {
	UserID      string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PointsSpent int64  `json:"points_spent"`
	TotalEarned int64  `json:"total_earned"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	var earned int64
	if s.Ledger != nil {
		if earned, err = s.Ledger.ComputeEarned(ctx, u.ID); err != nil {
			return nil, TokenPair{}, err
		}
	}
	resp := &LoginResponse{UserID: u.ID, Name: u.FullName(), Email: u.Email, PointsSpent: u.PointsSpent, TotalEarned: earned}
	return resp, pair, nil
}

// GetUserByEmail returns the user without a password check (used by the OTP flows).
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, s.internal(err, logrus.Fields{"email": email}, "lookup email failed")
	}
	return u, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrUnauthorized
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, "", ErrUnauthorized
		}
		return TokenPair{}, "", s.internal(err, logrus.Fields{"user_id": claims.UserID}, "lookup user failed")
	}
	if u == nil {
		return TokenPair{}, "", ErrUnauthorized
	}
	// The refresh token is only valid for the session it was issued with.
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, SessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrUnauthorized
		}
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID, nil
}

// Logout drops the Redis session so outstanding access tokens stop working.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if s.Redis == nil || userID == "" {
		return
	}
	if err := s.Redis.Del(ctx, SessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
	}
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, s.internal(err, logrus.Fields{"user_id": userID}, "load profile failed")
	}
	return u, nil
}

func (s *AuthService) sendOTP(ctx context.Context, msg OTPMessage) error {
	if s.OTP == nil {
		return errors.New("otp sender not configured")
	}
	return s.OTP.SendOTP(ctx, msg)
}

func (s *AuthService) internal(err error, fields logrus.Fields, msg string) error {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).Error(msg)
	}
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}
