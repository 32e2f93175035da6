package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"main/model"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/pquerna/otp/totp"
)

// UserStore is the credential store surface the user workflows need.
// *repository.UserRepo satisfies it.
type UserStore interface {
	AddUser(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	SetOTPChallenge(ctx context.Context, userID string, challenge *model.OTPChallenge) error
	ClearOTPChallenge(ctx context.Context, userID string) error
	MarkVerified(ctx context.Context, userID string) error
	UpdateProfile(ctx context.Context, userID, email, username, avatarURL string) error
	Enable2FA(ctx context.Context, userID, secret string, recoveryCodes []string) error
	Disable2FA(ctx context.Context, userID string) error
	UpdateRecoveryCodes(ctx context.Context, userID string, codes []string) error
}

// Upload is an incoming image file.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type UserService struct {
	Users     UserStore
	Mailer    services.Mailer
	Media     services.MediaStore
	OTPLength int
	OTPTTL    time.Duration
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
	Avatar   *Upload
}

// Register creates a user in the unverified state. The avatar must be
// committed to the media store before anything is persisted.
func (svc *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.ToLower(strings.TrimSpace(input.Username))
	password := strings.TrimSpace(input.Password)

	if email == "" || username == "" || password == "" {
		return nil, invalidf("email, username and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidf("invalid email address")
	}
	if !utils.ValidateUsername(username) {
		return nil, invalidf("username must be 4-20 characters, letters, digits and underscores only")
	}
	if !utils.ValidatePassword(password) {
		return nil, invalidf("password must be at least 8 characters")
	}
	if input.Avatar == nil {
		return nil, invalidf("avatar image is required")
	}

	avatarURL, err := svc.Media.Upload(ctx, input.Avatar.Name, input.Avatar.ContentType, input.Avatar.Body)
	if err != nil {
		utils.TrackError("media", "avatar_upload_failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	hash, err := services.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		UserID:     utils.NewID(),
		Username:   username,
		Email:      email,
		Password:   hash,
		AvatarURL:  avatarURL,
		IsVerified: false,
	}

	if err := svc.Users.AddUser(ctx, user); err != nil {
		return nil, err
	}

	utils.TrackAuthAttempt("success", "signup")
	return user, nil
}

// Authenticate checks a login attempt. Every credential failure collapses
// into ErrInvalidCredentials so the response cannot be used for enumeration.
func (svc *UserService) Authenticate(ctx context.Context, identifier, password, twoFactorCode string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, invalidf("identifier and password are required")
	}

	user, err := svc.Users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.TrackAuthAttempt("failure", "login")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !services.VerifyPassword(user.Password, password) {
		utils.TrackAuthAttempt("failure", "login")
		return nil, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		if twoFactorCode == "" {
			return nil, Err2FARequired
		}
		if !totp.Validate(twoFactorCode, user.TwoFactorSecret) && !svc.consumeRecoveryCode(ctx, user, twoFactorCode) {
			utils.TrackAuthAttempt("failure", "2fa")
			return nil, ErrInvalidCredentials
		}
	}

	utils.TrackAuthAttempt("success", "login")
	return user, nil
}

// consumeRecoveryCode accepts a one-shot recovery code in place of a TOTP
// code and removes it on use.
func (svc *UserService) consumeRecoveryCode(ctx context.Context, user *model.User, code string) bool {
	hashed := utils.HashString(strings.ToUpper(strings.ReplaceAll(code, "-", "")))

	found := false
	remaining := make([]string, 0, len(user.RecoveryCodes))
	for _, stored := range user.RecoveryCodes {
		if stored == hashed && !found {
			found = true
			continue
		}
		remaining = append(remaining, stored)
	}
	if !found {
		return false
	}

	if err := svc.Users.UpdateRecoveryCodes(ctx, user.UserID, remaining); err != nil {
		utils.TrackError("auth", "recovery_code_update_failed")
		return false
	}
	return true
}

// SendOTP issues a fresh verification challenge and mails it. A failed
// dispatch clears the challenge so no undelivered code is left behind.
func (svc *UserService) SendOTP(ctx context.Context, email string) error {
	user, err := svc.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalidf("no account with that email")
		}
		return err
	}
	if user.IsVerified {
		return invalidf("account is already verified")
	}

	code, err := services.GenerateOTP(svc.OTPLength)
	if err != nil {
		return err
	}

	challenge := &model.OTPChallenge{
		Code:      code,
		ExpiresAt: time.Now().Add(svc.OTPTTL),
	}
	if err := svc.Users.SetOTPChallenge(ctx, user.UserID, challenge); err != nil {
		return err
	}

	if err := svc.Mailer.SendOTP(ctx, user.Email, code); err != nil {
		utils.TrackError("email", "otp_dispatch_failed")
		// Do not leave a code behind that was never delivered.
		if clearErr := svc.Users.ClearOTPChallenge(ctx, user.UserID); clearErr != nil {
			utils.TrackError("database", "otp_rollback_failed")
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	utils.TrackAuthAttempt("success", "otp_send")
	return nil
}

// VerifyOTP confirms the caller's challenge. Mismatch and expiry are
// indistinguishable to the caller.
func (svc *UserService) VerifyOTP(ctx context.Context, userID, code string) error {
	user, err := svc.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.OTP == nil || !services.CompareOTP(user.OTP.Code, code) || !time.Now().Before(user.OTP.ExpiresAt) {
		utils.TrackAuthAttempt("failure", "otp_verify")
		return ErrInvalidOTP
	}

	if err := svc.Users.MarkVerified(ctx, userID); err != nil {
		return err
	}

	utils.TrackAuthAttempt("success", "otp_verify")
	return nil
}

type UpdateProfileInput struct {
	Email    string
	Username string
	Avatar   *Upload
}

// UpdateProfile overwrites email, username and avatar for the caller.
func (svc *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.ToLower(strings.TrimSpace(input.Username))

	if email == "" || username == "" {
		return nil, invalidf("email and username are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidf("invalid email address")
	}
	if !utils.ValidateUsername(username) {
		return nil, invalidf("username must be 4-20 characters, letters, digits and underscores only")
	}
	if input.Avatar == nil {
		return nil, invalidf("avatar image is required")
	}

	avatarURL, err := svc.Media.Upload(ctx, input.Avatar.Name, input.Avatar.ContentType, input.Avatar.Body)
	if err != nil {
		utils.TrackError("media", "avatar_upload_failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if err := svc.Users.UpdateProfile(ctx, userID, email, username, avatarURL); err != nil {
		return nil, err
	}

	return svc.Users.FindByID(ctx, userID)
}
