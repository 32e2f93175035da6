package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"main/model"
	"main/repository"
	"main/services"
)

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (s *fakeUserStore) AddUser(_ context.Context, user *model.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	clone := *user
	s.users[user.UserID] = &clone
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, userID string) (*model.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *fakeUserStore) FindByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	identifier = strings.ToLower(identifier)
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(email)
	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) SetOTPChallenge(_ context.Context, userID string, challenge *model.OTPChallenge) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.OTP = challenge
	return nil
}

func (s *fakeUserStore) ClearOTPChallenge(_ context.Context, userID string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.OTP = nil
	return nil
}

func (s *fakeUserStore) MarkVerified(_ context.Context, userID string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsVerified = true
	user.OTP = nil
	return nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, userID, email, username, avatarURL string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Email = email
	user.Username = username
	user.AvatarURL = avatarURL
	return nil
}

func (s *fakeUserStore) Enable2FA(_ context.Context, userID, secret string, recoveryCodes []string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.TwoFactorSecret = secret
	user.TwoFactorEnabled = true
	user.RecoveryCodes = recoveryCodes
	return nil
}

func (s *fakeUserStore) Disable2FA(_ context.Context, userID string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.TwoFactorSecret = ""
	user.TwoFactorEnabled = false
	user.RecoveryCodes = nil
	return nil
}

func (s *fakeUserStore) UpdateRecoveryCodes(_ context.Context, userID string, codes []string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.RecoveryCodes = codes
	return nil
}

type fakeMailer struct {
	sent []string
	fail bool
}

func (m *fakeMailer) SendOTP(_ context.Context, recipient, code string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, recipient+":"+code)
	return nil
}

type fakeMediaStore struct {
	uploads int
	fail    bool
}

func (m *fakeMediaStore) Upload(_ context.Context, name, _ string, _ io.Reader) (string, error) {
	if m.fail {
		return "", errors.New("media host unavailable")
	}
	m.uploads++
	return fmt.Sprintf("https://media.example.com/%d/%s", m.uploads, name), nil
}

func newTestUserService() (*UserService, *fakeUserStore, *fakeMailer, *fakeMediaStore) {
	store := newFakeUserStore()
	mailer := &fakeMailer{}
	media := &fakeMediaStore{}
	svc := &UserService{
		Users:     store,
		Mailer:    mailer,
		Media:     media,
		OTPLength: 6,
		OTPTTL:    10 * time.Minute,
	}
	return svc, store, mailer, media
}

func testAvatar() *Upload {
	return &Upload{Name: "avatar.png", ContentType: "image/png", Body: strings.NewReader("png-bytes")}
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:    "alice@example.com",
		Username: "alice_01",
		Password: "supersecret",
		Avatar:   testAvatar(),
	}
}

func TestRegister(t *testing.T) {
	svc, store, _, _ := newTestUserService()

	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.UserID == "" {
		t.Error("expected a generated user id")
	}
	if user.IsVerified {
		t.Error("new accounts must start unverified")
	}
	if user.AvatarURL == "" {
		t.Error("expected avatar url from media store")
	}
	if user.Password == "supersecret" {
		t.Fatal("password stored as plaintext")
	}
	if !services.VerifyPassword(user.Password, "supersecret") {
		t.Error("stored hash does not verify against the original password")
	}

	stored, err := store.FindByID(context.Background(), user.UserID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Username != "alice_01" || stored.Email != "alice@example.com" {
		t.Errorf("unexpected persisted user: %+v", stored)
	}
}

func TestRegisterNormalizesIdentity(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	input := validRegisterInput()
	input.Email = "  Alice@Example.COM "
	input.Username = " Alice_01 "

	user, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Username != "alice_01" {
		t.Errorf("username not normalized: %q", user.Username)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short username", func(in *RegisterInput) { in.Username = "ab" }},
		{"username with spaces", func(in *RegisterInput) { in.Username = "bad name" }},
		{"short password", func(in *RegisterInput) { in.Password = "1234567" }},
		{"missing avatar", func(in *RegisterInput) { in.Avatar = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, media := newTestUserService()

			input := validRegisterInput()
			tt.mutate(&input)

			_, err := svc.Register(context.Background(), input)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if media.uploads != 0 {
				t.Error("nothing should be uploaded when validation fails")
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	input := validRegisterInput()
	input.Avatar = testAvatar()
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterMediaFailure(t *testing.T) {
	svc, store, _, media := newTestUserService()
	media.fail = true

	_, err := svc.Register(context.Background(), validRegisterInput())
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if len(store.users) != 0 {
		t.Error("no user should be persisted when the upload fails")
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, _, _ := newTestUserService()
	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{"by username", "alice_01", "supersecret", nil},
		{"by email", "alice@example.com", "supersecret", nil},
		{"mixed case identifier", "Alice_01", "supersecret", nil},
		{"wrong password", "alice_01", "wrongwrong", ErrInvalidCredentials},
		{"unknown user", "nobody_here", "supersecret", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(context.Background(), tt.identifier, tt.password, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate: %v", err)
			}
			if user.Username != "alice_01" {
				t.Errorf("unexpected user %q", user.Username)
			}
		})
	}
}

func TestAuthenticateRequires2FACode(t *testing.T) {
	svc, store, _, _ := newTestUserService()
	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := store.Enable2FA(context.Background(), user.UserID, "JBSWY3DPEHPK3PXP", nil); err != nil {
		t.Fatalf("Enable2FA: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "alice_01", "supersecret", ""); !errors.Is(err, Err2FARequired) {
		t.Fatalf("expected Err2FARequired, got %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "alice_01", "supersecret", "000000"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad code, got %v", err)
	}
}

func TestSendOTP(t *testing.T) {
	svc, store, mailer, _ := newTestUserService()
	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.SendOTP(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}

	stored := store.users[user.UserID]
	if stored.OTP == nil {
		t.Fatal("expected a stored challenge")
	}
	if len(stored.OTP.Code) != 6 {
		t.Errorf("expected 6-digit code, got %q", stored.OTP.Code)
	}
	if !stored.OTP.ExpiresAt.After(time.Now()) {
		t.Error("challenge must expire in the future")
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "alice@example.com:"+stored.OTP.Code {
		t.Errorf("unexpected mail log: %v", mailer.sent)
	}

	// Re-issuing replaces the previous challenge and mails again.
	if err := svc.SendOTP(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("second SendOTP: %v", err)
	}
	if store.users[user.UserID].OTP == nil {
		t.Fatal("expected a replacement challenge")
	}
	if len(mailer.sent) != 2 {
		t.Errorf("expected two mails, got %d", len(mailer.sent))
	}
}

func TestSendOTPUnknownOrVerified(t *testing.T) {
	svc, store, _, _ := newTestUserService()
	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var ve *ValidationError
	if err := svc.SendOTP(context.Background(), "nobody@example.com"); !errors.As(err, &ve) {
		t.Fatalf("expected validation error for unknown email, got %v", err)
	}

	if err := store.MarkVerified(context.Background(), user.UserID); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}
	if err := svc.SendOTP(context.Background(), "alice@example.com"); !errors.As(err, &ve) {
		t.Fatalf("expected validation error for verified account, got %v", err)
	}
}

func TestSendOTPMailFailureClearsChallenge(t *testing.T) {
	svc, store, mailer, _ := newTestUserService()
	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	mailer.fail = true

	if err := svc.SendOTP(context.Background(), "alice@example.com"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if store.users[user.UserID].OTP != nil {
		t.Error("undelivered challenge must be cleared")
	}
}

func TestVerifyOTP(t *testing.T) {
	svc, store, _, _ := newTestUserService()
	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.SendOTP(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	code := store.users[user.UserID].OTP.Code

	if err := svc.VerifyOTP(context.Background(), user.UserID, "000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for wrong code, got %v", err)
	}
	if store.users[user.UserID].IsVerified {
		t.Fatal("wrong code must not verify the account")
	}

	if err := svc.VerifyOTP(context.Background(), user.UserID, code); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	stored := store.users[user.UserID]
	if !stored.IsVerified {
		t.Error("account should be verified")
	}
	if stored.OTP != nil {
		t.Error("challenge should be consumed")
	}

	// A consumed challenge cannot be replayed.
	if err := svc.VerifyOTP(context.Background(), user.UserID, code); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP on replay, got %v", err)
	}
}

func TestVerifyOTPExpired(t *testing.T) {
	svc, store, _, _ := newTestUserService()
	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	store.users[user.UserID].OTP = &model.OTPChallenge{
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Second),
	}

	if err := svc.VerifyOTP(context.Background(), user.UserID, "123456"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for expired code, got %v", err)
	}
	if store.users[user.UserID].IsVerified {
		t.Error("expired code must not verify the account")
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _, _ := newTestUserService()
	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	before := user.AvatarURL

	updated, err := svc.UpdateProfile(context.Background(), user.UserID, UpdateProfileInput{
		Email:    "alice.new@example.com",
		Username: "alice_two",
		Avatar:   testAvatar(),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Email != "alice.new@example.com" || updated.Username != "alice_two" {
		t.Errorf("profile not updated: %+v", updated)
	}
	if updated.AvatarURL == before || updated.AvatarURL == "" {
		t.Errorf("expected a fresh avatar url, got %q", updated.AvatarURL)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	svc, _, _, _ := newTestUserService()
	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var ve *ValidationError
	_, err = svc.UpdateProfile(context.Background(), user.UserID, UpdateProfileInput{
		Email:    "broken",
		Username: "alice_two",
		Avatar:   testAvatar(),
	})
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
