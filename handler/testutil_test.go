package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"main/config"
	"main/middleware"
	"main/model"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type memUserStore struct {
	users map[string]*model.User
}

func (s *memUserStore) AddUser(_ context.Context, user *model.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	clone := *user
	s.users[user.UserID] = &clone
	return nil
}

func (s *memUserStore) FindByID(_ context.Context, userID string) (*model.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *memUserStore) FindByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	identifier = strings.ToLower(identifier)
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(email)
	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUserStore) SetOTPChallenge(_ context.Context, userID string, challenge *model.OTPChallenge) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.OTP = challenge
	return nil
}

func (s *memUserStore) ClearOTPChallenge(_ context.Context, userID string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.OTP = nil
	return nil
}

func (s *memUserStore) MarkVerified(_ context.Context, userID string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsVerified = true
	user.OTP = nil
	return nil
}

func (s *memUserStore) UpdateProfile(_ context.Context, userID, email, username, avatarURL string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Email = email
	user.Username = username
	user.AvatarURL = avatarURL
	return nil
}

func (s *memUserStore) Enable2FA(_ context.Context, userID, secret string, recoveryCodes []string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.TwoFactorSecret = secret
	user.TwoFactorEnabled = true
	user.RecoveryCodes = recoveryCodes
	return nil
}

func (s *memUserStore) Disable2FA(_ context.Context, userID string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.TwoFactorSecret = ""
	user.TwoFactorEnabled = false
	user.RecoveryCodes = nil
	return nil
}

func (s *memUserStore) UpdateRecoveryCodes(_ context.Context, userID string, codes []string) error {
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.RecoveryCodes = codes
	return nil
}

type memNoteStore struct {
	notes map[string]*model.Note
}

func (s *memNoteStore) CreateNote(_ context.Context, note *model.Note) error {
	clone := *note
	s.notes[note.ID] = &clone
	return nil
}

func (s *memNoteStore) GetUserNotes(_ context.Context, userID string) ([]*model.Note, error) {
	result := []*model.Note{}
	for _, note := range s.notes {
		if note.UserID == userID {
			clone := *note
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *memNoteStore) GetNote(_ context.Context, noteID, userID string) (*model.Note, error) {
	note, ok := s.notes[noteID]
	if !ok || note.UserID != userID {
		return nil, repository.ErrNotFound
	}
	clone := *note
	return &clone, nil
}

func (s *memNoteStore) UpdateNote(_ context.Context, note *model.Note) error {
	existing, ok := s.notes[note.ID]
	if !ok || existing.UserID != note.UserID {
		return repository.ErrNotFound
	}
	clone := *note
	s.notes[note.ID] = &clone
	return nil
}

func (s *memNoteStore) DeleteNote(_ context.Context, noteID, userID string) error {
	note, ok := s.notes[noteID]
	if !ok || note.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.notes, noteID)
	return nil
}

func (s *memNoteStore) CountUserNotes(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, note := range s.notes {
		if note.UserID == userID {
			n++
		}
	}
	return n, nil
}

type memMailer struct {
	codes map[string]string
	fail  bool
}

func (m *memMailer) SendOTP(_ context.Context, recipient, code string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.codes[recipient] = code
	return nil
}

type memMedia struct {
	uploads int
}

func (m *memMedia) Upload(_ context.Context, name, _ string, _ io.Reader) (string, error) {
	m.uploads++
	return fmt.Sprintf("https://media.example.com/%d/%s", m.uploads, name), nil
}

type memBlacklist struct {
	blocked map[string]bool
}

func (b *memBlacklist) Add(_ context.Context, token string, _ time.Duration) error {
	b.blocked[token] = true
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, token string) bool {
	return b.blocked[token]
}

type testEnv struct {
	router    *gin.Engine
	tokens    *services.TokenService
	users     *memUserStore
	notes     *memNoteStore
	mailer    *memMailer
	blacklist *memBlacklist
}

// newTestEnv wires the full route table against in-memory stores.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := services.NewTokenService(config.AuthConfig{
		JWTSecret:       "handler-test-secret",
		Issuer:          "quillnotes",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 14 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	users := &memUserStore{users: make(map[string]*model.User)}
	notes := &memNoteStore{notes: make(map[string]*model.Note)}
	mailer := &memMailer{codes: make(map[string]string)}
	blacklist := &memBlacklist{blocked: make(map[string]bool)}

	userService := &usecase.UserService{
		Users:     users,
		Mailer:    mailer,
		Media:     &memMedia{},
		OTPLength: 6,
		OTPTTL:    10 * time.Minute,
	}
	noteService := &usecase.NoteService{Notes: notes, Media: &memMedia{}}

	authHandler := NewAuthHandler(userService, tokens, blacklist)
	otpHandler := NewOTPHandler(userService)
	profileHandler := NewProfileHandler(userService)
	noteHandler := NewNoteHandler(noteService)
	gate := middleware.AuthMiddleware(tokens, users, blacklist)

	router := gin.New()

	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/refresh", authHandler.Refresh)
	}

	protected := router.Group("/api")
	protected.Use(gate)
	{
		account := protected.Group("/auth")
		{
			account.POST("/sendotp", otpHandler.SendOTP)
			account.POST("/verifyotp", otpHandler.VerifyOTP)
			account.GET("/check", authHandler.Check)
			account.PUT("/update-profile", profileHandler.UpdateProfile)
		}
		notesGroup := protected.Group("/notes")
		{
			notesGroup.POST("/create", noteHandler.CreateNote)
			notesGroup.GET("/get", noteHandler.ListNotes)
			notesGroup.GET("/get/:id", noteHandler.GetNote)
			notesGroup.PUT("/update/:id", noteHandler.UpdateNote)
			notesGroup.DELETE("/delete/:id", noteHandler.DeleteNote)
		}
	}

	return &testEnv{
		router:    router,
		tokens:    tokens,
		users:     users,
		notes:     notes,
		mailer:    mailer,
		blacklist: blacklist,
	}
}

// multipartBody builds a multipart form with the given text fields and one
// file field containing dummy image bytes.
func multipartBody(t *testing.T, fields map[string]string, fileField string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField(%s): %v", key, err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileField+".png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write([]byte("fake-png-bytes")); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func (env *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType, refreshCookie string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if refreshCookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: refreshCookie})
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) doJSON(t *testing.T, method, path string, payload interface{}, refreshCookie string) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return env.do(t, method, path, bytes.NewReader(raw), "application/json", refreshCookie)
}

// signupUser registers a user through the API and returns the refresh cookie.
func (env *testEnv) signupUser(t *testing.T, username, email string) string {
	t.Helper()

	body, contentType := multipartBody(t, map[string]string{
		"email":    email,
		"username": username,
		"password": "supersecret",
	}, "avatar")

	w := env.do(t, http.MethodPost, "/api/auth/signup", body, contentType, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return cookieValue(w, middleware.RefreshTokenCookie)
}

func cookieValue(w *httptest.ResponseRecorder, name string) string {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var body utils.Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return body
}
