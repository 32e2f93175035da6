package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"main/dto"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/mileusna/useragent"
)

type AuthHandler struct {
	Users     *usecase.UserService
	Tokens    *services.TokenService
	Blacklist services.Blacklist
}

func NewAuthHandler(users *usecase.UserService, tokens *services.TokenService, blacklist services.Blacklist) *AuthHandler {
	return &AuthHandler{
		Users:     users,
		Tokens:    tokens,
		Blacklist: blacklist,
	}
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, accessToken,
		int(h.Tokens.AccessTTL().Seconds()), "/", "", false, true)
	c.SetCookie(middleware.RefreshTokenCookie, refreshToken,
		int(h.Tokens.RefreshTTL().Seconds()), "/", "", false, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", "", false, true)
}

// mapUserError translates workflow errors into envelope responses.
func mapUserError(c *gin.Context, err error) {
	var ve *usecase.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.BadRequest(c, ve.Error())
	case errors.Is(err, repository.ErrConflict):
		utils.Conflict(c, "username or email already in use")
	case errors.Is(err, repository.ErrNotFound):
		utils.NotFound(c, "not found")
	case errors.Is(err, usecase.ErrUpstream):
		utils.BadGateway(c, "upstream service unavailable")
	default:
		log.Printf("auth error: %v", err)
		utils.InternalError(c, "internal server error")
	}
}

// Signup registers a new, unverified user. The avatar file must commit to the
// media store before anything is persisted.
func (h *AuthHandler) Signup(c *gin.Context) {
	avatar, closeAvatar, err := formUpload(c, "avatar")
	if err != nil {
		utils.BadRequest(c, "avatar image is required")
		return
	}
	defer closeAvatar()

	user, err := h.Users.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
		Avatar:   avatar,
	})
	if err != nil {
		mapUserError(c, err)
		return
	}

	accessToken, refreshToken, err := h.Tokens.IssuePair(user.UserID)
	if err != nil {
		log.Printf("token issuance failed: %v", err)
		utils.InternalError(c, "failed to issue tokens")
		return
	}

	h.setAuthCookies(c, accessToken, refreshToken)
	utils.Created(c, "user registered successfully", dto.AuthResponse{
		AccessToken: accessToken,
		User:        dto.ToUserResponse(user),
	})
}

type loginRequest struct {
	Identifier    string `json:"identifier" binding:"required"`
	Password      string `json:"password" binding:"required"`
	TwoFactorCode string `json:"two_factor_code"`
}

// Login authenticates by email or username. Failures are uniform so the
// response never confirms whether an account exists.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request")
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Identifier, req.Password, req.TwoFactorCode)
	if err != nil {
		switch {
		case errors.Is(err, usecase.Err2FARequired):
			utils.Success(c, "two-factor code required", gin.H{"requires_2fa": true})
		case errors.Is(err, usecase.ErrInvalidCredentials):
			utils.Unauthorized(c, "invalid credentials")
		default:
			mapUserError(c, err)
		}
		return
	}

	accessToken, refreshToken, err := h.Tokens.IssuePair(user.UserID)
	if err != nil {
		log.Printf("token issuance failed: %v", err)
		utils.InternalError(c, "failed to issue tokens")
		return
	}

	ua := useragent.Parse(c.Request.UserAgent())
	log.Printf("login: user=%s device=%s/%s", user.UserID, ua.Name, ua.OS)

	h.setAuthCookies(c, accessToken, refreshToken)
	utils.Success(c, "login successful", dto.AuthResponse{
		AccessToken: accessToken,
		User:        dto.ToUserResponse(user),
	})
}

// Logout clears the auth cookies. It is idempotent and always succeeds; the
// presented refresh token is blacklisted best-effort for its remaining life.
func (h *AuthHandler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(middleware.RefreshTokenCookie); err == nil && cookie != "" && h.Blacklist != nil {
		if claims, err := h.Tokens.Verify(cookie); err == nil {
			if err := h.Blacklist.Add(c.Request.Context(), cookie, time.Until(claims.ExpiresAt)); err != nil {
				log.Printf("failed to blacklist refresh token: %v", err)
			}
		}
	}

	h.clearAuthCookies(c)
	utils.Success(c, "logged out", nil)
}

// Refresh rotates the token pair using the refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	cookie, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || cookie == "" {
		utils.Unauthorized(c, "no token provided")
		return
	}

	if h.Blacklist != nil && h.Blacklist.Contains(c.Request.Context(), cookie) {
		utils.Unauthorized(c, "invalid token")
		return
	}

	claims, err := h.Tokens.Verify(cookie)
	if err != nil {
		if errors.Is(err, services.ErrTokenExpired) {
			utils.Unauthorized(c, "token expired")
		} else {
			utils.Unauthorized(c, "invalid token")
		}
		return
	}
	if claims.Type != services.TokenTypeRefresh {
		utils.Unauthorized(c, "invalid token")
		return
	}

	user, err := h.Users.Users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		utils.Unauthorized(c, "invalid token")
		return
	}

	accessToken, refreshToken, err := h.Tokens.IssuePair(user.UserID)
	if err != nil {
		log.Printf("token issuance failed: %v", err)
		utils.InternalError(c, "failed to issue tokens")
		return
	}

	utils.TrackAuthAttempt("success", "refresh")
	h.setAuthCookies(c, accessToken, refreshToken)
	utils.Success(c, "tokens refreshed", dto.AuthResponse{
		AccessToken: accessToken,
		User:        dto.ToUserResponse(user),
	})
}

// Check returns the caller resolved by the auth gate.
func (h *AuthHandler) Check(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "no token provided")
		return
	}
	utils.Success(c, "authenticated", dto.ToUserResponse(user))
}
