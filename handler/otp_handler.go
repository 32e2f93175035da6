package handler

import (
	"errors"

	"main/middleware"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type OTPHandler struct {
	Users *usecase.UserService
}

func NewOTPHandler(users *usecase.UserService) *OTPHandler {
	return &OTPHandler{Users: users}
}

type sendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendOTP issues a verification code to an unverified account.
func (h *OTPHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "a valid email is required")
		return
	}

	if err := h.Users.SendOTP(c.Request.Context(), req.Email); err != nil {
		mapUserError(c, err)
		return
	}

	utils.Success(c, "verification code sent", nil)
}

type verifyOTPRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// VerifyOTP confirms the caller's outstanding challenge. The failure message
// never reveals whether the code was wrong or merely expired.
func (h *OTPHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "otp code is required")
		return
	}

	userID := c.GetString(middleware.ContextUserIDKey)

	if err := h.Users.VerifyOTP(c.Request.Context(), userID, req.OTP); err != nil {
		if errors.Is(err, usecase.ErrInvalidOTP) {
			utils.Unauthorized(c, "invalid or expired OTP")
			return
		}
		mapUserError(c, err)
		return
	}

	utils.Success(c, "email verified", nil)
}
