package handler

import (
	"bytes"
	"encoding/base64"
	"image/png"

	"main/middleware"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
)

// TwoFactorHandler manages optional TOTP two-factor authentication.
type TwoFactorHandler struct {
	Users  *usecase.UserService
	Issuer string
}

func NewTwoFactorHandler(users *usecase.UserService, issuer string) *TwoFactorHandler {
	return &TwoFactorHandler{Users: users, Issuer: issuer}
}

// GenerateSecret creates a new TOTP key and returns it with a QR code for
// authenticator apps. Nothing is persisted until Enable confirms a code.
func (h *TwoFactorHandler) GenerateSecret(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "no token provided")
		return
	}

	if user.TwoFactorEnabled {
		utils.BadRequest(c, "2FA is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      h.Issuer,
		AccountName: user.Email,
	})
	if err != nil {
		utils.InternalError(c, "failed to generate 2FA secret")
		return
	}

	img, err := key.Image(200, 200)
	if err != nil {
		utils.InternalError(c, "failed to generate QR code")
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		utils.InternalError(c, "failed to encode QR code")
		return
	}

	utils.Success(c, "2FA secret generated", gin.H{
		"secret":  key.Secret(),
		"qr_code": "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

type enable2FARequest struct {
	Secret string `json:"secret" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// Enable turns 2FA on after the caller proves the authenticator works, and
// hands out single-use recovery codes.
func (h *TwoFactorHandler) Enable(c *gin.Context) {
	var req enable2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request")
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "no token provided")
		return
	}

	if user.TwoFactorEnabled {
		utils.BadRequest(c, "2FA is already enabled")
		return
	}

	if !totp.Validate(req.Code, req.Secret) {
		utils.BadRequest(c, "invalid 2FA code")
		return
	}

	recoveryCodes, err := utils.GenerateRecoveryCodes()
	if err != nil {
		utils.InternalError(c, "failed to generate recovery codes")
		return
	}

	hashed := utils.HashRecoveryCodes(recoveryCodes)
	if err := h.Users.Users.Enable2FA(c.Request.Context(), user.UserID, req.Secret, hashed); err != nil {
		utils.InternalError(c, "failed to enable 2FA")
		return
	}

	utils.Success(c, "2FA enabled", gin.H{
		"recovery_codes": recoveryCodes,
		"warning":        "Save these recovery codes securely. They will not be shown again.",
	})
}

type disable2FARequest struct {
	Code string `json:"code" binding:"required"`
}

// Disable turns 2FA off after verifying a current code.
func (h *TwoFactorHandler) Disable(c *gin.Context) {
	var req disable2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request")
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "no token provided")
		return
	}

	if !user.TwoFactorEnabled {
		utils.BadRequest(c, "2FA is not enabled")
		return
	}

	if !totp.Validate(req.Code, user.TwoFactorSecret) {
		utils.Unauthorized(c, "invalid 2FA code")
		return
	}

	if err := h.Users.Users.Disable2FA(c.Request.Context(), user.UserID); err != nil {
		utils.InternalError(c, "failed to disable 2FA")
		return
	}

	utils.Success(c, "2FA disabled", nil)
}
