package handler

import (
	"main/dto"
	"main/middleware"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	Users *usecase.UserService
}

func NewProfileHandler(users *usecase.UserService) *ProfileHandler {
	return &ProfileHandler{Users: users}
}

// UpdateProfile overwrites the caller's email, username and avatar.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	avatar, closeAvatar, err := formUpload(c, "avatar")
	if err != nil {
		utils.BadRequest(c, "avatar image is required")
		return
	}
	defer closeAvatar()

	userID := c.GetString(middleware.ContextUserIDKey)

	user, err := h.Users.UpdateProfile(c.Request.Context(), userID, usecase.UpdateProfileInput{
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		Avatar:   avatar,
	})
	if err != nil {
		mapUserError(c, err)
		return
	}

	utils.Success(c, "profile updated", dto.ToUserResponse(user))
}
