package dto

import (
	"time"

	"main/model"
)

// UserResponse is the public projection of a user. The password hash is never
// part of it.
type UserResponse struct {
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	AvatarURL        string    `json:"avatar_url"`
	IsVerified       bool      `json:"is_verified"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}

func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		UserID:           user.UserID,
		Username:         user.Username,
		Email:            user.Email,
		AvatarURL:        user.AvatarURL,
		IsVerified:       user.IsVerified,
		TwoFactorEnabled: user.TwoFactorEnabled,
		CreatedAt:        user.CreatedAt,
	}
}

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	User        UserResponse `json:"user"`
}
