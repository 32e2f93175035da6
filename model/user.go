package model

import "time"

// OTPChallenge is the outstanding email verification challenge. It only
// exists on a user document while a code is waiting to be confirmed.
type OTPChallenge struct {
	Code      string    `bson:"code" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"-"`
}

type User struct {
	UserID           string        `bson:"user_id" json:"user_id"`
	Username         string        `bson:"username" json:"username"`
	Email            string        `bson:"email" json:"email"`
	Password         string        `bson:"password" json:"-"` // bcrypt hash, never serialized
	AvatarURL        string        `bson:"avatar_url" json:"avatar_url"`
	IsVerified       bool          `bson:"is_verified" json:"is_verified"`
	OTP              *OTPChallenge `bson:"otp,omitempty" json:"-"`
	TwoFactorSecret  string        `bson:"two_factor_secret,omitempty" json:"-"`
	TwoFactorEnabled bool          `bson:"two_factor_enabled" json:"two_factor_enabled"`
	RecoveryCodes    []string      `bson:"recovery_codes,omitempty" json:"-"`
	CreatedAt        time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `bson:"updated_at" json:"updated_at"`
}
