package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepo struct {
	MongoCollection *mongo.Collection
}

func NewUserRepo(client *mongo.Client, dbName string) *UserRepo {
	return &UserRepo{
		MongoCollection: client.Database(dbName).Collection("users"),
	}
}

// Usernames and emails are stored lowercase so the unique indexes enforce
// case-insensitive uniqueness.
func normalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// publicProjection excludes the password hash. Every lookup that feeds a
// request context uses it; only credential checks load the full document.
var publicProjection = bson.M{"password": 0}

func (r *UserRepo) AddUser(ctx context.Context, user *model.User) error {
	timer := utils.TrackDBOperation("insert", "users")
	defer timer.ObserveDuration()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.MongoCollection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.TrackError("database", "user_duplicate")
			return ErrConflict
		}
		utils.TrackError("database", "user_creation_failed")
		return fmt.Errorf("failed to add user: %w", err)
	}

	return nil
}

// FindByID loads a user without the password hash.
func (r *UserRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	var user model.User
	opts := options.FindOne().SetProjection(publicProjection)

	err := r.MongoCollection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		utils.TrackError("database", "user_lookup_error")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

// FindByIdentifier locates a user by email or username, case-insensitively.
// The full document is returned because the caller verifies credentials.
func (r *UserRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	normalized := normalizeIdentifier(identifier)
	filter := bson.M{"$or": []bson.M{
		{"email": normalized},
		{"username": normalized},
	}}

	var user model.User
	err := r.MongoCollection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		utils.TrackError("database", "user_lookup_error")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

// FindByEmail loads a user by email without the password hash.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	var user model.User
	opts := options.FindOne().SetProjection(publicProjection)

	err := r.MongoCollection.FindOne(ctx, bson.M{"email": normalizeIdentifier(email)}, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		utils.TrackError("database", "user_lookup_error")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

// SetOTPChallenge stores a fresh verification challenge, overwriting any
// outstanding one.
func (r *UserRepo) SetOTPChallenge(ctx context.Context, userID string, challenge *model.OTPChallenge) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	update := bson.M{"$set": bson.M{
		"otp":        challenge,
		"updated_at": time.Now(),
	}}

	return r.updateByID(ctx, userID, update, "otp_set_failed")
}

// ClearOTPChallenge removes the outstanding challenge without touching the
// verification state.
func (r *UserRepo) ClearOTPChallenge(ctx context.Context, userID string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	update := bson.M{
		"$unset": bson.M{"otp": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	}

	return r.updateByID(ctx, userID, update, "otp_clear_failed")
}

// MarkVerified flips is_verified and clears the challenge in one write.
func (r *UserRepo) MarkVerified(ctx context.Context, userID string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	update := bson.M{
		"$set":   bson.M{"is_verified": true, "updated_at": time.Now()},
		"$unset": bson.M{"otp": ""},
	}

	return r.updateByID(ctx, userID, update, "verify_failed")
}

// UpdateProfile overwrites email, username and avatar. Unique indexes reject
// duplicates.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID, email, username, avatarURL string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	update := bson.M{"$set": bson.M{
		"email":      email,
		"username":   username,
		"avatar_url": avatarURL,
		"updated_at": time.Now(),
	}}

	return r.updateByID(ctx, userID, update, "profile_update_failed")
}

func (r *UserRepo) Enable2FA(ctx context.Context, userID, secret string, recoveryCodes []string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	update := bson.M{"$set": bson.M{
		"two_factor_secret":  secret,
		"two_factor_enabled": true,
		"recovery_codes":     recoveryCodes,
		"updated_at":         time.Now(),
	}}

	return r.updateByID(ctx, userID, update, "2fa_enable_failed")
}

func (r *UserRepo) Disable2FA(ctx context.Context, userID string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	update := bson.M{
		"$set":   bson.M{"two_factor_enabled": false, "updated_at": time.Now()},
		"$unset": bson.M{"two_factor_secret": "", "recovery_codes": ""},
	}

	return r.updateByID(ctx, userID, update, "2fa_disable_failed")
}

func (r *UserRepo) UpdateRecoveryCodes(ctx context.Context, userID string, codes []string) error {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	update := bson.M{"$set": bson.M{
		"recovery_codes": codes,
		"updated_at":     time.Now(),
	}}

	return r.updateByID(ctx, userID, update, "recovery_codes_update_failed")
}

func (r *UserRepo) updateByID(ctx context.Context, userID string, update bson.M, errKind string) error {
	result, err := r.MongoCollection.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.TrackError("database", "user_duplicate")
			return ErrConflict
		}
		utils.TrackError("database", errKind)
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
