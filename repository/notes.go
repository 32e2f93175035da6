package repository

import (
	"context"
	"fmt"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NoteRepo struct {
	MongoCollection *mongo.Collection
}

func NewNoteRepo(client *mongo.Client, dbName string) *NoteRepo {
	return &NoteRepo{
		MongoCollection: client.Database(dbName).Collection("notes"),
	}
}

// CreateNote persists a new note
func (r *NoteRepo) CreateNote(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("insert", "notes")
	defer timer.ObserveDuration()

	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now

	if _, err := r.MongoCollection.InsertOne(ctx, note); err != nil {
		utils.TrackError("database", "note_creation_failed")
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// GetUserNotes retrieves all notes for a user, newest first
func (r *NoteRepo) GetUserNotes(ctx context.Context, userID string) ([]*model.Note, error) {
	timer := utils.TrackDBOperation("find", "notes")
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.MongoCollection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		utils.TrackError("database", "notes_list_failed")
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := []*model.Note{}
	if err = cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	return notes, nil
}

// GetNote retrieves a specific note. The owner is part of the filter, so a
// note owned by someone else is indistinguishable from a missing one.
func (r *NoteRepo) GetNote(ctx context.Context, noteID, userID string) (*model.Note, error) {
	timer := utils.TrackDBOperation("find", "notes")
	defer timer.ObserveDuration()

	var note model.Note
	err := r.MongoCollection.FindOne(ctx,
		bson.M{"_id": noteID, "user_id": userID}).Decode(&note)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		utils.TrackError("database", "note_lookup_error")
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	return &note, nil
}

// UpdateNote overwrites the mutable fields of a note
func (r *NoteRepo) UpdateNote(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("update", "notes")
	defer timer.ObserveDuration()

	filter := bson.M{"_id": note.ID, "user_id": note.UserID}
	update := bson.M{"$set": bson.M{
		"title":      note.Title,
		"content":    note.Content,
		"is_starred": note.IsStarred,
		"color":      note.Color,
		"updated_at": time.Now(),
	}}

	result, err := r.MongoCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		utils.TrackError("database", "note_update_failed")
		return fmt.Errorf("failed to update note: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteNote removes a note permanently
func (r *NoteRepo) DeleteNote(ctx context.Context, noteID, userID string) error {
	timer := utils.TrackDBOperation("delete", "notes")
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx,
		bson.M{"_id": noteID, "user_id": userID})
	if err != nil {
		utils.TrackError("database", "note_deletion_failed")
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUserNotes counts the notes a user owns
func (r *NoteRepo) CountUserNotes(ctx context.Context, userID string) (int64, error) {
	timer := utils.TrackDBOperation("count", "notes")
	defer timer.ObserveDuration()

	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}
