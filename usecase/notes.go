package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"main/dto"
	"main/model"
	"main/services"
	"main/utils"
)

const (
	maxTitleLength   = 100
	maxContentLength = 50000
)

// NoteStore is the note store surface the workflows need.
// *repository.NoteRepo satisfies it.
type NoteStore interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetUserNotes(ctx context.Context, userID string) ([]*model.Note, error)
	GetNote(ctx context.Context, noteID, userID string) (*model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, noteID, userID string) error
	CountUserNotes(ctx context.Context, userID string) (int64, error)
}

type NoteService struct {
	Notes NoteStore
	Media services.MediaStore
}

// ParseDeltaContent normalizes the content field. It accepts the structured
// delta form ({"ops":[...]} or a bare op array) and falls back to wrapping
// free-form text in a single insert.
func ParseDeltaContent(raw string) ([]model.DeltaOp, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, invalidf("note content is required")
	}

	if strings.HasPrefix(trimmed, "{") {
		var wrapper struct {
			Ops []model.DeltaOp `json:"ops"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapper); err == nil && len(wrapper.Ops) > 0 {
			return wrapper.Ops, nil
		}
		return nil, invalidf("malformed note content")
	}

	if strings.HasPrefix(trimmed, "[") {
		var ops []model.DeltaOp
		if err := json.Unmarshal([]byte(trimmed), &ops); err == nil && len(ops) > 0 {
			return ops, nil
		}
		return nil, invalidf("malformed note content")
	}

	return []model.DeltaOp{{Insert: raw}}, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalidf("note title is required")
	}
	if len(title) > maxTitleLength {
		return "", invalidf("note title exceeds maximum length")
	}
	return title, nil
}

func validateContent(ops []model.DeltaOp) error {
	if len(ops) == 0 {
		return invalidf("note content is required")
	}
	total := 0
	for _, op := range ops {
		total += len(op.Insert)
	}
	if total == 0 {
		return invalidf("note content cannot be empty")
	}
	if total > maxContentLength {
		return invalidf("note content exceeds maximum length")
	}
	return nil
}

type CreateNoteInput struct {
	Title     string
	Content   []model.DeltaOp
	Thumbnail *Upload
}

// CreateNote validates and persists a note owned by the caller. The thumbnail
// must be committed to the media store first.
func (svc *NoteService) CreateNote(ctx context.Context, userID string, input CreateNoteInput) (*model.Note, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := validateContent(input.Content); err != nil {
		return nil, err
	}
	if input.Thumbnail == nil {
		return nil, invalidf("thumbnail image is required")
	}

	thumbnailURL, err := svc.Media.Upload(ctx, input.Thumbnail.Name, input.Thumbnail.ContentType, input.Thumbnail.Body)
	if err != nil {
		utils.TrackError("media", "thumbnail_upload_failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	note := &model.Note{
		ID:           utils.NewID(),
		UserID:       userID,
		Title:        title,
		Content:      input.Content,
		IsStarred:    false,
		Color:        "default",
		ThumbnailURL: thumbnailURL,
	}

	if err := svc.Notes.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	utils.TrackNoteOperation("create")
	return note, nil
}

func (svc *NoteService) ListNotes(ctx context.Context, userID string) ([]*model.Note, error) {
	notes, err := svc.Notes.GetUserNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	utils.TrackNoteOperation("list")
	return notes, nil
}

func (svc *NoteService) GetNote(ctx context.Context, noteID, userID string) (*model.Note, error) {
	note, err := svc.Notes.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	utils.TrackNoteOperation("get")
	return note, nil
}

// UpdateNote applies a partial update. Fields present in the update are
// re-validated exactly as in create; the owner never changes.
func (svc *NoteService) UpdateNote(ctx context.Context, noteID, userID string, update dto.NoteUpdate) (*model.Note, error) {
	note, err := svc.Notes.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		title, err := validateTitle(*update.Title)
		if err != nil {
			return nil, err
		}
		note.Title = title
	}
	if update.Content != nil {
		if err := validateContent(*update.Content); err != nil {
			return nil, err
		}
		note.Content = *update.Content
	}
	if update.IsStarred != nil {
		note.IsStarred = *update.IsStarred
	}
	if update.Color != nil {
		if !utils.ValidateNoteColor(*update.Color) {
			return nil, invalidf("invalid note color")
		}
		note.Color = *update.Color
	}

	if err := svc.Notes.UpdateNote(ctx, note); err != nil {
		return nil, err
	}

	utils.TrackNoteOperation("update")
	return note, nil
}

func (svc *NoteService) DeleteNote(ctx context.Context, noteID, userID string) error {
	if err := svc.Notes.DeleteNote(ctx, noteID, userID); err != nil {
		return err
	}
	utils.TrackNoteOperation("delete")
	return nil
}
