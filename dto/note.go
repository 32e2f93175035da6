package dto

import (
	"time"

	"main/model"
)

type NoteResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Content      []model.DeltaOp `json:"content"`
	IsStarred    bool            `json:"is_starred"`
	Color        string          `json:"color"`
	ThumbnailURL string          `json:"thumbnail_url"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func ToNoteResponse(note *model.Note) NoteResponse {
	return NoteResponse{
		ID:           note.ID,
		Title:        note.Title,
		Content:      note.Content,
		IsStarred:    note.IsStarred,
		Color:        note.Color,
		ThumbnailURL: note.ThumbnailURL,
		CreatedAt:    note.CreatedAt,
		UpdatedAt:    note.UpdatedAt,
	}
}

func ToNoteResponses(notes []*model.Note) []NoteResponse {
	responses := make([]NoteResponse, len(notes))
	for i, note := range notes {
		responses[i] = ToNoteResponse(note)
	}
	return responses
}

// NoteUpdate carries a partial update. Nil fields are left untouched.
type NoteUpdate struct {
	Title     *string          `json:"title,omitempty"`
	Content   *[]model.DeltaOp `json:"content,omitempty"`
	IsStarred *bool            `json:"isStarred,omitempty"`
	Color     *string          `json:"color,omitempty"`
}
