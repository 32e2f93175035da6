package handler

import (
	"errors"
	"log"

	"main/dto"
	"main/middleware"
	"main/repository"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type NoteHandler struct {
	Notes *usecase.NoteService
}

func NewNoteHandler(notes *usecase.NoteService) *NoteHandler {
	return &NoteHandler{Notes: notes}
}

func mapNoteError(c *gin.Context, err error) {
	var ve *usecase.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.BadRequest(c, ve.Error())
	case errors.Is(err, repository.ErrNotFound):
		// Covers both a missing note and one owned by someone else.
		utils.NotFound(c, "note not found")
	case errors.Is(err, usecase.ErrUpstream):
		utils.BadGateway(c, "upstream service unavailable")
	default:
		log.Printf("notes error: %v", err)
		utils.InternalError(c, "internal server error")
	}
}

// CreateNote persists a new note owned by the caller. Content arrives either
// as a delta document or as plain text that gets wrapped into one.
func (h *NoteHandler) CreateNote(c *gin.Context) {
	thumbnail, closeThumbnail, err := formUpload(c, "thumbnail")
	if err != nil {
		utils.BadRequest(c, "thumbnail image is required")
		return
	}
	defer closeThumbnail()

	content, err := usecase.ParseDeltaContent(c.PostForm("content"))
	if err != nil {
		mapNoteError(c, err)
		return
	}

	userID := c.GetString(middleware.ContextUserIDKey)

	note, err := h.Notes.CreateNote(c.Request.Context(), userID, usecase.CreateNoteInput{
		Title:     c.PostForm("title"),
		Content:   content,
		Thumbnail: thumbnail,
	})
	if err != nil {
		mapNoteError(c, err)
		return
	}

	utils.Created(c, "note created", dto.ToNoteResponse(note))
}

// ListNotes returns the caller's notes, newest first.
func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)

	notes, err := h.Notes.ListNotes(c.Request.Context(), userID)
	if err != nil {
		mapNoteError(c, err)
		return
	}

	utils.Success(c, "notes retrieved", dto.ToNoteResponses(notes))
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)

	note, err := h.Notes.GetNote(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		mapNoteError(c, err)
		return
	}

	utils.Success(c, "note retrieved", dto.ToNoteResponse(note))
}

// UpdateNote applies a partial update to a note the caller owns.
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	var update dto.NoteUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	userID := c.GetString(middleware.ContextUserIDKey)

	note, err := h.Notes.UpdateNote(c.Request.Context(), c.Param("id"), userID, update)
	if err != nil {
		mapNoteError(c, err)
		return
	}

	utils.Success(c, "note updated", dto.ToNoteResponse(note))
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)

	if err := h.Notes.DeleteNote(c.Request.Context(), c.Param("id"), userID); err != nil {
		mapNoteError(c, err)
		return
	}

	utils.Success(c, "note deleted", nil)
}
