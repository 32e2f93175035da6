package utils

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{4,20}$`)

// NoteColors is the fixed set of color tags a note may carry.
var NoteColors = []string{"default", "red", "orange", "yellow", "green", "blue", "purple", "pink", "gray"}

func InitValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("username", ValidateUsernameRule)
		v.RegisterValidation("notecolor", ValidateNoteColorRule)
	}
}

func ValidateUsernameRule(fl validator.FieldLevel) bool {
	return ValidateUsername(fl.Field().String())
}

func ValidateNoteColorRule(fl validator.FieldLevel) bool {
	return ValidateNoteColor(fl.Field().String())
}

// ValidateUsername checks the 4-20 character alphanumeric/underscore rule.
func ValidateUsername(username string) bool {
	return usernameRe.MatchString(username)
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) bool {
	return len(password) >= 8
}

// ValidateNoteColor checks membership in the fixed color set.
func ValidateNoteColor(color string) bool {
	for _, c := range NoteColors {
		if color == c {
			return true
		}
	}
	return false
}
