// Package validation checks user input before any remote call is issued.
package validation

import (
	"strings"

	"campusnet/internal/models"
)

// NewPostInput carries the fields of a post submission.
type NewPostInput struct {
	Title    string
	Content  string
	Category models.Category

	ItemType models.ItemType
	Location string

	EventDate     string
	EventTime     string
	EventLocation string
}

// ValidateNewPost checks required and category-specific fields. A failure
// means the post insert is never issued.
func ValidateNewPost(in NewPostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewValidationError("Title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return models.NewValidationError("Content is required")
	}
	if !in.Category.Valid() {
		return models.NewValidationError("Unknown category")
	}

	switch in.Category {
	case models.CategoryLostFound:
		if in.ItemType != models.ItemLost && in.ItemType != models.ItemFound {
			return models.NewValidationError("Lost & Found posts need an item type")
		}
		if strings.TrimSpace(in.Location) == "" {
			return models.NewValidationError("Lost & Found posts need a location")
		}
	case models.CategoryEvents:
		if strings.TrimSpace(in.EventDate) == "" {
			return models.NewValidationError("Event posts need a date")
		}
		if strings.TrimSpace(in.EventLocation) == "" {
			return models.NewValidationError("Event posts need a location")
		}
	}

	return nil
}

// ValidatePostEdit checks an edit to an existing post.
func ValidatePostEdit(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	return nil
}

// ValidateClub checks the fields of a club create or edit.
func ValidateClub(name, description string) error {
	if strings.TrimSpace(name) == "" {
		return models.NewValidationError("Club name is required")
	}
	if len(name) > 120 {
		return models.NewValidationError("Club name must be 120 characters or fewer")
	}
	if strings.TrimSpace(description) == "" {
		return models.NewValidationError("Club description is required")
	}
	return nil
}

// ValidateProfile checks a profile save.
func ValidateProfile(name string, graduationYear int) error {
	if strings.TrimSpace(name) == "" {
		return models.NewValidationError("Name is required")
	}
	if graduationYear != 0 && (graduationYear < 1900 || graduationYear > 2100) {
		return models.NewValidationError("Graduation year is out of range")
	}
	return nil
}

// ValidateComment checks a comment submission.
func ValidateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Comment cannot be empty")
	}
	return nil
}
