package entities

import (
	"errors"
	"fmt"
)

// Error kinds. Specific errors wrap one of these so callers can branch with
// errors.Is without knowing every entity.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrBoardNotFound        = fmt.Errorf("board %w", ErrNotFound)
	ErrListNotFound         = fmt.Errorf("list %w", ErrNotFound)
	ErrTaskNotFound         = fmt.Errorf("task %w", ErrNotFound)
	ErrCommentNotFound      = fmt.Errorf("comment %w", ErrNotFound)
	ErrChecklistNotFound    = fmt.Errorf("checklist item %w", ErrNotFound)
	ErrAttachmentNotFound   = fmt.Errorf("attachment %w", ErrNotFound)
	ErrLabelNotFound        = fmt.Errorf("label %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
	ErrInvitationNotFound   = fmt.Errorf("invitation %w", ErrNotFound)
	ErrMemberNotFound       = fmt.Errorf("member %w", ErrNotFound)

	ErrNotBoardMember     = fmt.Errorf("not a member of this board: %w", ErrForbidden)
	ErrNotBoardOwner      = fmt.Errorf("only the board owner can do this: %w", ErrForbidden)
	ErrCrossBoardMove     = fmt.Errorf("target list belongs to another board: %w", ErrForbidden)
	ErrNotRecipient       = fmt.Errorf("not the recipient: %w", ErrForbidden)
	ErrNotCommentAuthor   = fmt.Errorf("only the author or the board owner can do this: %w", ErrForbidden)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrForbidden)
	ErrInactiveAccount    = fmt.Errorf("account is inactive: %w", ErrForbidden)

	ErrInvitationClosed  = fmt.Errorf("invitation already answered: %w", ErrConflict)
	ErrInvitationPending = fmt.Errorf("a pending invitation already exists: %w", ErrConflict)
	ErrAlreadyMember     = fmt.Errorf("user already has access to this board: %w", ErrConflict)
	ErrOwnerNotRemovable = fmt.Errorf("the board owner cannot be removed: %w", ErrConflict)
	ErrUserExists        = fmt.Errorf("user already exists: %w", ErrConflict)
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Required is shorthand for the common "field is required" case.
func Required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
