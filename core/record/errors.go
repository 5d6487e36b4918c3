package record

import (
	"errors"
	"fmt"
)

// Error kinds raised by the diff and patch engines. Match them with errors.Is.
var (
	// ErrShapeMismatch: compared values disagree on scalar/group/list shape, or a
	// value disagrees with the shape its category declares.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrUnmappedField: a change references a category absent from the registry.
	ErrUnmappedField = errors.New("unmapped field")
	// ErrGuardedField: a change targets a guarded category (e.g. the external ref).
	ErrGuardedField = errors.New("guarded field violation")
	// ErrUnknownListItemType: a list item matches zero or several classification slots.
	ErrUnknownListItemType = errors.New("unknown list item type")
	// ErrItemNotFound: a delete cannot locate its index or value in the live list.
	ErrItemNotFound = errors.New("item not found for deletion")
)

// FieldError attaches category and path context to one of the error kinds above.
type FieldError struct {
	Err      error
	Category Category
	Path     string
	Detail   string
}

// NewFieldError builds a FieldError with a formatted detail message.
func NewFieldError(kind error, category Category, path string, format string, args ...any) *FieldError {
	return &FieldError{
		Err:      kind,
		Category: category,
		Path:     path,
		Detail:   fmt.Sprintf(format, args...),
	}
}

func (e *FieldError) Error() string {
	msg := e.Err.Error()
	switch {
	case e.Path != "":
		msg += " at " + e.Path
	case e.Category != "":
		msg += " in " + string(e.Category)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
