package main

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/uuid"
)

// Maximum number of characters accepted per field.
const (
	AuthorNameMaxLength      = 200
	GenreNameMaxLength       = 100
	BookNameMaxLength        = 500
	BookDescriptionMaxLength = 2000
)

// ErrInvalidEntity is matched by every entity validation error.
var ErrInvalidEntity = errors.New("invalid entity")

type (
	missingFieldError string
	nilReferenceError string
	tooLongFieldError struct {
		field string
		max   int
	}
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

func (m missingFieldError) Is(target error) bool {
	return target == ErrInvalidEntity
}

func (n nilReferenceError) Error() string {
	return string(n) + " must reference an existing record"
}

func (n nilReferenceError) Is(target error) bool {
	return target == ErrInvalidEntity
}

func (t tooLongFieldError) Error() string {
	return fmt.Sprintf("%s must not exceed %d characters", t.field, t.max)
}

func (t tooLongFieldError) Is(target error) bool {
	return target == ErrInvalidEntity
}

// validateName checks a required text field against its maximum length.
func validateName(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return missingFieldError(field)
	}
	if utf8.RuneCountInString(value) > max {
		return tooLongFieldError{field: field, max: max}
	}
	return nil
}

func validateOptional(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return tooLongFieldError{field: field, max: max}
	}
	return nil
}

func validateReference(field string, id uuid.UUID) error {
	if id == uuid.Nil {
		return nilReferenceError(field)
	}
	return nil
}

// ValidationMessages flattens a (possibly joined) validation error
// into the list of messages sent back to API clients.
func ValidationMessages(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, ValidationMessages(e)...)
		}
		return msgs
	}
	return []string{err.Error()}
}
