package main

import (
	"time"

	"github.com/gofrs/uuid"
)

// Author represents a book author.
type Author struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAuthor builds a valid author identified by id.
func NewAuthor(id uuid.UUID, name string, now time.Time) (Author, error) {
	if err := validateName("name", name, AuthorNameMaxLength); err != nil {
		return Author{}, err
	}
	return Author{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// UpdateName renames the author. The author is left untouched on error.
func (a *Author) UpdateName(name string, now time.Time) error {
	if err := validateName("name", name, AuthorNameMaxLength); err != nil {
		return err
	}
	a.Name = name
	a.UpdatedAt = now
	return nil
}
