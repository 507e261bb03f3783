package main

import (
	"time"

	"github.com/gofrs/uuid"
)

// Genre represents a literary genre books are classified under.
type Genre struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewGenre builds a valid genre identified by id.
func NewGenre(id uuid.UUID, name string, now time.Time) (Genre, error) {
	if err := validateName("name", name, GenreNameMaxLength); err != nil {
		return Genre{}, err
	}
	return Genre{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// UpdateName renames the genre. The genre is left untouched on error.
func (g *Genre) UpdateName(name string, now time.Time) error {
	if err := validateName("name", name, GenreNameMaxLength); err != nil {
		return err
	}
	g.Name = name
	g.UpdatedAt = now
	return nil
}
