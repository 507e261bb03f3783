package main

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
)

// Book represents a book entity. Author and Genre are only
// populated when the book is read through the joined fetch path.
type Book struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	AuthorID    uuid.UUID `json:"authorId"`
	GenreID     uuid.UUID `json:"genreId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Author *Author `json:"-"`
	Genre  *Genre  `json:"-"`
}

// BookInput holds the caller-provided fields of a book.
type BookInput struct {
	Name        string
	AuthorID    uuid.UUID
	GenreID     uuid.UUID
	Description string
}

func (in BookInput) validate() error {
	return errors.Join(
		validateName("name", in.Name, BookNameMaxLength),
		validateReference("authorId", in.AuthorID),
		validateReference("genreId", in.GenreID),
		validateOptional("description", in.Description, BookDescriptionMaxLength),
	)
}

// NewBook builds a valid book identified by id. The existence of
// the referenced author and genre is checked by the storage layer.
func NewBook(id uuid.UUID, in BookInput, now time.Time) (Book, error) {
	if err := in.validate(); err != nil {
		return Book{}, err
	}
	return Book{
		ID:          id,
		Name:        in.Name,
		AuthorID:    in.AuthorID,
		GenreID:     in.GenreID,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update replaces the book fields. The book is left untouched on error.
// Loaded references are dropped when they no longer match the ids.
func (b *Book) Update(in BookInput, now time.Time) error {
	if err := in.validate(); err != nil {
		return err
	}
	b.Name = in.Name
	b.Description = in.Description
	if b.AuthorID != in.AuthorID {
		b.AuthorID = in.AuthorID
		b.Author = nil
	}
	if b.GenreID != in.GenreID {
		b.GenreID = in.GenreID
		b.Genre = nil
	}
	b.UpdatedAt = now
	return nil
}

// AuthorName returns the joined author name or an empty string.
func (b Book) AuthorName() string {
	if b.Author == nil {
		return ""
	}
	return b.Author.Name
}

// GenreName returns the joined genre name or an empty string.
func (b Book) GenreName() string {
	if b.Genre == nil {
		return ""
	}
	return b.Genre.Name
}
