package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"
)

// maxPayloadSize limits the size of the catalog requests bodies.
const maxPayloadSize = 1 << 20

var errEmptyPayload = errors.New("request body is required")

// NamePayload is the request body to create or update an author or a genre.
type NamePayload struct {
	Name string `json:"name" example:"Fantasy"`
}

// BookPayload is the request body to create or update a book.
type BookPayload struct {
	Name        string `json:"name" example:"The Hobbit"`
	AuthorID    string `json:"authorId" example:"5b0d4c1e-6f4f-4a55-9a8e-6d2b1f0b6a11"`
	GenreID     string `json:"genreId" example:"0f8a6e1c-7d43-4d8e-8a0e-3f4b2c1d9e77"`
	Description string `json:"description" example:"There and back again."`
}

// AuthorResponse is the wire representation of an author.
type AuthorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GenreResponse is the wire representation of a genre.
type GenreResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookResponse is the wire representation of a book with
// the names of its author and genre.
type BookResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	GenreID     string    `json:"genreId"`
	GenreName   string    `json:"genreName"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewAuthorResponse(a Author) AuthorResponse {
	return AuthorResponse{ID: a.ID.String(), Name: a.Name, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}

func NewGenreResponse(g Genre) GenreResponse {
	return GenreResponse{ID: g.ID.String(), Name: g.Name, CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt}
}

func NewBookResponse(b Book) BookResponse {
	return BookResponse{
		ID:          b.ID.String(),
		Name:        b.Name,
		AuthorID:    b.AuthorID.String(),
		AuthorName:  b.AuthorName(),
		GenreID:     b.GenreID.String(),
		GenreName:   b.GenreName(),
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func NewAuthorsResponse(authors []Author) []AuthorResponse {
	return lo.Map(authors, func(a Author, _ int) AuthorResponse { return NewAuthorResponse(a) })
}

func NewGenresResponse(genres []Genre) []GenreResponse {
	return lo.Map(genres, func(g Genre, _ int) GenreResponse { return NewGenreResponse(g) })
}

func NewBooksResponse(books []Book) []BookResponse {
	return lo.Map(books, func(b Book, _ int) BookResponse { return NewBookResponse(b) })
}

// DecodeRequestBody reads a single json object from the request body into v.
func DecodeRequestBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errEmptyPayload
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxPayloadSize)).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyPayload
	}
	if err != nil {
		return fmt.Errorf("request body must be a valid json object: %w", err)
	}
	return nil
}

// ToInput converts the payload into a book input. Blank ids are
// kept as nil uuids and reported by the book validation.
func (p BookPayload) ToInput() (BookInput, error) {
	authorID, errA := parseOptionalUUID("authorId", p.AuthorID)
	genreID, errG := parseOptionalUUID("genreId", p.GenreID)
	if err := errors.Join(errA, errG); err != nil {
		return BookInput{}, err
	}
	return BookInput{
		Name:        p.Name,
		AuthorID:    authorID,
		GenreID:     genreID,
		Description: p.Description,
	}, nil
}

func parseOptionalUUID(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.FromString(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a valid uuid", field)
	}
	return id, nil
}

// payloadMessages provides the details sent back for a rejected payload.
func payloadMessages(err error) []string {
	if errors.Is(err, ErrInvalidEntity) {
		return ValidationMessages(err)
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return lo.Map(joined.Unwrap(), func(e error, _ int) string { return e.Error() })
	}
	return []string{err.Error()}
}
