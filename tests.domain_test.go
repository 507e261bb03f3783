package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthor(t *testing.T) {
	now := NewMockClocker().Now()
	id := NewIDsHandler().Generate()

	testCases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid name", "Ursula K. Le Guin", false},
		{"empty name", "", true},
		{"whitespace only name", "   \t", true},
		{"name at max length", strings.Repeat("a", AuthorNameMaxLength), false},
		{"name over max length", strings.Repeat("a", AuthorNameMaxLength+1), true},
		{"multibyte name at max length", strings.Repeat("é", AuthorNameMaxLength), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			author, err := NewAuthor(id, tc.value, now)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEntity)
				assert.Equal(t, Author{}, author)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, author.ID)
			assert.Equal(t, tc.value, author.Name)
			assert.Equal(t, now, author.CreatedAt)
			assert.Equal(t, now, author.UpdatedAt)
		})
	}
}

func TestAuthorUpdateName(t *testing.T) {
	created := NewMockClocker().Now()
	later := created.Add(time.Hour)
	author, err := NewAuthor(NewIDsHandler().Generate(), "Initial", created)
	require.NoError(t, err)

	t.Run("should fail: invalid name keeps author unchanged", func(t *testing.T) {
		before := author
		err := author.UpdateName(" ", later)
		assert.ErrorIs(t, err, ErrInvalidEntity)
		assert.Equal(t, before, author)
	})

	t.Run("should pass: valid name", func(t *testing.T) {
		require.NoError(t, author.UpdateName("Renamed", later))
		assert.Equal(t, "Renamed", author.Name)
		assert.Equal(t, created, author.CreatedAt)
		assert.Equal(t, later, author.UpdatedAt)
	})
}

func TestNewGenre(t *testing.T) {
	now := NewMockClocker().Now()
	genre, err := NewGenre(NewIDsHandler().Generate(), "Fantasy", now)
	require.NoError(t, err)
	assert.Equal(t, "Fantasy", genre.Name)

	_, err = NewGenre(NewIDsHandler().Generate(), strings.Repeat("g", GenreNameMaxLength+1), now)
	assert.ErrorIs(t, err, ErrInvalidEntity)
	assert.Equal(t, []string{"name must not exceed 100 characters"}, ValidationMessages(err))

	err = genre.UpdateName("", now)
	assert.ErrorIs(t, err, ErrInvalidEntity)
	assert.Equal(t, "Fantasy", genre.Name)
}

func TestNewBook(t *testing.T) {
	now := NewMockClocker().Now()
	ids := NewIDsHandler()
	valid := BookInput{
		Name:        "A Wizard of Earthsea",
		AuthorID:    ids.Generate(),
		GenreID:     ids.Generate(),
		Description: "A young mage.",
	}

	t.Run("should pass: valid input", func(t *testing.T) {
		id := ids.Generate()
		book, err := NewBook(id, valid, now)
		require.NoError(t, err)
		assert.Equal(t, id, book.ID)
		assert.Equal(t, valid.AuthorID, book.AuthorID)
		assert.Equal(t, valid.GenreID, book.GenreID)
		assert.Nil(t, book.Author)
		assert.Nil(t, book.Genre)
		assert.Equal(t, "", book.AuthorName())
		assert.Equal(t, "", book.GenreName())
	})

	t.Run("should pass: empty description", func(t *testing.T) {
		in := valid
		in.Description = ""
		_, err := NewBook(ids.Generate(), in, now)
		assert.NoError(t, err)
	})

	t.Run("should fail: every problem is reported", func(t *testing.T) {
		in := BookInput{Description: strings.Repeat("d", BookDescriptionMaxLength+1)}
		_, err := NewBook(ids.Generate(), in, now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidEntity))
		assert.Equal(t, []string{
			"name is required",
			"authorId must reference an existing record",
			"genreId must reference an existing record",
			"description must not exceed 2000 characters",
		}, ValidationMessages(err))
	})

	t.Run("should fail: name too long", func(t *testing.T) {
		in := valid
		in.Name = strings.Repeat("n", BookNameMaxLength+1)
		_, err := NewBook(ids.Generate(), in, now)
		assert.ErrorIs(t, err, ErrInvalidEntity)
	})
}

func TestBookUpdate(t *testing.T) {
	now := NewMockClocker().Now()
	ids := NewIDsHandler()
	author := &Author{ID: ids.Generate(), Name: "Author"}
	genre := &Genre{ID: ids.Generate(), Name: "Genre"}
	book, err := NewBook(ids.Generate(), BookInput{Name: "Book", AuthorID: author.ID, GenreID: genre.ID}, now)
	require.NoError(t, err)
	book.Author, book.Genre = author, genre

	t.Run("should fail: invalid input keeps book unchanged", func(t *testing.T) {
		before := book
		err := book.Update(BookInput{Name: "Book", AuthorID: uuid.Nil, GenreID: genre.ID}, now.Add(time.Minute))
		assert.ErrorIs(t, err, ErrInvalidEntity)
		assert.Equal(t, before, book)
	})

	t.Run("should pass: same references are kept", func(t *testing.T) {
		err := book.Update(BookInput{Name: "Book 2", AuthorID: author.ID, GenreID: genre.ID}, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "Book 2", book.Name)
		assert.Equal(t, "Author", book.AuthorName())
		assert.Equal(t, "Genre", book.GenreName())
		assert.Equal(t, now, book.CreatedAt)
		assert.Equal(t, now.Add(time.Minute), book.UpdatedAt)
	})

	t.Run("should pass: changed reference is dropped", func(t *testing.T) {
		other := ids.Generate()
		err := book.Update(BookInput{Name: "Book 2", AuthorID: author.ID, GenreID: other}, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, other, book.GenreID)
		assert.Nil(t, book.Genre)
		assert.NotNil(t, book.Author)
	})
}

func TestValidationMessages(t *testing.T) {
	assert.Nil(t, ValidationMessages(nil))
	assert.Equal(t, []string{"boom"}, ValidationMessages(errors.New("boom")))
	joined := errors.Join(missingFieldError("name"), nil, tooLongFieldError{field: "name", max: 3})
	assert.Equal(t, []string{"name is required", "name must not exceed 3 characters"}, ValidationMessages(joined))
}
