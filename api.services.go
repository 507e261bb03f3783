package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

var (
	ErrAuthorHasBooks = errors.New("author still has books")
	ErrGenreHasBooks  = errors.New("genre still has books")
)

var _ CatalogServiceProvider = (*CatalogService)(nil) // ensure CatalogService implements CatalogServiceProvider.

// CatalogServiceProvider defines the business operations on the catalog.
type CatalogServiceProvider interface {
	ListAuthors(ctx context.Context) ([]Author, error)
	GetAuthor(ctx context.Context, id uuid.UUID) (Author, error)
	CreateAuthor(ctx context.Context, name string) (Author, error)
	UpdateAuthor(ctx context.Context, id uuid.UUID, name string) (Author, error)
	DeleteAuthor(ctx context.Context, id uuid.UUID) error

	ListGenres(ctx context.Context) ([]Genre, error)
	GetGenre(ctx context.Context, id uuid.UUID) (Genre, error)
	CreateGenre(ctx context.Context, name string) (Genre, error)
	UpdateGenre(ctx context.Context, id uuid.UUID, name string) (Genre, error)
	DeleteGenre(ctx context.Context, id uuid.UUID) error

	ListBooks(ctx context.Context) ([]Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (Book, error)
	CreateBook(ctx context.Context, in BookInput) (Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, in BookInput) (Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// CatalogService runs the catalog rules over a single storage session.
type CatalogService struct {
	logger  *zap.Logger
	clock   Clocker
	ids     UIDHandler
	session Session
}

// NewCatalogService provides a service bound to the given session.
func NewCatalogService(logger *zap.Logger, clock Clocker, ids UIDHandler, session Session) *CatalogService {
	return &CatalogService{
		logger:  logger,
		clock:   clock,
		ids:     ids,
		session: session,
	}
}

func (cs *CatalogService) ListAuthors(ctx context.Context) ([]Author, error) {
	return cs.session.Authors().List(ctx)
}

func (cs *CatalogService) GetAuthor(ctx context.Context, id uuid.UUID) (Author, error) {
	return cs.session.Authors().GetByID(ctx, id)
}

func (cs *CatalogService) CreateAuthor(ctx context.Context, name string) (Author, error) {
	author, err := NewAuthor(cs.ids.Generate(), name, cs.clock.Now())
	if err != nil {
		return Author{}, err
	}
	if err = cs.session.Authors().Create(ctx, author); err != nil {
		return Author{}, fmt.Errorf("service: create author: %w", err)
	}
	return author, nil
}

// UpdateAuthor renames an existing author. The name is checked
// before the lookup so an invalid payload is reported first.
func (cs *CatalogService) UpdateAuthor(ctx context.Context, id uuid.UUID, name string) (Author, error) {
	if err := validateName("name", name, AuthorNameMaxLength); err != nil {
		return Author{}, err
	}
	author, err := cs.session.Authors().GetByID(ctx, id)
	if err != nil {
		return Author{}, err
	}
	if err = author.UpdateName(name, cs.clock.Now()); err != nil {
		return Author{}, err
	}
	if err = cs.session.Authors().Update(ctx, author); err != nil {
		return Author{}, fmt.Errorf("service: update author: %w", err)
	}
	return author, nil
}

// DeleteAuthor removes the author unless some books still reference it.
func (cs *CatalogService) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	if _, err := cs.session.Authors().GetByID(ctx, id); err != nil {
		return err
	}
	n, err := cs.session.Books().CountByAuthor(ctx, id)
	if err != nil {
		return fmt.Errorf("service: count author books: %w", err)
	}
	if n > 0 {
		return ErrAuthorHasBooks
	}
	err = cs.session.Authors().Delete(ctx, id)
	if errors.Is(err, ErrStillReferenced) {
		cs.logger.Info("service: author got new books before deletion", zap.String("author.id", id.String()))
		return ErrAuthorHasBooks
	}
	if err != nil {
		return fmt.Errorf("service: delete author: %w", err)
	}
	return nil
}

func (cs *CatalogService) ListGenres(ctx context.Context) ([]Genre, error) {
	return cs.session.Genres().List(ctx)
}

func (cs *CatalogService) GetGenre(ctx context.Context, id uuid.UUID) (Genre, error) {
	return cs.session.Genres().GetByID(ctx, id)
}

func (cs *CatalogService) CreateGenre(ctx context.Context, name string) (Genre, error) {
	genre, err := NewGenre(cs.ids.Generate(), name, cs.clock.Now())
	if err != nil {
		return Genre{}, err
	}
	if err = cs.session.Genres().Create(ctx, genre); err != nil {
		return Genre{}, fmt.Errorf("service: create genre: %w", err)
	}
	return genre, nil
}

func (cs *CatalogService) UpdateGenre(ctx context.Context, id uuid.UUID, name string) (Genre, error) {
	if err := validateName("name", name, GenreNameMaxLength); err != nil {
		return Genre{}, err
	}
	genre, err := cs.session.Genres().GetByID(ctx, id)
	if err != nil {
		return Genre{}, err
	}
	if err = genre.UpdateName(name, cs.clock.Now()); err != nil {
		return Genre{}, err
	}
	if err = cs.session.Genres().Update(ctx, genre); err != nil {
		return Genre{}, fmt.Errorf("service: update genre: %w", err)
	}
	return genre, nil
}

// DeleteGenre removes the genre unless some books still reference it.
func (cs *CatalogService) DeleteGenre(ctx context.Context, id uuid.UUID) error {
	if _, err := cs.session.Genres().GetByID(ctx, id); err != nil {
		return err
	}
	n, err := cs.session.Books().CountByGenre(ctx, id)
	if err != nil {
		return fmt.Errorf("service: count genre books: %w", err)
	}
	if n > 0 {
		return ErrGenreHasBooks
	}
	err = cs.session.Genres().Delete(ctx, id)
	if errors.Is(err, ErrStillReferenced) {
		cs.logger.Info("service: genre got new books before deletion", zap.String("genre.id", id.String()))
		return ErrGenreHasBooks
	}
	if err != nil {
		return fmt.Errorf("service: delete genre: %w", err)
	}
	return nil
}

func (cs *CatalogService) ListBooks(ctx context.Context) ([]Book, error) {
	return cs.session.Books().List(ctx)
}

func (cs *CatalogService) GetBook(ctx context.Context, id uuid.UUID) (Book, error) {
	return cs.session.Books().GetByID(ctx, id)
}

// CreateBook stores the book then reads it back with its author and genre.
func (cs *CatalogService) CreateBook(ctx context.Context, in BookInput) (Book, error) {
	book, err := NewBook(cs.ids.Generate(), in, cs.clock.Now())
	if err != nil {
		return Book{}, err
	}
	if err = cs.session.Books().Create(ctx, book); err != nil {
		return Book{}, fmt.Errorf("service: create book: %w", err)
	}
	return cs.session.Books().GetByID(ctx, book.ID)
}

// UpdateBook applies the input to an existing book then reads it back.
func (cs *CatalogService) UpdateBook(ctx context.Context, id uuid.UUID, in BookInput) (Book, error) {
	if err := in.validate(); err != nil {
		return Book{}, err
	}
	book, err := cs.session.Books().GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if err = book.Update(in, cs.clock.Now()); err != nil {
		return Book{}, err
	}
	if err = cs.session.Books().Update(ctx, book); err != nil {
		return Book{}, fmt.Errorf("service: update book: %w", err)
	}
	return cs.session.Books().GetByID(ctx, id)
}

// DeleteBook removes an existing book.
func (cs *CatalogService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if _, err := cs.session.Books().GetByID(ctx, id); err != nil {
		return err
	}
	if err := cs.session.Books().Delete(ctx, id); err != nil {
		return fmt.Errorf("service: delete book: %w", err)
	}
	return nil
}
