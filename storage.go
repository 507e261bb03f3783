package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

var (
	ErrAuthorNotFound = errors.New("author not found")
	ErrGenreNotFound  = errors.New("genre not found")
	ErrBookNotFound   = errors.New("book not found")

	// ErrUnknownReference is returned when a book points to
	// an author or a genre which does not exist.
	ErrUnknownReference = errors.New("referenced author or genre does not exist")

	// ErrStillReferenced is returned when deleting an author
	// or a genre which books still reference.
	ErrStillReferenced = errors.New("record is still referenced by books")
)

// Supported storage drivers.
const (
	SQLiteDriver = "sqlite"
	BoltDriver   = "bolt"
	RedisDriver  = "redis"
)

// AuthorStorage defines possible operations on author entity.
type AuthorStorage interface {
	List(ctx context.Context) ([]Author, error)
	GetByID(ctx context.Context, id uuid.UUID) (Author, error)
	Create(ctx context.Context, author Author) error
	Update(ctx context.Context, author Author) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GenreStorage defines possible operations on genre entity.
type GenreStorage interface {
	List(ctx context.Context) ([]Genre, error)
	GetByID(ctx context.Context, id uuid.UUID) (Genre, error)
	Create(ctx context.Context, genre Genre) error
	Update(ctx context.Context, genre Genre) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookStorage defines possible operations on book entity.
// List and GetByID return books with their author and genre.
type BookStorage interface {
	List(ctx context.Context) ([]Book, error)
	GetByID(ctx context.Context, id uuid.UUID) (Book, error)
	Create(ctx context.Context, book Book) error
	Update(ctx context.Context, book Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByAuthor(ctx context.Context, authorID uuid.UUID) (int, error)
	CountByGenre(ctx context.Context, genreID uuid.UUID) (int, error)
}

// Session is a storage handle scoped to a single request.
// It must be closed once the request is processed.
type Session interface {
	Authors() AuthorStorage
	Genres() GenreStorage
	Books() BookStorage
	Close() error
}

// Storage is the long-lived store the sessions are opened from.
type Storage interface {
	Session(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
	Close() error
}

// The key/value drivers have no natural scan order so they sort
// the same way the sqlite driver does: by name then by id.

func sortAuthors(authors []Author) {
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].Name != authors[j].Name {
			return authors[i].Name < authors[j].Name
		}
		return authors[i].ID.String() < authors[j].ID.String()
	})
}

func sortGenres(genres []Genre) {
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Name != genres[j].Name {
			return genres[i].Name < genres[j].Name
		}
		return genres[i].ID.String() < genres[j].ID.String()
	})
}

func sortBooks(books []Book) {
	sort.Slice(books, func(i, j int) bool {
		if books[i].Name != books[j].Name {
			return books[i].Name < books[j].Name
		}
		return books[i].ID.String() < books[j].ID.String()
	})
}

// OpenStorage connects to the configured storage driver.
func OpenStorage(config *Config, logger *zap.Logger) (Storage, error) {
	switch config.Storage.Driver {
	case SQLiteDriver:
		db, err := GetSQLiteClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
		}
		return NewSQLiteStorage(logger, db), nil
	case BoltDriver:
		client, err := GetBoltDBClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to boltDB database: %w", err)
		}
		return NewBoltStorage(logger, client), nil
	case RedisDriver:
		client, err := GetRedisClient(config)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis server: %w", err)
		}
		return NewRedisStorage(logger, client), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}
}
