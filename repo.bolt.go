package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// Buckets names of the bolt-based storage.
var (
	authorsBucket = []byte("authors")
	genresBucket  = []byte("genres")
	booksBucket   = []byte("books")
)

// GetBoltDBClient setup the database and the buckets then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(config.BoltDB.FilePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database folder: %v", err)
	}
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{authorsBucket, genresBucket, booksBucket} {
			if _, errB := tx.CreateBucketIfNotExists(name); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up buckets: %v", err)
	}
	return db, nil
}

type boltStorage struct {
	logger *zap.Logger
	client *bolt.DB
}

// NewBoltStorage provides an instance of bolt-based storage.
func NewBoltStorage(logger *zap.Logger, client *bolt.DB) Storage {
	return &boltStorage{logger: logger, client: client}
}

// Session shares the single bolt handle. Bolt serializes
// writers itself so there is nothing to pin per request.
func (bs *boltStorage) Session(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &boltSession{client: bs.client}, nil
}

func (bs *boltStorage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return bs.client.View(func(tx *bolt.Tx) error {
		if tx.Bucket(booksBucket) == nil {
			return fmt.Errorf("bolt: missing %s bucket", booksBucket)
		}
		return nil
	})
}

// Close shuts down the bolt database.
func (bs *boltStorage) Close() error {
	return bs.client.Close()
}

type boltSession struct {
	client *bolt.DB
}

func (s *boltSession) Authors() AuthorStorage { return &boltAuthorStorage{s.client} }
func (s *boltSession) Genres() GenreStorage   { return &boltGenreStorage{s.client} }
func (s *boltSession) Books() BookStorage     { return &boltBookStorage{s.client} }
func (s *boltSession) Close() error           { return nil }

// boltView and boltUpdate run fn in a transaction unless ctx is already done.
func boltView(ctx context.Context, db *bolt.DB, fn func(*bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.View(fn)
}

func boltUpdate(ctx context.Context, db *bolt.DB, fn func(*bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.Update(fn)
}

func boltGet[T any](tx *bolt.Tx, bucket []byte, id uuid.UUID, notFound error) (T, error) {
	var v T
	data := tx.Bucket(bucket).Get(id.Bytes())
	if data == nil {
		return v, notFound
	}
	err := json.Unmarshal(data, &v)
	return v, err
}

func boltPut(tx *bolt.Tx, bucket []byte, id uuid.UUID, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put(id.Bytes(), data)
}

func boltExists(tx *bolt.Tx, bucket []byte, id uuid.UUID) bool {
	return tx.Bucket(bucket).Get(id.Bytes()) != nil
}

func boltList[T any](tx *bolt.Tx, bucket []byte) ([]T, error) {
	items := []T{}
	err := tx.Bucket(bucket).ForEach(func(_, data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		items = append(items, v)
		return nil
	})
	return items, err
}

// boltCountBooks counts the books matching the predicate.
func boltCountBooks(tx *bolt.Tx, match func(Book) bool) (int, error) {
	n := 0
	err := tx.Bucket(booksBucket).ForEach(func(_, data []byte) error {
		var b Book
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		if match(b) {
			n++
		}
		return nil
	})
	return n, err
}

type boltAuthorStorage struct {
	client *bolt.DB
}

func (s *boltAuthorStorage) List(ctx context.Context) (authors []Author, err error) {
	err = boltView(ctx, s.client, func(tx *bolt.Tx) error {
		authors, err = boltList[Author](tx, authorsBucket)
		return err
	})
	sortAuthors(authors)
	return authors, err
}

func (s *boltAuthorStorage) GetByID(ctx context.Context, id uuid.UUID) (author Author, err error) {
	err = boltView(ctx, s.client, func(tx *bolt.Tx) error {
		author, err = boltGet[Author](tx, authorsBucket, id, ErrAuthorNotFound)
		return err
	})
	return author, err
}

func (s *boltAuthorStorage) Create(ctx context.Context, a Author) error {
	return boltUpdate(ctx, s.client, func(tx *bolt.Tx) error {
		return boltPut(tx, authorsBucket, a.ID, a)
	})
}

func (s *boltAuthorStorage) Update(ctx context.Context, a Author) error {
	return boltUpdate(ctx, s.client, func(tx *bolt.Tx) error {
		if !boltExists(tx, authorsBucket, a.ID) {
			return ErrAuthorNotFound
		}
		return boltPut(tx, authorsBucket, a.ID, a)
	})
}

// Delete removes the author unless books still reference it.
// The check and the removal share the same write transaction.
func (s *boltAuthorStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return boltUpdate(ctx, s.client, func(tx *bolt.Tx) error {
		n, err := boltCountBooks(tx, func(b Book) bool { return b.AuthorID == id })
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrStillReferenced
		}
		return tx.Bucket(authorsBucket).Delete(id.Bytes())
	})
}

type boltGenreStorage struct {
	client *bolt.DB
}

func (s *boltGenreStorage) List(ctx context.Context) (genres []Genre, err error) {
	err = boltView(ctx, s.client, func(tx *bolt.Tx) error {
		genres, err = boltList[Genre](tx, genresBucket)
		return err
	})
	sortGenres(genres)
	return genres, err
}

func (s *boltGenreStorage) GetByID(ctx context.Context, id uuid.UUID) (genre Genre, err error) {
	err = boltView(ctx, s.client, func(tx *bolt.Tx) error {
		genre, err = boltGet[Genre](tx, genresBucket, id, ErrGenreNotFound)
		return err
	})
	return genre, err
}

func (s *boltGenreStorage) Create(ctx context.Context, g Genre) error {
	return boltUpdate(ctx, s.client, func(tx *bolt.Tx) error {
		return boltPut(tx, genresBucket, g.ID, g)
	})
}

func (s *boltGenreStorage) Update(ctx context.Context, g Genre) error {
	return boltUpdate(ctx, s.client, func(tx *bolt.Tx) error {
		if !boltExists(tx, genresBucket, g.ID) {
			return ErrGenreNotFound
		}
		return boltPut(tx, genresBucket, g.ID, g)
	})
}

func (s *boltGenreStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return boltUpdate(ctx, s.client, func(tx *bolt.Tx) error {
		n, err := boltCountBooks(tx, func(b Book) bool { return b.GenreID == id })
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrStillReferenced
		}
		return tx.Bucket(genresBucket).Delete(id.Bytes())
	})
}

type boltBookStorage struct {
	client *bolt.DB
}

// joinBook loads the author and the genre of the book.
func joinBook(tx *bolt.Tx, b *Book) error {
	a, err := boltGet[Author](tx, authorsBucket, b.AuthorID, ErrUnknownReference)
	if err != nil {
		return fmt.Errorf("book %s: %w", b.ID, err)
	}
	g, err := boltGet[Genre](tx, genresBucket, b.GenreID, ErrUnknownReference)
	if err != nil {
		return fmt.Errorf("book %s: %w", b.ID, err)
	}
	b.Author, b.Genre = &a, &g
	return nil
}

func checkReferences(tx *bolt.Tx, b Book) error {
	if !boltExists(tx, authorsBucket, b.AuthorID) || !boltExists(tx, genresBucket, b.GenreID) {
		return ErrUnknownReference
	}
	return nil
}

func (s *boltBookStorage) List(ctx context.Context) (books []Book, err error) {
	err = boltView(ctx, s.client, func(tx *bolt.Tx) error {
		books, err = boltList[Book](tx, booksBucket)
		if err != nil {
			return err
		}
		for i := range books {
			if err = joinBook(tx, &books[i]); err != nil {
				return err
			}
		}
		return nil
	})
	sortBooks(books)
	return books, err
}

func (s *boltBookStorage) GetByID(ctx context.Context, id uuid.UUID) (book Book, err error) {
	err = boltView(ctx, s.client, func(tx *bolt.Tx) error {
		book, err = boltGet[Book](tx, booksBucket, id, ErrBookNotFound)
		if err != nil {
			return err
		}
		return joinBook(tx, &book)
	})
	return book, err
}

func (s *boltBookStorage) Create(ctx context.Context, b Book) error {
	return boltUpdate(ctx, s.client, func(tx *bolt.Tx) error {
		if err := checkReferences(tx, b); err != nil {
			return err
		}
		return boltPut(tx, booksBucket, b.ID, b)
	})
}

func (s *boltBookStorage) Update(ctx context.Context, b Book) error {
	return boltUpdate(ctx, s.client, func(tx *bolt.Tx) error {
		if !boltExists(tx, booksBucket, b.ID) {
			return ErrBookNotFound
		}
		if err := checkReferences(tx, b); err != nil {
			return err
		}
		return boltPut(tx, booksBucket, b.ID, b)
	})
}

func (s *boltBookStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return boltUpdate(ctx, s.client, func(tx *bolt.Tx) error {
		return tx.Bucket(booksBucket).Delete(id.Bytes())
	})
}

func (s *boltBookStorage) CountByAuthor(ctx context.Context, authorID uuid.UUID) (n int, err error) {
	err = boltView(ctx, s.client, func(tx *bolt.Tx) error {
		n, err = boltCountBooks(tx, func(b Book) bool { return b.AuthorID == authorID })
		return err
	})
	return n, err
}

func (s *boltBookStorage) CountByGenre(ctx context.Context, genreID uuid.UUID) (n int, err error) {
	err = boltView(ctx, s.client, func(tx *bolt.Tx) error {
		n, err = boltCountBooks(tx, func(b Book) bool { return b.GenreID == genreID })
		return err
	})
	return n, err
}
