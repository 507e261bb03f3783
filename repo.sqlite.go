package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS authors (
	id         TEXT PRIMARY KEY NOT NULL,
	name       TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 200),
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS genres (
	id         TEXT PRIMARY KEY NOT NULL,
	name       TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 100),
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS books (
	id          TEXT PRIMARY KEY NOT NULL,
	name        TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 500),
	author_id   TEXT NOT NULL REFERENCES authors(id) ON DELETE RESTRICT,
	genre_id    TEXT NOT NULL REFERENCES genres(id) ON DELETE RESTRICT,
	description TEXT CHECK (description IS NULL OR length(description) <= 2000),
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id);
CREATE INDEX IF NOT EXISTS idx_books_genre_id ON books(genre_id);
`

// GetSQLiteClient opens the database file with foreign keys enforcement
// on every pooled connection and makes sure the schema exists.
func GetSQLiteClient(config *Config) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(config.SQLite.FilePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database folder: %v", err)
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d",
		config.SQLite.FilePath, config.SQLite.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}

	if config.SQLite.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.SQLite.MaxOpenConns)
	}
	if config.SQLite.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.SQLite.MaxIdleConns)
	}
	if config.SQLite.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.SQLite.ConnMaxLifetime)
	}

	if _, err = db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up schema: %v", err)
	}
	return db, nil
}

type sqliteStorage struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSQLiteStorage provides an instance of sqlite-based storage.
func NewSQLiteStorage(logger *zap.Logger, db *sql.DB) Storage {
	return &sqliteStorage{logger: logger, db: db}
}

// Session pins a pooled connection for the lifetime of the request.
func (s *sqliteStorage) Session(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to acquire connection: %w", err)
	}
	return &sqliteSession{conn: conn}, nil
}

func (s *sqliteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

// sqlRunner is satisfied by both *sql.Conn and *sql.DB.
type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteSession struct {
	conn *sql.Conn
}

func (ss *sqliteSession) Authors() AuthorStorage { return &sqliteAuthorStorage{ss.conn} }
func (ss *sqliteSession) Genres() GenreStorage   { return &sqliteGenreStorage{ss.conn} }
func (ss *sqliteSession) Books() BookStorage     { return &sqliteBookStorage{ss.conn} }

// Close returns the connection to the pool.
func (ss *sqliteSession) Close() error {
	return ss.conn.Close()
}

// isForeignKeyError reports whether err is a sqlite foreign key violation.
func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

func execBuilder(ctx context.Context, r sqlRunner, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to build statement: %w", err)
	}
	return r.ExecContext(ctx, query, args...)
}

func queryBuilder(ctx context.Context, r sqlRunner, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to build query: %w", err)
	}
	return r.QueryContext(ctx, query, args...)
}

// updateOne runs an update and maps a zero rows count to notFound.
func updateOne(ctx context.Context, r sqlRunner, b sq.UpdateBuilder, notFound error) error {
	res, err := execBuilder(ctx, r, b)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// nameRecord is the shared row shape of authors and genres.
type nameRecord struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func listNameRecords(ctx context.Context, r sqlRunner, table string) ([]nameRecord, error) {
	rows, err := queryBuilder(ctx, r,
		sq.Select("id", "name", "created_at", "updated_at").From(table).OrderBy("name", "id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []nameRecord{}
	for rows.Next() {
		var rec nameRecord
		if err = rows.Scan(&rec.ID, &rec.Name, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func getNameRecord(ctx context.Context, r sqlRunner, table string, id uuid.UUID, notFound error) (nameRecord, error) {
	var rec nameRecord
	query, args, err := sq.Select("id", "name", "created_at", "updated_at").
		From(table).Where(sq.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return rec, err
	}
	err = r.QueryRowContext(ctx, query, args...).Scan(&rec.ID, &rec.Name, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, notFound
	}
	return rec, err
}

func deleteByID(ctx context.Context, r sqlRunner, table string, id uuid.UUID) error {
	_, err := execBuilder(ctx, r, sq.Delete(table).Where(sq.Eq{"id": id.String()}))
	if isForeignKeyError(err) {
		return ErrStillReferenced
	}
	return err
}

type sqliteAuthorStorage struct {
	db sqlRunner
}

// List retrieves all authors ordered by name.
func (s *sqliteAuthorStorage) List(ctx context.Context) ([]Author, error) {
	records, err := listNameRecords(ctx, s.db, "authors")
	if err != nil {
		return nil, err
	}
	authors := make([]Author, 0, len(records))
	for _, rec := range records {
		authors = append(authors, Author(rec))
	}
	return authors, nil
}

// GetByID retrieves an author record based on its ID.
func (s *sqliteAuthorStorage) GetByID(ctx context.Context, id uuid.UUID) (Author, error) {
	rec, err := getNameRecord(ctx, s.db, "authors", id, ErrAuthorNotFound)
	return Author(rec), err
}

// Create inserts a new author record.
func (s *sqliteAuthorStorage) Create(ctx context.Context, a Author) error {
	_, err := execBuilder(ctx, s.db, sq.Insert("authors").
		Columns("id", "name", "created_at", "updated_at").
		Values(a.ID.String(), a.Name, a.CreatedAt, a.UpdatedAt))
	return err
}

// Update overwrites an existing author record.
func (s *sqliteAuthorStorage) Update(ctx context.Context, a Author) error {
	return updateOne(ctx, s.db, sq.Update("authors").
		Set("name", a.Name).
		Set("updated_at", a.UpdatedAt).
		Where(sq.Eq{"id": a.ID.String()}), ErrAuthorNotFound)
}

// Delete removes an author record. The foreign key on books rejects
// the deletion while books reference the author.
func (s *sqliteAuthorStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, s.db, "authors", id)
}

type sqliteGenreStorage struct {
	db sqlRunner
}

func (s *sqliteGenreStorage) List(ctx context.Context) ([]Genre, error) {
	records, err := listNameRecords(ctx, s.db, "genres")
	if err != nil {
		return nil, err
	}
	genres := make([]Genre, 0, len(records))
	for _, rec := range records {
		genres = append(genres, Genre(rec))
	}
	return genres, nil
}

func (s *sqliteGenreStorage) GetByID(ctx context.Context, id uuid.UUID) (Genre, error) {
	rec, err := getNameRecord(ctx, s.db, "genres", id, ErrGenreNotFound)
	return Genre(rec), err
}

func (s *sqliteGenreStorage) Create(ctx context.Context, g Genre) error {
	_, err := execBuilder(ctx, s.db, sq.Insert("genres").
		Columns("id", "name", "created_at", "updated_at").
		Values(g.ID.String(), g.Name, g.CreatedAt, g.UpdatedAt))
	return err
}

func (s *sqliteGenreStorage) Update(ctx context.Context, g Genre) error {
	return updateOne(ctx, s.db, sq.Update("genres").
		Set("name", g.Name).
		Set("updated_at", g.UpdatedAt).
		Where(sq.Eq{"id": g.ID.String()}), ErrGenreNotFound)
}

func (s *sqliteGenreStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, s.db, "genres", id)
}

type sqliteBookStorage struct {
	db sqlRunner
}

// selectBooks joins every book with its author and genre.
func selectBooks() sq.SelectBuilder {
	return sq.Select(
		"b.id", "b.name", "b.author_id", "b.genre_id", "b.description", "b.created_at", "b.updated_at",
		"a.id", "a.name", "a.created_at", "a.updated_at",
		"g.id", "g.name", "g.created_at", "g.updated_at",
	).
		From("books b").
		Join("authors a ON a.id = b.author_id").
		Join("genres g ON g.id = b.genre_id")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (Book, error) {
	var (
		b           Book
		a           Author
		g           Genre
		description sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.Name, &b.AuthorID, &b.GenreID, &description, &b.CreatedAt, &b.UpdatedAt,
		&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt,
		&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return Book{}, err
	}
	b.Description = description.String
	b.Author = &a
	b.Genre = &g
	return b, nil
}

func nullableText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// List retrieves all books with their author and genre, ordered by name.
func (s *sqliteBookStorage) List(ctx context.Context) ([]Book, error) {
	rows, err := queryBuilder(ctx, s.db, selectBooks().OrderBy("b.name", "b.id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// GetByID retrieves a book with its author and genre.
func (s *sqliteBookStorage) GetByID(ctx context.Context, id uuid.UUID) (Book, error) {
	query, args, err := selectBooks().Where(sq.Eq{"b.id": id.String()}).ToSql()
	if err != nil {
		return Book{}, err
	}
	book, err := scanBook(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	return book, err
}

// Create inserts a new book record. Unknown author or genre
// ids are rejected by the foreign keys.
func (s *sqliteBookStorage) Create(ctx context.Context, b Book) error {
	_, err := execBuilder(ctx, s.db, sq.Insert("books").
		Columns("id", "name", "author_id", "genre_id", "description", "created_at", "updated_at").
		Values(b.ID.String(), b.Name, b.AuthorID.String(), b.GenreID.String(), nullableText(b.Description), b.CreatedAt, b.UpdatedAt))
	if isForeignKeyError(err) {
		return ErrUnknownReference
	}
	return err
}

// Update overwrites an existing book record.
func (s *sqliteBookStorage) Update(ctx context.Context, b Book) error {
	err := updateOne(ctx, s.db, sq.Update("books").
		Set("name", b.Name).
		Set("author_id", b.AuthorID.String()).
		Set("genre_id", b.GenreID.String()).
		Set("description", nullableText(b.Description)).
		Set("updated_at", b.UpdatedAt).
		Where(sq.Eq{"id": b.ID.String()}), ErrBookNotFound)
	if isForeignKeyError(err) {
		return ErrUnknownReference
	}
	return err
}

// Delete removes a book record. Deleting a missing book is not an error.
func (s *sqliteBookStorage) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := execBuilder(ctx, s.db, sq.Delete("books").Where(sq.Eq{"id": id.String()}))
	return err
}

func (s *sqliteBookStorage) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int, error) {
	return s.count(ctx, sq.Eq{"author_id": authorID.String()})
}

func (s *sqliteBookStorage) CountByGenre(ctx context.Context, genreID uuid.UUID) (int, error) {
	return s.count(ctx, sq.Eq{"genre_id": genreID.String()})
}

func (s *sqliteBookStorage) count(ctx context.Context, where sq.Eq) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("books").Where(where).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
