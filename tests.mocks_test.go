package main

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
)

// This file contains mocks definitions needed to perform unit tests.

// MockStorage implements a fake Storage.
type MockStorage struct {
	SessionFunc func(ctx context.Context) (Session, error)
	PingFunc    func(ctx context.Context) error
	CloseFunc   func() error
}

func (m *MockStorage) Session(ctx context.Context) (Session, error) {
	return m.SessionFunc(ctx)
}

func (m *MockStorage) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

func (m *MockStorage) Close() error {
	return m.CloseFunc()
}

// NewMockStorage returns a storage which always provides the given session.
func NewMockStorage(sess *MockSession) *MockStorage {
	return &MockStorage{
		SessionFunc: func(ctx context.Context) (Session, error) { return sess, nil },
		PingFunc:    func(ctx context.Context) error { return nil },
		CloseFunc:   func() error { return nil },
	}
}

// MockSession implements a fake Session and records its closing.
type MockSession struct {
	AuthorStorage *MockAuthorStorage
	GenreStorage  *MockGenreStorage
	BookStorage   *MockBookStorage
	closed        int
}

func (m *MockSession) Authors() AuthorStorage { return m.AuthorStorage }
func (m *MockSession) Genres() GenreStorage   { return m.GenreStorage }
func (m *MockSession) Books() BookStorage     { return m.BookStorage }

func (m *MockSession) Close() error {
	m.closed++
	return nil
}

type MockAuthorStorage struct {
	ListFunc    func(ctx context.Context) ([]Author, error)
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (Author, error)
	CreateFunc  func(ctx context.Context, author Author) error
	UpdateFunc  func(ctx context.Context, author Author) error
	DeleteFunc  func(ctx context.Context, id uuid.UUID) error
}

// List mocks the behavior of retrieving all authors by the repository.
func (m *MockAuthorStorage) List(ctx context.Context) ([]Author, error) {
	return m.ListFunc(ctx)
}

// GetByID mocks the behavior of retrieving an author by the repository.
func (m *MockAuthorStorage) GetByID(ctx context.Context, id uuid.UUID) (Author, error) {
	return m.GetByIDFunc(ctx, id)
}

// Create mocks the behavior of author creation by the repository.
func (m *MockAuthorStorage) Create(ctx context.Context, author Author) error {
	return m.CreateFunc(ctx, author)
}

// Update mocks the behavior of updating an author by the repository.
func (m *MockAuthorStorage) Update(ctx context.Context, author Author) error {
	return m.UpdateFunc(ctx, author)
}

// Delete mocks the behavior of deleting an author by the repository.
func (m *MockAuthorStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

type MockGenreStorage struct {
	ListFunc    func(ctx context.Context) ([]Genre, error)
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (Genre, error)
	CreateFunc  func(ctx context.Context, genre Genre) error
	UpdateFunc  func(ctx context.Context, genre Genre) error
	DeleteFunc  func(ctx context.Context, id uuid.UUID) error
}

func (m *MockGenreStorage) List(ctx context.Context) ([]Genre, error) {
	return m.ListFunc(ctx)
}

func (m *MockGenreStorage) GetByID(ctx context.Context, id uuid.UUID) (Genre, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockGenreStorage) Create(ctx context.Context, genre Genre) error {
	return m.CreateFunc(ctx, genre)
}

func (m *MockGenreStorage) Update(ctx context.Context, genre Genre) error {
	return m.UpdateFunc(ctx, genre)
}

func (m *MockGenreStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

type MockBookStorage struct {
	ListFunc          func(ctx context.Context) ([]Book, error)
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (Book, error)
	CreateFunc        func(ctx context.Context, book Book) error
	UpdateFunc        func(ctx context.Context, book Book) error
	DeleteFunc        func(ctx context.Context, id uuid.UUID) error
	CountByAuthorFunc func(ctx context.Context, authorID uuid.UUID) (int, error)
	CountByGenreFunc  func(ctx context.Context, genreID uuid.UUID) (int, error)
}

func (m *MockBookStorage) List(ctx context.Context) ([]Book, error) {
	return m.ListFunc(ctx)
}

func (m *MockBookStorage) GetByID(ctx context.Context, id uuid.UUID) (Book, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockBookStorage) Create(ctx context.Context, book Book) error {
	return m.CreateFunc(ctx, book)
}

func (m *MockBookStorage) Update(ctx context.Context, book Book) error {
	return m.UpdateFunc(ctx, book)
}

func (m *MockBookStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

func (m *MockBookStorage) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int, error) {
	return m.CountByAuthorFunc(ctx, authorID)
}

func (m *MockBookStorage) CountByGenre(ctx context.Context, genreID uuid.UUID) (int, error) {
	return m.CountByGenreFunc(ctx, genreID)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler. It generates the
// configured id and parses like the real handler.
type MockUIDHandler struct {
	MockedUID uuid.UUID
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: uuid.FromStringOrNil(id)}
}

func (muid *MockUIDHandler) Generate() uuid.UUID {
	return muid.MockedUID
}

func (muid *MockUIDHandler) Parse(id string) (uuid.UUID, bool) {
	return NewIDsHandler().Parse(id)
}
