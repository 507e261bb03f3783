package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Hashes holding the json-encoded records, keyed by record id.
const (
	HAuthors string = "authors"
	HGenres  string = "genres"
	HBooks   string = "books"
)

// redisTxMaxRetries bounds the optimistic transactions attempts.
const redisTxMaxRetries = 5

// authorBooksKey and genreBooksKey name the sets of book ids
// referencing a given author or genre.
func authorBooksKey(id uuid.UUID) string { return "authors:" + id.String() + ":books" }
func genreBooksKey(id uuid.UUID) string  { return "genres:" + id.String() + ":books" }

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

type redisStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisStorage provides an instance of redis-based storage.
func NewRedisStorage(logger *zap.Logger, client *redis.Client) Storage {
	return &redisStorage{logger: logger, client: client}
}

// Session shares the pooled client. Transactions need WATCH
// which go-redis only exposes on the client itself.
func (rs *redisStorage) Session(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &redisSession{client: rs.client}, nil
}

func (rs *redisStorage) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

func (rs *redisStorage) Close() error {
	return rs.client.Close()
}

type redisSession struct {
	client *redis.Client
}

func (s *redisSession) Authors() AuthorStorage { return &redisAuthorStorage{s.client} }
func (s *redisSession) Genres() GenreStorage   { return &redisGenreStorage{s.client} }
func (s *redisSession) Books() BookStorage     { return &redisBookStorage{s.client} }
func (s *redisSession) Close() error           { return nil }

// watch runs fn in an optimistic transaction over keys and
// starts over when one of the keys changed in the meantime.
func watch(ctx context.Context, client *redis.Client, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < redisTxMaxRetries; i++ {
		err := client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis: transaction aborted after %d attempts: %w", redisTxMaxRetries, redis.TxFailedErr)
}

func redisGet[T any](ctx context.Context, c redis.Cmdable, hash string, id uuid.UUID, notFound error) (T, error) {
	var v T
	data, err := c.HGet(ctx, hash, id.String()).Result()
	if err == redis.Nil {
		return v, notFound
	}
	if err != nil {
		return v, err
	}
	err = json.Unmarshal([]byte(data), &v)
	return v, err
}

func redisList[T any](ctx context.Context, c redis.Cmdable, hash string) ([]T, error) {
	values, err := c.HVals(ctx, hash).Result()
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(values))
	for _, data := range values {
		var v T
		if err = json.Unmarshal([]byte(data), &v); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// redisGetMany fetches the records of the given ids, indexed by id.
func redisGetMany[T any](ctx context.Context, c redis.Cmdable, hash string, ids []uuid.UUID) (map[uuid.UUID]T, error) {
	items := make(map[uuid.UUID]T, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	values, err := c.HMGet(ctx, hash, lo.Map(ids, func(id uuid.UUID, _ int) string { return id.String() })...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		data, ok := value.(string)
		if !ok {
			continue
		}
		var v T
		if err = json.Unmarshal([]byte(data), &v); err != nil {
			return nil, err
		}
		items[ids[i]] = v
	}
	return items, nil
}

func redisPut(ctx context.Context, c redis.Cmdable, hash string, id uuid.UUID, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.HSet(ctx, hash, id.String(), data).Err()
}

// redisReplace overwrites an existing record or returns notFound.
func redisReplace(ctx context.Context, client *redis.Client, hash string, id uuid.UUID, v any, notFound error) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return watch(ctx, client, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, hash, id.String()).Result()
		if err != nil {
			return err
		}
		if !exists {
			return notFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hash, id.String(), data)
			return nil
		})
		return err
	}, hash)
}

// redisDeleteUnreferenced removes a record unless its books set is not empty.
func redisDeleteUnreferenced(ctx context.Context, client *redis.Client, hash string, id uuid.UUID, refKey string) error {
	return watch(ctx, client, func(tx *redis.Tx) error {
		n, err := tx.SCard(ctx, refKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrStillReferenced
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, hash, id.String())
			return nil
		})
		return err
	}, refKey, hash)
}

type redisAuthorStorage struct {
	client *redis.Client
}

func (s *redisAuthorStorage) List(ctx context.Context) ([]Author, error) {
	authors, err := redisList[Author](ctx, s.client, HAuthors)
	sortAuthors(authors)
	return authors, err
}

func (s *redisAuthorStorage) GetByID(ctx context.Context, id uuid.UUID) (Author, error) {
	return redisGet[Author](ctx, s.client, HAuthors, id, ErrAuthorNotFound)
}

func (s *redisAuthorStorage) Create(ctx context.Context, a Author) error {
	return redisPut(ctx, s.client, HAuthors, a.ID, a)
}

func (s *redisAuthorStorage) Update(ctx context.Context, a Author) error {
	return redisReplace(ctx, s.client, HAuthors, a.ID, a, ErrAuthorNotFound)
}

func (s *redisAuthorStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return redisDeleteUnreferenced(ctx, s.client, HAuthors, id, authorBooksKey(id))
}

type redisGenreStorage struct {
	client *redis.Client
}

func (s *redisGenreStorage) List(ctx context.Context) ([]Genre, error) {
	genres, err := redisList[Genre](ctx, s.client, HGenres)
	sortGenres(genres)
	return genres, err
}

func (s *redisGenreStorage) GetByID(ctx context.Context, id uuid.UUID) (Genre, error) {
	return redisGet[Genre](ctx, s.client, HGenres, id, ErrGenreNotFound)
}

func (s *redisGenreStorage) Create(ctx context.Context, g Genre) error {
	return redisPut(ctx, s.client, HGenres, g.ID, g)
}

func (s *redisGenreStorage) Update(ctx context.Context, g Genre) error {
	return redisReplace(ctx, s.client, HGenres, g.ID, g, ErrGenreNotFound)
}

func (s *redisGenreStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return redisDeleteUnreferenced(ctx, s.client, HGenres, id, genreBooksKey(id))
}

type redisBookStorage struct {
	client *redis.Client
}

// joinBooks attaches authors and genres to the books with two round trips.
func joinBooks(ctx context.Context, c redis.Cmdable, books []Book) error {
	authorIDs := lo.Uniq(lo.Map(books, func(b Book, _ int) uuid.UUID { return b.AuthorID }))
	genreIDs := lo.Uniq(lo.Map(books, func(b Book, _ int) uuid.UUID { return b.GenreID }))
	authors, err := redisGetMany[Author](ctx, c, HAuthors, authorIDs)
	if err != nil {
		return err
	}
	genres, err := redisGetMany[Genre](ctx, c, HGenres, genreIDs)
	if err != nil {
		return err
	}
	for i := range books {
		a, okA := authors[books[i].AuthorID]
		g, okG := genres[books[i].GenreID]
		if !okA || !okG {
			return fmt.Errorf("book %s: %w", books[i].ID, ErrUnknownReference)
		}
		books[i].Author, books[i].Genre = &a, &g
	}
	return nil
}

// checkRedisReferences makes sure the author and the genre of b exist.
func checkRedisReferences(ctx context.Context, tx *redis.Tx, b Book) error {
	okA, err := tx.HExists(ctx, HAuthors, b.AuthorID.String()).Result()
	if err != nil {
		return err
	}
	okG, err := tx.HExists(ctx, HGenres, b.GenreID.String()).Result()
	if err != nil {
		return err
	}
	if !okA || !okG {
		return ErrUnknownReference
	}
	return nil
}

func (s *redisBookStorage) List(ctx context.Context) ([]Book, error) {
	books, err := redisList[Book](ctx, s.client, HBooks)
	if err != nil {
		return nil, err
	}
	if err = joinBooks(ctx, s.client, books); err != nil {
		return nil, err
	}
	sortBooks(books)
	return books, nil
}

func (s *redisBookStorage) GetByID(ctx context.Context, id uuid.UUID) (Book, error) {
	book, err := redisGet[Book](ctx, s.client, HBooks, id, ErrBookNotFound)
	if err != nil {
		return book, err
	}
	books := []Book{book}
	if err = joinBooks(ctx, s.client, books); err != nil {
		return Book{}, err
	}
	return books[0], nil
}

// Create inserts the book and registers it in the books sets of its
// author and genre. Watching both hashes makes a concurrent deletion
// of the author or the genre abort the transaction.
func (s *redisBookStorage) Create(ctx context.Context, b Book) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return watch(ctx, s.client, func(tx *redis.Tx) error {
		if err := checkRedisReferences(ctx, tx, b); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, HBooks, b.ID.String(), data)
			pipe.SAdd(ctx, authorBooksKey(b.AuthorID), b.ID.String())
			pipe.SAdd(ctx, genreBooksKey(b.GenreID), b.ID.String())
			return nil
		})
		return err
	}, HAuthors, HGenres)
}

// Update overwrites the book and moves it between the books
// sets when its author or genre changed.
func (s *redisBookStorage) Update(ctx context.Context, b Book) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return watch(ctx, s.client, func(tx *redis.Tx) error {
		old, err := redisGet[Book](ctx, tx, HBooks, b.ID, ErrBookNotFound)
		if err != nil {
			return err
		}
		if err = checkRedisReferences(ctx, tx, b); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, HBooks, b.ID.String(), data)
			pipe.SRem(ctx, authorBooksKey(old.AuthorID), b.ID.String())
			pipe.SRem(ctx, genreBooksKey(old.GenreID), b.ID.String())
			pipe.SAdd(ctx, authorBooksKey(b.AuthorID), b.ID.String())
			pipe.SAdd(ctx, genreBooksKey(b.GenreID), b.ID.String())
			return nil
		})
		return err
	}, HBooks, HAuthors, HGenres)
}

func (s *redisBookStorage) Delete(ctx context.Context, id uuid.UUID) error {
	return watch(ctx, s.client, func(tx *redis.Tx) error {
		old, err := redisGet[Book](ctx, tx, HBooks, id, ErrBookNotFound)
		if errors.Is(err, ErrBookNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, HBooks, id.String())
			pipe.SRem(ctx, authorBooksKey(old.AuthorID), id.String())
			pipe.SRem(ctx, genreBooksKey(old.GenreID), id.String())
			return nil
		})
		return err
	}, HBooks)
}

func (s *redisBookStorage) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int, error) {
	n, err := s.client.SCard(ctx, authorBooksKey(authorID)).Result()
	return int(n), err
}

func (s *redisBookStorage) CountByGenre(ctx context.Context, genreID uuid.UUID) (int, error) {
	n, err := s.client.SCard(ctx, genreBooksKey(genreID)).Result()
	return int(n), err
}
