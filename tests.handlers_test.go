package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEnvelope mirrors APIResponse with raw data for later decoding.
type testEnvelope struct {
	Success bool            `json:"success"`
	Message *string         `json:"message"`
	Errors  []string        `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

func newTestAPIHandler(config *Config, store Storage) *APIHandler {
	return NewAPIHandler(
		zap.NewNop(),
		config,
		&Statistics{started: NewMockClocker().Now(), driver: SQLiteDriver},
		NewMockClocker(),
		NewIDsHandler(),
		store,
	)
}

// newTestRouter builds the full router with its middlewares.
func newTestRouter(api *APIHandler) *httprouter.Router {
	catalog, public, ops := api.MiddlewaresStacks()
	return api.SetupRoutes(httprouter.New(), &MiddlewareMap{
		catalog: catalog.Chain,
		public:  public.Chain,
		ops:     ops.Chain,
	})
}

// doRequest sends a request to the router and decodes the envelope if any.
func doRequest(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var env testEnvelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func message(env testEnvelope) string {
	if env.Message == nil {
		return ""
	}
	return *env.Message
}

func TestCatalogAPI_GenresLifecycle(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(&Config{}, newTestSQLiteStore(t)))

	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/genres", `{"name":"Fantasy"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Nil(t, env.Message)
	assert.Nil(t, env.Errors)
	genre := decodeData[GenreResponse](t, env)
	assert.Equal(t, "Fantasy", genre.Name)
	assert.Equal(t, NewMockClocker().Now(), genre.CreatedAt)
	assert.Equal(t, "/api/v1/genres/"+genre.ID, rec.Header().Get("Location"))
	assert.Equal(t, "application/json; charset=UTF-8", rec.Header().Get("Content-Type"))

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/genres/"+genre.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, genre, decodeData[GenreResponse](t, env))

	rec, env = doRequest(t, router, http.MethodPut, "/api/v1/genres/"+genre.ID, `{"name":"High Fantasy"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "High Fantasy", decodeData[GenreResponse](t, env).Name)

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/genres", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	genres := decodeData[[]GenreResponse](t, env)
	require.Len(t, genres, 1)
	assert.Equal(t, "High Fantasy", genres[0].Name)

	rec, _ = doRequest(t, router, http.MethodDelete, "/api/v1/genres/"+genre.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, rec.Body.Len())

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/genres/"+genre.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Genre not found", message(env))
	assert.Equal(t, "null", string(env.Data))

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/genres", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(env.Data))
}

func TestCatalogAPI_BooksLifecycle(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(&Config{}, newTestSQLiteStore(t)))

	_, env := doRequest(t, router, http.MethodPost, "/api/v1/authors", `{"name":"J. R. R. Tolkien"}`)
	author := decodeData[AuthorResponse](t, env)
	_, env = doRequest(t, router, http.MethodPost, "/api/v1/genres", `{"name":"Fantasy"}`)
	genre := decodeData[GenreResponse](t, env)

	payload := `{"name":"The Hobbit","authorId":"` + author.ID + `","genreId":"` + genre.ID + `","description":"There and back again."}`
	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/books", payload)
	require.Equal(t, http.StatusCreated, rec.Code)
	book := decodeData[BookResponse](t, env)
	assert.Equal(t, "The Hobbit", book.Name)
	assert.Equal(t, "J. R. R. Tolkien", book.AuthorName)
	assert.Equal(t, "Fantasy", book.GenreName)
	assert.Equal(t, "/api/v1/books/"+book.ID, rec.Header().Get("Location"))

	t.Run("genre with books cannot be deleted", func(t *testing.T) {
		rec, env := doRequest(t, router, http.MethodDelete, "/api/v1/genres/"+genre.ID, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, MsgGenreHasBooks, message(env))
		rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/genres/"+genre.ID, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("author with books cannot be deleted", func(t *testing.T) {
		rec, env := doRequest(t, router, http.MethodDelete, "/api/v1/authors/"+author.ID, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, MsgAuthorHasBooks, message(env))
	})

	t.Run("unknown reference is rejected", func(t *testing.T) {
		unknown := uuid.Must(uuid.NewV4()).String()
		body := `{"name":"Emma","authorId":"` + unknown + `","genreId":"` + genre.ID + `"}`
		rec, env := doRequest(t, router, http.MethodPost, "/api/v1/books", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, MsgUnknownReference, message(env))
		rec, env = doRequest(t, router, http.MethodPut, "/api/v1/books/"+book.ID, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, MsgUnknownReference, message(env))
	})

	t.Run("update book replaces description", func(t *testing.T) {
		body := `{"name":"The Hobbit","authorId":"` + author.ID + `","genreId":"` + genre.ID + `"}`
		rec, env := doRequest(t, router, http.MethodPut, "/api/v1.0/books/"+book.ID, body)
		assert.Equal(t, http.StatusOK, rec.Code)
		updated := decodeData[BookResponse](t, env)
		assert.Equal(t, "", updated.Description)
		assert.Equal(t, "Fantasy", updated.GenreName)
	})

	t.Run("list books with names", func(t *testing.T) {
		rec, env := doRequest(t, router, http.MethodGet, "/api/v1/books", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		books := decodeData[[]BookResponse](t, env)
		require.Len(t, books, 1)
		assert.Equal(t, "J. R. R. Tolkien", books[0].AuthorName)
	})

	t.Run("delete book then its genre", func(t *testing.T) {
		rec, _ := doRequest(t, router, http.MethodDelete, "/api/v1/books/"+book.ID, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec, env := doRequest(t, router, http.MethodDelete, "/api/v1/books/"+book.ID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Book not found", message(env))
		rec, _ = doRequest(t, router, http.MethodDelete, "/api/v1/genres/"+genre.ID, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestCatalogAPI_InvalidRequests(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(&Config{}, newTestSQLiteStore(t)))
	missing := uuid.Must(uuid.NewV4()).String()

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		code    int
		message string
		errors  []string
	}{
		{
			name: "blank author name", method: http.MethodPost, path: "/api/v1/authors", body: `{"name":"   "}`,
			code: http.StatusBadRequest, message: MsgInvalidPayload, errors: []string{"name is required"},
		},
		{
			name: "too long genre name", method: http.MethodPost, path: "/api/v1/genres", body: `{"name":"` + strings.Repeat("g", 101) + `"}`,
			code: http.StatusBadRequest, message: MsgInvalidPayload, errors: []string{"name must not exceed 100 characters"},
		},
		{
			name: "malformed json", method: http.MethodPost, path: "/api/v1/genres", body: `{"name":`,
			code: http.StatusBadRequest, message: MsgInvalidPayload,
		},
		{
			name: "missing body", method: http.MethodPost, path: "/api/v1/authors",
			code: http.StatusBadRequest, message: MsgInvalidPayload, errors: []string{"request body is required"},
		},
		{
			name: "book without references", method: http.MethodPost, path: "/api/v1/books", body: `{"name":"Emma"}`,
			code: http.StatusBadRequest, message: MsgInvalidPayload,
			errors: []string{"authorId must reference an existing record", "genreId must reference an existing record"},
		},
		{
			name: "book with malformed reference", method: http.MethodPost, path: "/api/v1/books", body: `{"name":"Emma","authorId":"abc","genreId":"` + missing + `"}`,
			code: http.StatusBadRequest, message: MsgInvalidPayload, errors: []string{"authorId must be a valid uuid"},
		},
		{
			name: "malformed id", method: http.MethodGet, path: "/api/v1/authors/not-a-uuid",
			code: http.StatusBadRequest, message: MsgInvalidID,
		},
		{
			name: "nil id", method: http.MethodDelete, path: "/api/v1/books/" + uuid.Nil.String(),
			code: http.StatusBadRequest, message: MsgInvalidID,
		},
		{
			name: "missing author", method: http.MethodGet, path: "/api/v1/authors/" + missing,
			code: http.StatusNotFound, message: "Author not found",
		},
		{
			name: "update missing genre", method: http.MethodPut, path: "/api/v1/genres/" + missing, body: `{"name":"Poetry"}`,
			code: http.StatusNotFound, message: "Genre not found",
		},
		{
			name: "update missing genre with invalid payload", method: http.MethodPut, path: "/api/v1/genres/" + missing, body: `{"name":""}`,
			code: http.StatusBadRequest, message: MsgInvalidPayload, errors: []string{"name is required"},
		},
		{
			name: "delete missing author", method: http.MethodDelete, path: "/api/v1/authors/" + missing,
			code: http.StatusNotFound, message: "Author not found",
		},
		{
			name: "unknown route", method: http.MethodGet, path: "/api/v2/books",
			code: http.StatusNotFound, message: MsgResourceNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := doRequest(t, router, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.code, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tc.message, message(env))
			if tc.errors != nil {
				assert.Equal(t, tc.errors, env.Errors)
			}
			if tc.message == MsgInvalidPayload {
				assert.NotEmpty(t, env.Errors)
			}
		})
	}

	t.Run("rejected requests never persist", func(t *testing.T) {
		for _, collection := range []string{"authors", "genres", "books"} {
			_, env := doRequest(t, router, http.MethodGet, "/api/v1/"+collection, "")
			assert.Equal(t, "[]", string(env.Data), collection)
		}
	})
}

func TestCatalogAPI_Headers(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(&Config{}, newTestSQLiteStore(t)))

	for _, prefix := range CatalogAPIPrefixes {
		rec, env := doRequest(t, router, http.MethodGet, prefix+"/authors", "")
		assert.Equal(t, http.StatusOK, rec.Code, prefix)
		assert.True(t, env.Success)
		assert.Equal(t, SupportedAPIVersions, rec.Header().Get("api-supported-versions"))
		_, err := uuid.FromString(rec.Header().Get("X-Request-ID"))
		assert.NoError(t, err)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	rec, _ := doRequest(t, router, http.MethodGet, "/status", "")
	assert.Empty(t, rec.Header().Get("api-supported-versions"))
}

func TestCatalogAPI_StorageFailures(t *testing.T) {
	failure := errors.New("connection reset")
	sess := &MockSession{
		AuthorStorage: &MockAuthorStorage{
			ListFunc: func(ctx context.Context) ([]Author, error) { return nil, failure },
		},
		GenreStorage: &MockGenreStorage{
			CreateFunc: func(ctx context.Context, g Genre) error { return failure },
		},
	}
	store := NewMockStorage(sess)
	router := newTestRouter(newTestAPIHandler(&Config{}, store))

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/authors", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MsgInternalFailure, message(env))
	assert.NotContains(t, rec.Body.String(), "connection reset")

	rec, env = doRequest(t, router, http.MethodPost, "/api/v1/genres", `{"name":"Fantasy"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MsgInternalFailure, message(env))
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Equal(t, 2, sess.closed)

	store.SessionFunc = func(ctx context.Context) (Session, error) { return nil, failure }
	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/books", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MsgInternalFailure, message(env))
}

func TestCatalogAPI_CancelledRequest(t *testing.T) {
	sess := &MockSession{AuthorStorage: &MockAuthorStorage{
		ListFunc: func(ctx context.Context) ([]Author, error) { return nil, ctx.Err() },
	}}
	api := newTestAPIHandler(&Config{}, NewMockStorage(sess))
	router := newTestRouter(api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/authors", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Equal(t, uint64(1), api.stats.status[StatusClientClosedRequest])
	assert.Equal(t, 1, sess.closed)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		code    int
		storage string
	}{
		{"storage up", nil, http.StatusOK, "up"},
		{"storage down", errors.New("unreachable"), http.StatusServiceUnavailable, "down"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMockStorage(&MockSession{})
			store.PingFunc = func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return tc.pingErr
			}
			api := newTestAPIHandler(&Config{}, store)
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			req = req.WithContext(context.WithValue(req.Context(), RequestIDContextKey, "abc:123"))
			rec := httptest.NewRecorder()
			api.Status(rec, req, httprouter.Params{})

			assert.Equal(t, tc.code, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "abc:123", body["requestid"])
			assert.Equal(t, tc.storage, body["storage"])
			assert.Equal(t, "up & running since 0 mins", body["status"])
		})
	}
}

func TestIndex(t *testing.T) {
	api := newTestAPIHandler(&Config{}, NewMockStorage(&MockSession{}))
	rec := httptest.NewRecorder()
	api.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil), httprouter.Params{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/status", rec.Header().Get("Location"))
}

func TestMaintenance(t *testing.T) {
	api := newTestAPIHandler(&Config{OpsEndpointsEnable: true}, newTestSQLiteStore(t))
	router := newTestRouter(api)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/maintenance?status=enable&msg=upgrading", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, api.mode.enabled.Load())

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/books", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, MsgServiceInMaintain, message(env))
	assert.Equal(t, []string{"upgrading"}, env.Errors)
	assert.Equal(t, NewMockClocker().Now().Format(time.RFC1123), decodeData[map[string]string](t, env)["since"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/maintenance?status=disable", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/books", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/maintenance?status=pause", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStatistics(t *testing.T) {
	api := newTestAPIHandler(&Config{OpsEndpointsEnable: true}, newTestSQLiteStore(t))
	router := newTestRouter(api)
	doRequest(t, router, http.MethodGet, "/api/v1/genres", "")
	doRequest(t, router, http.MethodGet, "/api/v1/genres/"+uuid.Must(uuid.NewV4()).String(), "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&body))
	assert.Equal(t, float64(2), body["called"])
	assert.Equal(t, SQLiteDriver, body["storage.driver"])
	assert.Equal(t, map[string]interface{}{"200": float64(1), "404": float64(1)}, body["status"])
}
