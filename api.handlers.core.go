package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Messages sent back in the envelope of failed catalog requests.
const (
	MsgInvalidPayload    = "Invalid request payload."
	MsgInvalidID         = "Invalid identifier."
	MsgUnknownReference  = "Author or genre does not exist."
	MsgGenreHasBooks     = "Cannot delete genre with books."
	MsgAuthorHasBooks    = "Cannot delete author with books."
	MsgInternalFailure   = "Failed to process the request."
	MsgResourceNotFound  = "Resource not found."
	MsgServiceInMaintain = "Service under maintenance."
)

var errNoSession = errors.New("handler: no storage session in request context")

// APIHandler defines the API handler.
type APIHandler struct {
	logger     *zap.Logger
	config     *Config
	stats      *Statistics
	mode       *Maintenance
	clock      Clocker
	idsHandler UIDHandler
	store      Storage
}

// NewAPIHandler provides a new instance of APIHandler.
func NewAPIHandler(logger *zap.Logger, config *Config, stats *Statistics, clock Clocker, idsHandler UIDHandler, store Storage) *APIHandler {
	m := &Maintenance{}
	m.enabled.Store(false)
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	return &APIHandler{
		logger:     logger,
		config:     config,
		stats:      stats,
		mode:       m,
		clock:      clock,
		idsHandler: idsHandler,
		store:      store,
	}
}

// catalog provides the catalog service bound to the request storage session.
func (api *APIHandler) catalog(ctx context.Context) (CatalogServiceProvider, error) {
	sess, ok := GetSessionFromContext(ctx)
	if !ok {
		return nil, errNoSession
	}
	return NewCatalogService(api.GetLoggerFromContext(ctx), api.clock, api.idsHandler, sess), nil
}

// parseID reads the id path parameter. It sends the 400 response itself
// when the value is not a valid identifier.
func (api *APIHandler) parseID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (uuid.UUID, bool) {
	raw := ps.ByName("id")
	id, ok := api.idsHandler.Parse(raw)
	if !ok {
		api.GetLoggerFromContext(r.Context()).Info("invalid identifier", zap.String("id", raw))
		api.respond(w, r, http.StatusBadRequest, FailureResponse(MsgInvalidID, []string{fmt.Sprintf("%q is not a valid identifier", raw)}))
	}
	return id, ok
}

// respond sends the envelope and logs a failed write.
func (api *APIHandler) respond(w http.ResponseWriter, r *http.Request, status int, resp *APIResponse) {
	if err := WriteResponse(r.Context(), w, status, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send response", zap.Int("status", status), zap.Error(err))
	}
}

// created sends a 201 response with the location of the new resource.
func (api *APIHandler) created(w http.ResponseWriter, r *http.Request, collection string, id uuid.UUID, data interface{}) {
	w.Header().Set("Location", fmt.Sprintf("/api/v1/%s/%s", collection, id))
	api.respond(w, r, http.StatusCreated, SuccessResponse(data))
}

func (api *APIHandler) noContent(w http.ResponseWriter, r *http.Request) {
	if err := WriteNoContent(r.Context(), w); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send response", zap.Int("status", http.StatusNoContent), zap.Error(err))
	}
}

// rejectPayload answers a request whose body could not be used.
func (api *APIHandler) rejectPayload(w http.ResponseWriter, r *http.Request, err error) {
	api.GetLoggerFromContext(r.Context()).Info("invalid request payload", zap.Error(err))
	api.respond(w, r, http.StatusBadRequest, FailureResponse(MsgInvalidPayload, payloadMessages(err)))
}

// fail translates a catalog error into its response.
func (api *APIHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("operation", op))
	var status int
	var message string
	switch {
	case errors.Is(err, ErrAuthorNotFound):
		status, message = http.StatusNotFound, "Author not found"
	case errors.Is(err, ErrGenreNotFound):
		status, message = http.StatusNotFound, "Genre not found"
	case errors.Is(err, ErrBookNotFound):
		status, message = http.StatusNotFound, "Book not found"
	case errors.Is(err, ErrInvalidEntity):
		api.rejectPayload(w, r, err)
		return
	case errors.Is(err, ErrUnknownReference):
		status, message = http.StatusBadRequest, MsgUnknownReference
	case errors.Is(err, ErrGenreHasBooks):
		status, message = http.StatusBadRequest, MsgGenreHasBooks
	case errors.Is(err, ErrAuthorHasBooks):
		status, message = http.StatusBadRequest, MsgAuthorHasBooks
	default:
		logger.Error("failed to process request", zap.Error(err))
		api.respond(w, r, http.StatusInternalServerError, FailureResponse(MsgInternalFailure, nil))
		return
	}
	logger.Info("request rejected", zap.Int("status", status), zap.Error(err))
	api.respond(w, r, status, FailureResponse(message, nil))
}

// NotFound provides the handler of unknown routes.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.respond(w, r, http.StatusNotFound, FailureResponse(MsgResourceNotFound, nil))
	})
}
