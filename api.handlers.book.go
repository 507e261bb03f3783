package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ListBooks godoc
// @Summary      List books with their author and genre names
// @Tags         books
// @Produce      json
// @Success      200  {object}  APIResponse{data=[]BookResponse}
// @Failure      500  {object}  APIResponse
// @Router       /books [get]
func (api *APIHandler) ListBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "list books", err)
		return
	}
	books, err := cs.ListBooks(r.Context())
	if err != nil {
		api.fail(w, r, "list books", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to get all books", zap.Int("total", len(books)))
	api.respond(w, r, http.StatusOK, SuccessResponse(NewBooksResponse(books)))
}

// GetBook godoc
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "Book ID"
// @Success      200  {object}  APIResponse{data=BookResponse}
// @Failure      400  {object}  APIResponse
// @Failure      404  {object}  APIResponse
// @Router       /books/{id} [get]
func (api *APIHandler) GetBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.parseID(w, r, ps)
	if !ok {
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "get book", err)
		return
	}
	book, err := cs.GetBook(r.Context(), id)
	if err != nil {
		api.fail(w, r, "get book", err)
		return
	}
	api.respond(w, r, http.StatusOK, SuccessResponse(NewBookResponse(book)))
}

// CreateBook godoc
// @Summary      Create a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        payload  body      BookPayload  true  "Book"
// @Success      201      {object}  APIResponse{data=BookResponse}
// @Failure      400      {object}  APIResponse
// @Router       /books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload BookPayload
	if err := DecodeRequestBody(r, &payload); err != nil {
		api.rejectPayload(w, r, err)
		return
	}
	in, err := payload.ToInput()
	if err != nil {
		api.rejectPayload(w, r, err)
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "create book", err)
		return
	}
	book, err := cs.CreateBook(r.Context(), in)
	if err != nil {
		api.fail(w, r, "create book", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to create book", zap.String("book.id", book.ID.String()))
	api.created(w, r, "books", book.ID, NewBookResponse(book))
}

// UpdateBook godoc
// @Summary      Update a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id       path      string       true  "Book ID"
// @Param        payload  body      BookPayload  true  "Book"
// @Success      200      {object}  APIResponse{data=BookResponse}
// @Failure      400      {object}  APIResponse
// @Failure      404      {object}  APIResponse
// @Router       /books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.parseID(w, r, ps)
	if !ok {
		return
	}
	var payload BookPayload
	if err := DecodeRequestBody(r, &payload); err != nil {
		api.rejectPayload(w, r, err)
		return
	}
	in, err := payload.ToInput()
	if err != nil {
		api.rejectPayload(w, r, err)
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "update book", err)
		return
	}
	book, err := cs.UpdateBook(r.Context(), id, in)
	if err != nil {
		api.fail(w, r, "update book", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to update book", zap.String("book.id", book.ID.String()))
	api.respond(w, r, http.StatusOK, SuccessResponse(NewBookResponse(book)))
}

// DeleteBook godoc
// @Summary      Delete a book
// @Tags         books
// @Param        id   path  string  true  "Book ID"
// @Success      204
// @Failure      400  {object}  APIResponse
// @Failure      404  {object}  APIResponse
// @Router       /books/{id} [delete]
func (api *APIHandler) DeleteBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.parseID(w, r, ps)
	if !ok {
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "delete book", err)
		return
	}
	if err = cs.DeleteBook(r.Context(), id); err != nil {
		api.fail(w, r, "delete book", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to delete book", zap.String("book.id", id.String()))
	api.noContent(w, r)
}
