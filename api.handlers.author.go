package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ListAuthors godoc
// @Summary      List authors
// @Tags         authors
// @Produce      json
// @Success      200  {object}  APIResponse{data=[]AuthorResponse}
// @Failure      500  {object}  APIResponse
// @Router       /authors [get]
func (api *APIHandler) ListAuthors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "list authors", err)
		return
	}
	authors, err := cs.ListAuthors(r.Context())
	if err != nil {
		api.fail(w, r, "list authors", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to get all authors", zap.Int("total", len(authors)))
	api.respond(w, r, http.StatusOK, SuccessResponse(NewAuthorsResponse(authors)))
}

// GetAuthor godoc
// @Summary      Get an author
// @Tags         authors
// @Produce      json
// @Param        id   path      string  true  "Author ID"
// @Success      200  {object}  APIResponse{data=AuthorResponse}
// @Failure      400  {object}  APIResponse
// @Failure      404  {object}  APIResponse
// @Router       /authors/{id} [get]
func (api *APIHandler) GetAuthor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.parseID(w, r, ps)
	if !ok {
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "get author", err)
		return
	}
	author, err := cs.GetAuthor(r.Context(), id)
	if err != nil {
		api.fail(w, r, "get author", err)
		return
	}
	api.respond(w, r, http.StatusOK, SuccessResponse(NewAuthorResponse(author)))
}

// CreateAuthor godoc
// @Summary      Create an author
// @Tags         authors
// @Accept       json
// @Produce      json
// @Param        payload  body      NamePayload  true  "Author"
// @Success      201      {object}  APIResponse{data=AuthorResponse}
// @Failure      400      {object}  APIResponse
// @Router       /authors [post]
func (api *APIHandler) CreateAuthor(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload NamePayload
	if err := DecodeRequestBody(r, &payload); err != nil {
		api.rejectPayload(w, r, err)
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "create author", err)
		return
	}
	author, err := cs.CreateAuthor(r.Context(), payload.Name)
	if err != nil {
		api.fail(w, r, "create author", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to create author", zap.String("author.id", author.ID.String()))
	api.created(w, r, "authors", author.ID, NewAuthorResponse(author))
}

// UpdateAuthor godoc
// @Summary      Rename an author
// @Tags         authors
// @Accept       json
// @Produce      json
// @Param        id       path      string       true  "Author ID"
// @Param        payload  body      NamePayload  true  "Author"
// @Success      200      {object}  APIResponse{data=AuthorResponse}
// @Failure      400      {object}  APIResponse
// @Failure      404      {object}  APIResponse
// @Router       /authors/{id} [put]
func (api *APIHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.parseID(w, r, ps)
	if !ok {
		return
	}
	var payload NamePayload
	if err := DecodeRequestBody(r, &payload); err != nil {
		api.rejectPayload(w, r, err)
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "update author", err)
		return
	}
	author, err := cs.UpdateAuthor(r.Context(), id, payload.Name)
	if err != nil {
		api.fail(w, r, "update author", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to update author", zap.String("author.id", author.ID.String()))
	api.respond(w, r, http.StatusOK, SuccessResponse(NewAuthorResponse(author)))
}

// DeleteAuthor godoc
// @Summary      Delete an author without books
// @Tags         authors
// @Param        id   path  string  true  "Author ID"
// @Success      204
// @Failure      400  {object}  APIResponse
// @Failure      404  {object}  APIResponse
// @Router       /authors/{id} [delete]
func (api *APIHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.parseID(w, r, ps)
	if !ok {
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "delete author", err)
		return
	}
	if err = cs.DeleteAuthor(r.Context(), id); err != nil {
		api.fail(w, r, "delete author", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to delete author", zap.String("author.id", id.String()))
	api.noContent(w, r)
}
