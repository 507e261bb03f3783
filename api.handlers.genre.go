package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ListGenres godoc
// @Summary      List genres
// @Tags         genres
// @Produce      json
// @Success      200  {object}  APIResponse{data=[]GenreResponse}
// @Failure      500  {object}  APIResponse
// @Router       /genres [get]
func (api *APIHandler) ListGenres(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "list genres", err)
		return
	}
	genres, err := cs.ListGenres(r.Context())
	if err != nil {
		api.fail(w, r, "list genres", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to get all genres", zap.Int("total", len(genres)))
	api.respond(w, r, http.StatusOK, SuccessResponse(NewGenresResponse(genres)))
}

// GetGenre godoc
// @Summary      Get a genre
// @Tags         genres
// @Produce      json
// @Param        id   path      string  true  "Genre ID"
// @Success      200  {object}  APIResponse{data=GenreResponse}
// @Failure      400  {object}  APIResponse
// @Failure      404  {object}  APIResponse
// @Router       /genres/{id} [get]
func (api *APIHandler) GetGenre(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.parseID(w, r, ps)
	if !ok {
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "get genre", err)
		return
	}
	genre, err := cs.GetGenre(r.Context(), id)
	if err != nil {
		api.fail(w, r, "get genre", err)
		return
	}
	api.respond(w, r, http.StatusOK, SuccessResponse(NewGenreResponse(genre)))
}

// CreateGenre godoc
// @Summary      Create a genre
// @Tags         genres
// @Accept       json
// @Produce      json
// @Param        payload  body      NamePayload  true  "Genre"
// @Success      201      {object}  APIResponse{data=GenreResponse}
// @Failure      400      {object}  APIResponse
// @Router       /genres [post]
func (api *APIHandler) CreateGenre(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload NamePayload
	if err := DecodeRequestBody(r, &payload); err != nil {
		api.rejectPayload(w, r, err)
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "create genre", err)
		return
	}
	genre, err := cs.CreateGenre(r.Context(), payload.Name)
	if err != nil {
		api.fail(w, r, "create genre", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to create genre", zap.String("genre.id", genre.ID.String()))
	api.created(w, r, "genres", genre.ID, NewGenreResponse(genre))
}

// UpdateGenre godoc
// @Summary      Rename a genre
// @Tags         genres
// @Accept       json
// @Produce      json
// @Param        id       path      string       true  "Genre ID"
// @Param        payload  body      NamePayload  true  "Genre"
// @Success      200      {object}  APIResponse{data=GenreResponse}
// @Failure      400      {object}  APIResponse
// @Failure      404      {object}  APIResponse
// @Router       /genres/{id} [put]
func (api *APIHandler) UpdateGenre(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
		api.fail(w, r, "update genre", err)
		return
	}
	genre, err := cs.UpdateGenre(r.Context(), id, payload.Name)
	if err != nil {
		api.fail(w, r, "update genre", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to update genre", zap.String("genre.id", genre.ID.String()))
	api.respond(w, r, http.StatusOK, SuccessResponse(NewGenreResponse(genre)))
}

// DeleteGenre godoc
// @Summary      Delete a genre without books
// @Tags         genres
// @Param        id   path  string  true  "Genre ID"
// @Success      204
// @Failure      400  {object}  APIResponse
// @Failure      404  {object}  APIResponse
// @Router       /genres/{id} [delete]
func (api *APIHandler) DeleteGenre(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.parseID(w, r, ps)
	if !ok {
		return
	}
	cs, err := api.catalog(r.Context())
	if err != nil {
		api.fail(w, r, "delete genre", err)
		return
	}
	if err = cs.DeleteGenre(r.Context(), id); err != nil {
		api.fail(w, r, "delete genre", err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to delete genre", zap.String("genre.id", id.String()))
	api.noContent(w, r)
}
