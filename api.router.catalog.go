package main

import (
	"github.com/julienschmidt/httprouter"
)

// CatalogAPIPrefixes lists the mount points of the catalog api.
// The unqualified major version serves the default 1.0 version.
var CatalogAPIPrefixes = []string{"/api/v1", "/api/v1.0"}

// SetupCatalogRoutes injects the authors, genres and books endpoints.
func (api *APIHandler) SetupCatalogRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	for _, prefix := range CatalogAPIPrefixes {
		router.GET(prefix+"/authors", m.catalog(api.ListAuthors))
		router.GET(prefix+"/authors/:id", m.catalog(api.GetAuthor))
		router.POST(prefix+"/authors", m.catalog(api.CreateAuthor))
		router.PUT(prefix+"/authors/:id", m.catalog(api.UpdateAuthor))
		router.DELETE(prefix+"/authors/:id", m.catalog(api.DeleteAuthor))

		router.GET(prefix+"/genres", m.catalog(api.ListGenres))
		router.GET(prefix+"/genres/:id", m.catalog(api.GetGenre))
		router.POST(prefix+"/genres", m.catalog(api.CreateGenre))
		router.PUT(prefix+"/genres/:id", m.catalog(api.UpdateGenre))
		router.DELETE(prefix+"/genres/:id", m.catalog(api.DeleteGenre))

		router.GET(prefix+"/books", m.catalog(api.ListBooks))
		router.GET(prefix+"/books/:id", m.catalog(api.GetBook))
		router.POST(prefix+"/books", m.catalog(api.CreateBook))
		router.PUT(prefix+"/books/:id", m.catalog(api.UpdateBook))
		router.DELETE(prefix+"/books/:id", m.catalog(api.DeleteBook))
	}
	return router
}
