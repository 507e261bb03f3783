package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupRoutes(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		method  string
		path    string
		handled bool
	}{
		{"index", &Config{}, http.MethodGet, "/", true},
		{"status", &Config{}, http.MethodGet, "/status", true},
		{"list authors", &Config{}, http.MethodGet, "/api/v1/authors", true},
		{"get genre", &Config{}, http.MethodGet, "/api/v1/genres/:id", true},
		{"create book", &Config{}, http.MethodPost, "/api/v1/books", true},
		{"update book", &Config{}, http.MethodPut, "/api/v1/books/:id", true},
		{"delete author on full version", &Config{}, http.MethodDelete, "/api/v1.0/authors/:id", true},
		{"patch book", &Config{}, http.MethodPatch, "/api/v1/books/:id", false},
		{"unknown version", &Config{}, http.MethodGet, "/api/v2/books", false},
		{"ops disabled", &Config{}, http.MethodGet, "/ops/stats", false},
		{"ops enabled", &Config{OpsEndpointsEnable: true}, http.MethodGet, "/ops/stats", true},
		{"ops maintenance", &Config{OpsEndpointsEnable: true}, http.MethodGet, "/ops/maintenance", true},
		{"profiler disabled", &Config{OpsEndpointsEnable: true}, http.MethodGet, "/ops/debug/pprof/heap", false},
		{"profiler enabled", &Config{OpsEndpointsEnable: true, ProfilerEndpointsEnable: true}, http.MethodGet, "/ops/debug/pprof/heap", true},
		{"swagger disabled", &Config{}, http.MethodGet, "/swagger/*any", false},
		{"swagger enabled", &Config{SwaggerEnable: true}, http.MethodGet, "/swagger/*any", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(newTestAPIHandler(tc.config, NewMockStorage(&MockSession{})))
			handle, _, _ := router.Lookup(tc.method, tc.path)
			if tc.handled {
				assert.NotNil(t, handle)
			} else {
				assert.Nil(t, handle)
			}
		})
	}
}

func TestSetupRoutes_NotFound(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(&Config{}, NewMockStorage(&MockSession{})))
	assert.NotNil(t, router.NotFound)
	assert.True(t, router.RedirectTrailingSlash)
}
