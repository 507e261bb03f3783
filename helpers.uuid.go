package main

import (
	"github.com/gofrs/uuid"
)

var _ UIDHandler = (*IDsHandler)(nil) // ensure IDsHandler implements UIDHandler.

// UIDHandler is an interface for generating and parsing ids.
type UIDHandler interface {
	Generate() uuid.UUID
	Parse(id string) (uuid.UUID, bool)
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random (version 4) unique identifier.
func (idh *IDsHandler) Generate() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// Parse converts a path parameter into an id. The nil uuid is rejected
// since it never identifies a record.
func (idh *IDsHandler) Parse(id string) (uuid.UUID, bool) {
	u, err := uuid.FromString(id)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, false
	}
	return u, true
}
