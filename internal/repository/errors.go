// Package repository defines the MongoDB-backed stores and the error values
// they share. Handlers and services use these sentinels to tell a missing
// document from a uniqueness violation from an infrastructure failure.
package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ErrNotFound is returned when the addressed document does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique index, such as
// a second user with an existing username or email. Handlers should
// translate this into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate key")

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}
