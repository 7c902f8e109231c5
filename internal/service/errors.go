package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cinereview/internal/repository"
)

var (
	// ErrInvalidCredentials covers both an unknown login and a wrong
	// password so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTaken is returned when signup collides with an existing email or username.
	ErrTaken = errors.New("email or username taken")
	// ErrForbidden is returned when an identity may not touch a resource.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyPresent is returned when a movie is already in a user's list.
	ErrAlreadyPresent = errors.New("already present")

	// Not-found errors name the missing entity and all match
	// repository.ErrNotFound under errors.Is.
	ErrUserNotFound   = fmt.Errorf("user %w", repository.ErrNotFound)
	ErrMovieNotFound  = fmt.Errorf("movie %w", repository.ErrNotFound)
	ErrReviewNotFound = fmt.Errorf("review %w", repository.ErrNotFound)
)

// ValidationError carries a client-facing message for a rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// notFound swaps a bare repository.ErrNotFound for the entity-specific one.
func notFound(err, as error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return as
	}
	return err
}

// ignoreNotFound drops not-found errors from cleanup steps whose target is
// already gone.
func ignoreNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
