package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

// ErrEmptyCollection is returned by FetchAll when a collection holds no
// documents. Callers treat it as a not-found condition.
var ErrEmptyCollection = errors.New("collection is empty")

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Message: msg}
}

func ErrTooManyRequests(msg string) error {
	return ServiceError{Status: http.StatusTooManyRequests, Message: msg}
}

// emptyCollectionError keeps the not-found status while still matching
// ErrEmptyCollection with errors.Is.
type emptyCollectionError struct {
	ServiceError
}

func (e emptyCollectionError) Unwrap() error { return ErrEmptyCollection }

func errEmpty(collection Collection) error {
	return emptyCollectionError{ServiceError{
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("No documents found in collection: %s", collection),
	}}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// AsServiceError extracts a ServiceError from an error chain.
func AsServiceError(err error) (ServiceError, bool) {
	var empty emptyCollectionError
	if errors.As(err, &empty) {
		return empty.ServiceError, true
	}
	var serr ServiceError
	if errors.As(err, &serr) {
		return serr, true
	}
	return ServiceError{}, false
}
