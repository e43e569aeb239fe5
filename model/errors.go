package model

import (
	"errors"
	"fmt"
	"net/http"
)

// GraphError is the typed error taxonomy surfaced at the service
// boundary. Each kind maps to one HTTP status.
type GraphError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// ErrorKind classifies a GraphError.
type ErrorKind int

const (
	ErrBackend ErrorKind = iota
	ErrEmbedding
	ErrDatabase
	ErrInvalidRequest
	ErrInvalidEntityType
	ErrInvalidRelationshipType
	ErrEntityNotFound
	ErrServiceUnavailable
	ErrConfig
	ErrInternal
)

func (e *GraphError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to its HTTP status.
func (e *GraphError) StatusCode() int {
	switch e.Kind {
	case ErrEntityNotFound:
		return http.StatusNotFound
	case ErrInvalidRequest, ErrInvalidEntityType, ErrInvalidRelationshipType:
		return http.StatusBadRequest
	case ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewGraphError creates a typed error wrapping an underlying cause.
func NewGraphError(kind ErrorKind, message string, err error) *GraphError {
	return &GraphError{Kind: kind, Message: message, Err: err}
}

// ErrUnavailable reports that a backend the plan requires is absent.
func ErrUnavailable(component string) *GraphError {
	return &GraphError{Kind: ErrServiceUnavailable, Message: component + " not available"}
}

// AsGraphError extracts a GraphError from an error chain.
func AsGraphError(err error) (*GraphError, bool) {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
