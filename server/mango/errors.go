package mango

import (
	"errors"
	"fmt"
)

// NotFoundError is implemented by errors returned when a requested entity
// does not exist in the datastore.
type NotFoundError interface {
	error
	IsNotFound() bool
}

// IsNotFound reports whether err (or any error it wraps) marks a missing
// entity.
func IsNotFound(err error) bool {
	var nfe NotFoundError
	if errors.As(err, &nfe) {
		return nfe.IsNotFound()
	}
	return false
}

// AlreadyExistsError is implemented by errors returned when creating an
// entity would violate a uniqueness constraint.
type AlreadyExistsError interface {
	error
	IsExists() bool
}

// IsExists reports whether err (or any error it wraps) marks a uniqueness
// violation.
func IsExists(err error) bool {
	var eee AlreadyExistsError
	if errors.As(err, &eee) {
		return eee.IsExists()
	}
	return false
}

type notFoundError struct {
	kind string
}

// NewNotFoundError returns an error marking the named entity kind as
// missing.
func NewNotFoundError(kind string) error {
	return &notFoundError{kind: kind}
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s was not found in the datastore", e.kind)
}

func (e *notFoundError) IsNotFound() bool { return true }

// InvalidArgumentError indicates an invalid administrator-supplied value.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

// NewInvalidArgumentError returns an error describing an invalid value for
// the named argument.
func NewInvalidArgumentError(name, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Name: name, Reason: reason}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

type existsError struct {
	kind string
}

// NewAlreadyExistsError returns an error marking a uniqueness violation on
// the named entity kind.
func NewAlreadyExistsError(kind string) error {
	return &existsError{kind: kind}
}

func (e *existsError) Error() string {
	return fmt.Sprintf("%s already exists in the datastore", e.kind)
}

func (e *existsError) IsExists() bool { return true }
