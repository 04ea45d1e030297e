package uavobj

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInstance indicates the instance doesn't exist and can't be created.
	ErrNoInstance = errors.New("no such instance")
	// ErrSizeMismatch indicates the data length differs from the object size.
	ErrSizeMismatch = errors.New("data size mismatch")
	// ErrDuplicateObject indicates an object ID or name is already registered.
	ErrDuplicateObject = errors.New("duplicate object")
)

// DefinitionError reports an invalid object definition.
type DefinitionError struct {
	Object string
	Reason string
}

// Error implements error.
func (e *DefinitionError) Error() string {
	return fmt.Sprintf("object %q: %s", e.Object, e.Reason)
}

// FieldError reports an invalid field value.
type FieldError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}
