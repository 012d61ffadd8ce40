package utils

import (
	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError[ExpectedT any](actual interface{}) error {
	return errors.Errorf("expected %T but got %T", *new(ExpectedT), actual)
}

// NewUnimplementedInterfaceError is used when there is a failed interface check.
func NewUnimplementedInterfaceError[ExpectedT any](actual interface{}) error {
	return errors.Errorf("expected implementation of %T but got %T", (*ExpectedT)(nil), actual)
}
