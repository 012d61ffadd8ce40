package resource

import (
	"fmt"

	"github.com/pkg/errors"
)

// NewNotFoundError is used when a resource is not found.
func NewNotFoundError(name Name) error {
	return errors.Errorf("resource %q not found", name)
}

// DependencyNotFoundError is used when a resource is not found in a dependencies.
func DependencyNotFoundError(name Name) error {
	return errors.Errorf("resource %q not found; is it configured as a dependency?", name)
}

// NewNotRegisteredError is used when no constructor is registered for an api and model.
func NewNotRegisteredError(api API, model Model) error {
	return errors.Errorf("no resource registered for api %q and model %q", api, model)
}

// MustRebuildError is returned when a resource cannot be reconfigured in place.
type MustRebuildError struct {
	Name Name
}

// NewMustRebuildError returns an error indicating that the given resource must be rebuilt.
func NewMustRebuildError(name Name) error {
	return &MustRebuildError{Name: name}
}

func (e *MustRebuildError) Error() string {
	return fmt.Sprintf("cannot reconfigure %q; must rebuild", e.Name)
}
