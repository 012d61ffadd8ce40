package resource

import (
	"github.com/pkg/errors"

	"go.viam.com/touchsense/utils"
)

// Dependencies are a set of resources that a resource requires for reconfiguration.
type Dependencies map[Name]Resource

// Lookup searches for a given dependency by name.
func (d Dependencies) Lookup(name Name) (Resource, error) {
	res, ok := d[name]
	if !ok {
		return nil, DependencyNotFoundError(name)
	}
	return res, nil
}

// FromDependencies returns a named resource from the given dependencies, asserted to the given type.
func FromDependencies[T Resource](deps Dependencies, name Name) (T, error) {
	var zero T
	res, err := deps.Lookup(name)
	if err != nil {
		return zero, err
	}
	typed, err := utils.AssertType[T](res)
	if err != nil {
		return zero, errors.Wrapf(err, "dependency %q", name)
	}
	return typed, nil
}
