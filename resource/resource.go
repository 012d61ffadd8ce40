// Package resource contains the Resource interface, resource names and the registry that maps
// an API and model to a constructor.
package resource

import (
	"context"

	"github.com/pkg/errors"
)

// A Resource is the fundamental building block of a robot; it is either a component or a service
// that is accessible through the registry. Resources are built from a Config and must be closed.
type Resource interface {
	// Name returns the associated fully qualified name of the resource.
	Name() Name

	// DoCommand sends/receives arbitrary data.
	DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error)

	// Close must safely shut down the resource and prevent further use.
	// Close must be idempotent.
	Close(ctx context.Context) error
}

// Named is to be embedded by any resource that just needs to return a name.
type Named interface {
	Name() Name
	DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error)
}

type selfNamed struct {
	name Name
}

// Name returns the name of the resource.
func (s selfNamed) Name() Name {
	return s.name
}

// DoCommand returns an unimplemented error.
func (s selfNamed) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	return nil, errors.New("DoCommand unimplemented")
}

// AsNamed is used to embed the name in a resource.
func (n Name) AsNamed() Named {
	return selfNamed{name: n}
}

// TriviallyCloseable is to be embedded by any resource that does not care about handling Closes.
type TriviallyCloseable struct{}

// Close always returns no error.
func (t TriviallyCloseable) Close(ctx context.Context) error {
	return nil
}

// AlwaysRebuild is to be embedded by any resource that must be rebuilt instead of reconfigured
// in place.
type AlwaysRebuild struct{}

// Reconfigure always returns a must rebuild error.
func (a AlwaysRebuild) Reconfigure(ctx context.Context, deps Dependencies, conf Config) error {
	return NewMustRebuildError(conf.ResourceName())
}
