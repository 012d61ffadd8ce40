package resource

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

var validNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][-\w]*$`)

// Name represents a known component/service representation of a robot.
type Name struct {
	API  API
	Name string
}

// NewName creates a new resource Name.
func NewName(api API, name string) Name {
	return Name{API: api, Name: name}
}

// Validate ensures that important fields exist and are valid.
func (n Name) Validate() error {
	if n.Name == "" {
		return errors.New("name field for resource is empty")
	}
	if !validNameRegex.MatchString(n.Name) {
		return errors.Errorf("name %q must start with a letter or number and only contain letters, numbers, dashes, and underscores",
			n.Name)
	}
	return n.API.Validate()
}

// String returns the fully qualified name for the resource.
func (n Name) String() string {
	return fmt.Sprintf("%s/%s", n.API, n.Name)
}
