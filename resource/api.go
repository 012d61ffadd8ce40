package resource

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Placeholder definitions for a few known constants.
const (
	APINamespaceRDK      = APINamespace("rdk")
	APITypeComponentName = "component"
)

var (
	reservedChars     = [...]string{":", "+"}
	apiRegexValidator = regexp.MustCompile(`^([\w-]+):([\w-]+):([\w-]+)$`)
)

// APINamespace identifies the namespaces robot resources can live in.
type APINamespace string

// APIType represents a known component/service type of a robot.
type APIType struct {
	Namespace APINamespace `json:"namespace"`
	Name      string       `json:"type"`
}

// WithComponentType returns an API with the given component type under this namespace.
func (n APINamespace) WithComponentType(subtypeName string) API {
	return API{
		Type:        APIType{Namespace: n, Name: APITypeComponentName},
		SubtypeName: subtypeName,
	}
}

// Validate ensures that important fields exist and are valid.
func (t APIType) Validate() error {
	if t.Namespace == "" {
		return errors.New("namespace field for resource missing or invalid")
	}
	if t.Name == "" {
		return errors.New("type field for resource missing or invalid")
	}
	if err := ContainsReservedCharacter(string(t.Namespace)); err != nil {
		return err
	}
	return ContainsReservedCharacter(t.Name)
}

// String returns the resource type string for the component.
func (t APIType) String() string {
	return fmt.Sprintf("%s:%s", t.Namespace, t.Name)
}

// API represents a known component/service (resource) API.
type API struct {
	Type        APIType
	SubtypeName string `json:"subtype"`
}

// IsComponent returns if this API is for a component.
func (a API) IsComponent() bool {
	return a.Type.Name == APITypeComponentName
}

// Validate ensures that important fields exist and are valid.
func (a API) Validate() error {
	if err := a.Type.Validate(); err != nil {
		return err
	}
	if a.SubtypeName == "" {
		return errors.New("subtype field for resource missing or invalid")
	}
	return ContainsReservedCharacter(a.SubtypeName)
}

// String returns the resource api string for the component.
func (a API) String() string {
	return fmt.Sprintf("%s:%s", a.Type, a.SubtypeName)
}

// NewAPIFromString creates a new API from a fully qualified string in the format namespace:type:subtype.
func NewAPIFromString(apiStr string) (API, error) {
	if !apiRegexValidator.MatchString(apiStr) {
		return API{}, errors.Errorf("string %q is not a fully qualified resource api", apiStr)
	}
	matches := apiRegexValidator.FindStringSubmatch(apiStr)
	return API{
		Type:        APIType{Namespace: APINamespace(matches[1]), Name: matches[2]},
		SubtypeName: matches[3],
	}, nil
}

// MarshalText encodes the API as its string form.
func (a API) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses an API from its string form.
func (a *API) UnmarshalText(text []byte) error {
	parsed, err := NewAPIFromString(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ContainsReservedCharacter returns error if string contains a reserved character.
func ContainsReservedCharacter(val string) error {
	for _, char := range reservedChars {
		if strings.Contains(val, char) {
			return errors.Errorf("reserved character %s used in name:%q", char, val)
		}
	}
	return nil
}
