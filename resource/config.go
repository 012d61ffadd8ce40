package resource

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/touchsense/utils"
)

// A Config describes the configuration of a resource.
type Config struct {
	Name       string             `json:"name"`
	API        API                `json:"api"`
	Model      Model              `json:"model"`
	DependsOn  []string           `json:"depends_on,omitempty"`
	Attributes utils.AttributeMap `json:"attributes"`

	ConvertedAttributes ConfigValidator `json:"-"`
}

// NativeConfig returns the native config from the given config via its
// converted attributes.
func NativeConfig[T any](conf Config) (T, error) {
	return utils.AssertType[T](conf.ConvertedAttributes)
}

// ResourceName returns the Name for the resource.
func (conf *Config) ResourceName() Name {
	return NewName(conf.API, conf.Name)
}

// Validate ensures all parts of the config are valid and returns dependencies.
func (conf *Config) Validate(path string) ([]string, error) {
	if conf.Name == "" {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if err := conf.ResourceName().Validate(); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	if err := conf.Model.Validate(); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	deps := append([]string(nil), conf.DependsOn...)
	if conf.ConvertedAttributes != nil {
		validatedDeps, err := conf.ConvertedAttributes.Validate(path)
		if err != nil {
			return nil, err
		}
		deps = append(deps, validatedDeps...)
	}
	return deps, nil
}

// A ConfigValidator validates a configuration and also
// returns dependencies that were implicitly discovered.
type ConfigValidator interface {
	Validate(path string) ([]string, error)
}

// TransformAttributeMap uses an attribute map to transform attributes to the prescribed format.
func TransformAttributeMap[T any](attributes utils.AttributeMap) (T, error) {
	var out T

	var forResult interface{}

	toT := reflect.TypeOf(out)
	if toT == nil {
		// nothing to transform
		return out, nil
	}
	if toT.Kind() == reflect.Ptr {
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("failed to allocate default config type %T", out)
		}
		forResult = out
	} else {
		forResult = &out
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           forResult,
		WeaklyTypedInput: false,
		ErrorUnused:      true,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return out, errors.Wrap(err, "error decoding attributes")
	}
	return out, nil
}
