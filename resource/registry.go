package resource

import (
	"context"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"go.viam.com/touchsense/logging"
	"go.viam.com/touchsense/utils"
)

type (
	// An APIModel is the tuple that identifies a model implementing an API.
	APIModel struct {
		API   API
		Model Model
	}

	// A Create creates a resource from a collection of dependencies and a given config.
	Create[ResourceT Resource] func(
		ctx context.Context,
		deps Dependencies,
		conf Config,
		logger logging.Logger,
	) (ResourceT, error)

	// An AttributeMapConverter converts an attribute map into a native config type for a resource.
	AttributeMapConverter[ConfigT any] func(attributes utils.AttributeMap) (ConfigT, error)
)

// A Registration stores construction info for a resource. A single constructor is mandatory.
type Registration[ResourceT Resource, ConfigT any] struct {
	Constructor Create[ResourceT]

	// AttributeMapConverter is used to convert raw attributes to the resource's native config.
	AttributeMapConverter AttributeMapConverter[ConfigT]

	// configType can be used to dynamically inspect the resource config type.
	configType reflect.Type
	api        API
}

// ConfigReflectType returns the reflective resource config type.
func (r Registration[ResourceT, ConfigT]) ConfigReflectType() reflect.Type {
	return r.configType
}

// ConfigSchema returns the JSON schema of the resource's native config, or nil if it has none.
func (r Registration[ResourceT, ConfigT]) ConfigSchema() *jsonschema.Schema {
	t := r.ConfigReflectType()
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return jsonschema.ReflectFromType(t)
}

var (
	registryMu sync.RWMutex
	registry   = map[APIModel]Registration[Resource, ConfigValidator]{}
)

// RegisterComponent registers a model for a component and its construction info. It's a helper for
// Register.
func RegisterComponent[ResourceT Resource, ConfigT ConfigValidator](
	api API,
	model Model,
	reg Registration[ResourceT, ConfigT],
) {
	if !api.IsComponent() {
		panic(errors.Errorf("trying to register a non-component api: %q, model: %q", api, model))
	}
	Register(api, model, reg)
}

// Register registers a model for a resource with its construction info.
func Register[ResourceT Resource, ConfigT ConfigValidator](
	api API,
	model Model,
	reg Registration[ResourceT, ConfigT],
) {
	registryMu.Lock()
	defer registryMu.Unlock()

	apiModel := APIModel{api, model}
	if _, old := registry[apiModel]; old {
		panic(errors.Errorf("trying to register two resources with same api: %q, model: %q", api, model))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for api: %q, model: %q", api, model))
	}
	var zero ConfigT
	zeroT := reflect.TypeOf(zero)
	if reg.AttributeMapConverter == nil && zeroT != nil {
		// provide one for free
		reg.AttributeMapConverter = TransformAttributeMap[ConfigT]
	}
	reg.api = api
	reg.configType = zeroT
	registry[apiModel] = makeGenericResourceRegistration(reg)
}

// makeGenericResourceRegistration allows a registration to be generic and ensures all input/output types
// are actually T's.
func makeGenericResourceRegistration[ResourceT Resource, ConfigT ConfigValidator](
	typed Registration[ResourceT, ConfigT],
) Registration[Resource, ConfigValidator] {
	reg := Registration[Resource, ConfigValidator]{
		// NOTE: any fields added to Registration must be copied/adapted here.
		api:        typed.api,
		configType: typed.configType,
		Constructor: func(
			ctx context.Context,
			deps Dependencies,
			conf Config,
			logger logging.Logger,
		) (Resource, error) {
			return typed.Constructor(ctx, deps, conf, logger)
		},
	}
	if typed.AttributeMapConverter != nil {
		reg.AttributeMapConverter = func(attributes utils.AttributeMap) (ConfigValidator, error) {
			return typed.AttributeMapConverter(attributes)
		}
	}
	return reg
}

// Deregister removes a previously registered resource.
func Deregister(api API, model Model) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, APIModel{api, model})
}

// LookupRegistration looks up a creator by the given api and model. false is returned if
// there is no creator registered.
func LookupRegistration(api API, model Model) (Registration[Resource, ConfigValidator], bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if registration, ok := registry[APIModel{api, model}]; ok {
		return registration, true
	}
	return Registration[Resource, ConfigValidator]{}, false
}

// RegisteredModels returns every registered API and model pair.
func RegisteredModels() []APIModel {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]APIModel, 0, len(registry))
	for apiModel := range registry {
		out = append(out, apiModel)
	}
	return out
}

// Build converts the config's attributes, validates it and constructs the resource it describes.
func Build(ctx context.Context, deps Dependencies, conf Config, logger logging.Logger) (Resource, error) {
	reg, ok := LookupRegistration(conf.API, conf.Model)
	if !ok {
		return nil, NewNotRegisteredError(conf.API, conf.Model)
	}
	if reg.AttributeMapConverter != nil {
		converted, err := reg.AttributeMapConverter(conf.Attributes)
		if err != nil {
			return nil, errors.Wrapf(err, "error converting attributes for %q", conf.ResourceName())
		}
		conf.ConvertedAttributes = converted
	}
	if _, err := conf.Validate(conf.ResourceName().String()); err != nil {
		return nil, err
	}
	return reg.Constructor(ctx, deps, conf, logger.Sublogger(conf.Name))
}
