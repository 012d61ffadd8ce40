// Package input provides human input, such as buttons, switches, knobs and touch pads.
package input

import (
	"context"
	"time"

	"go.viam.com/touchsense/resource"
)

// SubtypeName is a constant that identifies the component resource API string input.
const SubtypeName = "input_controller"

// API is a variable that identifies the component resource API.
var API = resource.APINamespaceRDK.WithComponentType(SubtypeName)

// Named is a helper for getting the named input's typed resource name.
func Named(name string) resource.Name {
	return resource.NewName(API, name)
}

// Controller is a logical "container" more than an actual device
// Could be a single touch pad, or a collection of buttons, a keyboard, etc.
type Controller interface {
	resource.Resource

	// Controls returns a list of Controls provided by the Controller
	Controls(ctx context.Context, extra map[string]interface{}) ([]Control, error)

	// Events returns most recent Event for each input (which should be the current state)
	Events(ctx context.Context, extra map[string]interface{}) (map[Control]Event, error)

	// RegisterCallback registers a callback that will fire on given EventTypes for a given Control.
	// The callback is called on the same goroutine as the firer and if any long operation is to occur,
	// the callback should start a goroutine.
	RegisterControlCallback(
		ctx context.Context,
		control Control,
		triggers []EventType,
		ctrlFunc ControlFunction,
		extra map[string]interface{},
	) error
}

// ControlFunction is a callback passed to RegisterControlCallback.
type ControlFunction func(ctx context.Context, ev Event)

// EventType represents the type of input event, and is returned by LastEvent() or passed to ControlFunction callbacks.
type EventType string

// EventType list, to be expanded as new input devices are developed.
const (
	// Callbacks registered for this event will be called in ADDITION to other registered event callbacks.
	AllEvents EventType = "AllEvents"
	// Sent at controller initialization, and on reconnects.
	Connect EventType = "Connect"
	// If unplugged, or the bus stops answering.
	Disconnect EventType = "Disconnect"
	// Typical key press.
	ButtonPress EventType = "ButtonPress"
	// Key release.
	ButtonRelease EventType = "ButtonRelease"
	// Both up and down for convenience during registration, not typically emitted.
	ButtonChange EventType = "ButtonChange"
)

// Control identifies the input (specific Axis or Button) of a controller.
type Control string

// Event is passed to the registered ControlFunction or returned by State().
type Event struct {
	Time    time.Time
	Event   EventType
	Control Control // Key or Axis
	Value   float64 // 0 or 1 for buttons
}

// FromDependencies is a helper for getting the named input controller from a collection of
// dependencies.
func FromDependencies(deps resource.Dependencies, name string) (Controller, error) {
	return resource.FromDependencies[Controller](deps, Named(name))
}
