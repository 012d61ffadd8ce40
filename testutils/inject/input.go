package inject

import (
	"context"

	"go.viam.com/touchsense/components/input"
	"go.viam.com/touchsense/resource"
)

// InputController is an injected InputController.
type InputController struct {
	input.Controller
	name                        resource.Name
	DoFunc                      func(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error)
	ControlsFunc                func(ctx context.Context, extra map[string]interface{}) ([]input.Control, error)
	EventsFunc                  func(ctx context.Context, extra map[string]interface{}) (map[input.Control]input.Event, error)
	RegisterControlCallbackFunc func(
		ctx context.Context,
		control input.Control,
		triggers []input.EventType,
		ctrlFunc input.ControlFunction,
		extra map[string]interface{},
	) error
	CloseFunc func(ctx context.Context) error
}

// NewInputController returns a new injected input controller.
func NewInputController(name string) *InputController {
	return &InputController{name: input.Named(name)}
}

// Name returns the name of the resource.
func (s *InputController) Name() resource.Name {
	return s.name
}

// Controls calls the injected function or the real version.
func (s *InputController) Controls(ctx context.Context, extra map[string]interface{}) ([]input.Control, error) {
	if s.ControlsFunc == nil {
		return s.Controller.Controls(ctx, extra)
	}
	return s.ControlsFunc(ctx, extra)
}

// Events calls the injected function or the real version.
func (s *InputController) Events(ctx context.Context, extra map[string]interface{}) (map[input.Control]input.Event, error) {
	if s.EventsFunc == nil {
		return s.Controller.Events(ctx, extra)
	}
	return s.EventsFunc(ctx, extra)
}

// RegisterControlCallback calls the injected function or the real version.
func (s *InputController) RegisterControlCallback(
	ctx context.Context,
	control input.Control,
	triggers []input.EventType,
	ctrlFunc input.ControlFunction,
	extra map[string]interface{},
) error {
	if s.RegisterControlCallbackFunc == nil {
		return s.Controller.RegisterControlCallback(ctx, control, triggers, ctrlFunc, extra)
	}
	return s.RegisterControlCallbackFunc(ctx, control, triggers, ctrlFunc, extra)
}

// DoCommand calls the injected DoCommand or the real version.
func (s *InputController) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	if s.DoFunc == nil {
		return s.Controller.DoCommand(ctx, cmd)
	}
	return s.DoFunc(ctx, cmd)
}

// Close calls the injected Close or the real version.
func (s *InputController) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		if s.Controller == nil {
			return nil
		}
		return s.Controller.Close(ctx)
	}
	return s.CloseFunc(ctx)
}
