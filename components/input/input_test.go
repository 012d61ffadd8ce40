package input_test

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/touchsense/components/input"
	"go.viam.com/touchsense/resource"
	"go.viam.com/touchsense/testutils/inject"
)

const (
	testInputControllerName = "inputController1"
	failInputControllerName = "inputController2"
	missingControllerName   = "inputController3"
)

func TestNamed(t *testing.T) {
	name := input.Named(testInputControllerName)
	test.That(t, name.API, test.ShouldResemble, input.API)
	test.That(t, name.String(), test.ShouldEqual, "rdk:component:input_controller/inputController1")
	test.That(t, name.Validate(), test.ShouldBeNil)
}

func TestFromDependencies(t *testing.T) {
	controller := inject.NewInputController(testInputControllerName)
	controller.ControlsFunc = func(ctx context.Context, extra map[string]interface{}) ([]input.Control, error) {
		return []input.Control{"Electrode0"}, nil
	}
	deps := resource.Dependencies{
		input.Named(testInputControllerName): controller,
		input.Named(failInputControllerName): &notAController{Named: input.Named(failInputControllerName).AsNamed()},
	}

	res, err := input.FromDependencies(deps, testInputControllerName)
	test.That(t, err, test.ShouldBeNil)
	controls, err := res.Controls(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, controls, test.ShouldResemble, []input.Control{"Electrode0"})

	_, err = input.FromDependencies(deps, failInputControllerName)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected")

	_, err = input.FromDependencies(deps, missingControllerName)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not found")
}

type notAController struct {
	resource.Named
	resource.TriviallyCloseable
}
