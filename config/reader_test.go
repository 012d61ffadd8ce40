package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/touchsense/components/input"
	"go.viam.com/touchsense/components/input/mpr121"
	"go.viam.com/touchsense/config"
	"go.viam.com/touchsense/logging"
	"go.viam.com/touchsense/resource"
)

const touchPadConfig = `{
	"components": [
		{
			"name": "pad",
			"api": "rdk:component:input_controller",
			"model": "mpr121",
			"attributes": {
				"i2c_bus": "1",
				"electrodes": 4,
				"controls": ["Up", "Down", "Left", "Right"]
			}
		}
	]
}`

func TestFromReader(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := config.FromReader(context.Background(), "pad.json", strings.NewReader(touchPadConfig), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "pad.json")
	test.That(t, len(cfg.Components), test.ShouldEqual, 1)

	pad := cfg.FindComponent("pad")
	test.That(t, pad, test.ShouldNotBeNil)
	test.That(t, pad.API, test.ShouldResemble, input.API)
	test.That(t, pad.Model, test.ShouldResemble, mpr121.Model)
	test.That(t, pad.ResourceName(), test.ShouldResemble, input.Named("pad"))

	native, err := resource.NativeConfig[*mpr121.Config](*pad)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, native.I2CBus, test.ShouldEqual, "1")
	test.That(t, native.Electrodes, test.ShouldEqual, 4)
	test.That(t, native.Controls, test.ShouldResemble, []string{"Up", "Down", "Left", "Right"})

	test.That(t, cfg.FindComponent("other"), test.ShouldBeNil)
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name   string
		config string
		err    string
	}{
		{"not json", `{"components": [`, "decode"},
		{
			"unknown attribute",
			`{"components": [{"name": "pad", "api": "rdk:component:input_controller", "model": "mpr121",
				"attributes": {"i2c_bus": "1", "bus": "2"}}]}`,
			"converting attributes",
		},
		{
			"invalid attributes",
			`{"components": [{"name": "pad", "api": "rdk:component:input_controller", "model": "mpr121",
				"attributes": {"i2c_bus": "1", "i2c_addr": 16}}]}`,
			"i2c_addr",
		},
		{
			"missing name",
			`{"components": [{"api": "rdk:component:input_controller", "model": "mpr121",
				"attributes": {"i2c_bus": "1"}}]}`,
			"name",
		},
		{
			"duplicate name",
			`{"components": [
				{"name": "pad", "api": "rdk:component:input_controller", "model": "mpr121", "attributes": {"i2c_bus": "1"}},
				{"name": "pad", "api": "rdk:component:input_controller", "model": "mpr121", "attributes": {"i2c_bus": "2"}}
			]}`,
			"not unique",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.FromReader(context.Background(), "", strings.NewReader(tc.config), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}

func TestFromReaderUnregisteredModel(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := config.FromReader(context.Background(), "", strings.NewReader(`{"components": [
		{"name": "pad", "api": "rdk:component:input_controller", "model": "acme:touch:pad", "attributes": {"x": 1}}
	]}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Components[0].ConvertedAttributes, test.ShouldBeNil)

	_, err = resource.Build(context.Background(), nil, cfg.Components[0], logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "acme:touch:pad")
}

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("TOUCH_SERIAL_PATH", "/dev/ttyACM3")

	path := filepath.Join(t.TempDir(), "pad.json")
	err := os.WriteFile(path, []byte(`{"components": [{"name": "pad", "api": "rdk:component:input_controller",
		"model": "rdk:builtin:mpr121", "attributes": {"serial_path": "${TOUCH_SERIAL_PATH}"}}]}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	cfg, err := config.Read(context.Background(), path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	native, err := resource.NativeConfig[*mpr121.Config](cfg.Components[0])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, native.SerialPath, test.ShouldEqual, "/dev/ttyACM3")

	_, err = config.Read(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}
