package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/touchsense/components/input"
	"go.viam.com/touchsense/components/input/mpr121"
	"go.viam.com/touchsense/logging"
	"go.viam.com/touchsense/resource"
)

func TestAttributesFromArgs(t *testing.T) {
	args := Arguments{I2CBus: "1", I2CAddr: 0x5B, Baud: 9600, Touch: 20, Release: 0, Electrodes: 3, PollMs: 25}

	conf, err := resource.TransformAttributeMap[*mpr121.Config](attributesFromArgs(args))
	test.That(t, err, test.ShouldBeNil)
	_, err = conf.Validate("flags")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.I2CBus, test.ShouldEqual, "1")
	test.That(t, conf.SerialPath, test.ShouldBeEmpty)
	test.That(t, conf.SerialBaudRate, test.ShouldEqual, 0)
	test.That(t, conf.I2CAddr, test.ShouldEqual, 0x5B)
	test.That(t, *conf.TouchThreshold, test.ShouldEqual, 20)
	test.That(t, *conf.ReleaseThreshold, test.ShouldEqual, 0)
	test.That(t, conf.Electrodes, test.ShouldEqual, 3)
	test.That(t, conf.PollIntervalMs, test.ShouldEqual, 25)

	args.Serial = "/dev/ttyACM0"
	conf, err = resource.TransformAttributeMap[*mpr121.Config](attributesFromArgs(args))
	test.That(t, err, test.ShouldBeNil)
	_, err = conf.Validate("flags")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.I2CBus, test.ShouldBeEmpty)
	test.That(t, conf.SerialPath, test.ShouldEqual, "/dev/ttyACM0")
	test.That(t, conf.SerialBaudRate, test.ShouldEqual, 9600)
}

func TestLogLevel(t *testing.T) {
	level, err := logLevel(Arguments{LogLevel: "warn"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, logging.WARN)

	level, err = logLevel(Arguments{LogLevel: "warn", Debug: true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, logging.DEBUG)

	_, err = logLevel(Arguments{LogLevel: "loud"})
	test.That(t, err, test.ShouldNotBeNil)

	logger := logging.NewTestLogger(t)
	err = mainWithArgs(context.Background(), []string{"mpr121", "--log-level", "loud"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")
}

func TestComponentConfigs(t *testing.T) {
	logger := logging.NewTestLogger(t)

	confs, err := componentConfigs(context.Background(), Arguments{I2CBus: "2", I2CAddr: 0x5A, Electrodes: 12}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(confs), test.ShouldEqual, 1)
	test.That(t, confs[0].ResourceName(), test.ShouldResemble, input.Named("mpr121"))
	test.That(t, confs[0].Model, test.ShouldResemble, mpr121.Model)
	test.That(t, confs[0].Attributes["i2c_bus"], test.ShouldEqual, "2")

	path := filepath.Join(t.TempDir(), "machine.json")
	err = os.WriteFile(path, []byte(`{"components": [
		{"name": "left", "api": "rdk:component:input_controller", "model": "mpr121", "attributes": {"i2c_bus": "1"}},
		{"name": "right", "api": "rdk:component:input_controller", "model": "mpr121",
			"attributes": {"i2c_bus": "1", "i2c_addr": 91}}
	]}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	confs, err = componentConfigs(context.Background(), Arguments{ConfigFile: path, I2CBus: "2"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(confs), test.ShouldEqual, 2)
	test.That(t, confs[0].Name, test.ShouldEqual, "left")
	test.That(t, confs[1].Name, test.ShouldEqual, "right")

	_, err = componentConfigs(context.Background(), Arguments{ConfigFile: filepath.Join(t.TempDir(), "nope.json")}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBuildAllInvalid(t *testing.T) {
	logger := logging.NewTestLogger(t)
	built, err := buildAll(context.Background(), []resource.Config{{
		Name:  "pad",
		API:   input.API,
		Model: mpr121.Model,
		Attributes: attributesFromArgs(Arguments{
			I2CBus: "1", I2CAddr: 0x5A, Electrodes: 20, Touch: 12, Release: 6, PollMs: 50,
		}),
	}}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `failed to build "pad"`)
	test.That(t, built, test.ShouldBeEmpty)
	test.That(t, closeAll(built), test.ShouldBeNil)
}

func TestPrintSchemas(t *testing.T) {
	test.That(t, printSchemas(), test.ShouldBeNil)
}
