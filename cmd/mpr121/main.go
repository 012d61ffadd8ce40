// Package main initializes MPR121 touch sensors and logs every electrode touch until interrupted.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"gopkg.in/natefinch/lumberjack.v2"

	"go.viam.com/touchsense/components/input"
	"go.viam.com/touchsense/components/input/mpr121"
	// registers all components.
	_ "go.viam.com/touchsense/components/register"
	"go.viam.com/touchsense/config"
	"go.viam.com/touchsense/logging"
	"go.viam.com/touchsense/resource"
	"go.viam.com/touchsense/utils"
)

var logger = logging.NewDebugLogger("mpr121")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"config,usage=machine config file; the sensor flags are ignored when set"`
	I2CBus     string `flag:"i2c-bus,default=1,usage=i2c bus the sensor is on"`
	I2CAddr    int    `flag:"i2c-addr,default=90,usage=i2c address of the sensor (90-93)"`
	Serial     string `flag:"serial,usage=serial port of a bus bridge; replaces --i2c-bus"`
	Baud       int    `flag:"baud,default=115200,usage=baud rate of the bus bridge"`
	Touch      int    `flag:"touch,default=12,usage=touch threshold of every electrode"`
	Release    int    `flag:"release,default=6,usage=release threshold of every electrode"`
	Electrodes int    `flag:"electrodes,default=12,usage=number of active electrodes"`
	PollMs     int    `flag:"poll-ms,default=50,usage=touch status poll interval in milliseconds"`
	Watch      bool   `flag:"watch,usage=rebuild the controllers when the config file changes"`
	LogLevel   string `flag:"log-level,default=info,usage=minimum level to log: debug, info, warn or error"`
	LogFile    string `flag:"log-file,usage=also write logs to this file, rotating it as it grows"`
	Schema     bool   `flag:"schema,usage=print the config schema of every registered model and exit"`
	Debug      bool   `flag:"debug,usage=log every bus transaction"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	level, err := logLevel(argsParsed)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if argsParsed.Schema {
		return printSchemas()
	}
	if argsParsed.LogFile != "" {
		logFile := &lumberjack.Logger{
			Filename:   argsParsed.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
		}
		defer func() {
			err = multierr.Combine(err, logFile.Close())
		}()
		logger.AddAppender(logging.NewWriterAppender(logFile))
	}

	confs, err := componentConfigs(ctx, argsParsed, logger)
	if err != nil {
		return err
	}

	controllers, err := buildAll(ctx, confs, logger)
	defer func() {
		err = multierr.Combine(err, closeAll(controllers))
	}()
	if err != nil {
		return err
	}
	if len(controllers) == 0 {
		return errors.New("no components configured")
	}

	if argsParsed.ConfigFile == "" || !argsParsed.Watch {
		<-ctx.Done()
		return nil
	}

	watcher, err := config.NewWatcher(ctx, argsParsed.ConfigFile, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, watcher.Close())
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-watcher.Config():
			logger.Infow("config changed, rebuilding controllers", "path", cfg.ConfigFilePath)
			if err := closeAll(controllers); err != nil {
				logger.Warnw("failed to close controllers", "error", err)
			}
			controllers, err = buildAll(ctx, cfg.Components, logger)
			if err != nil {
				logger.Errorw("failed to rebuild controllers", "error", err)
			}
		}
	}
}

// logLevel returns the level to log at. --debug wins over --log-level.
func logLevel(args Arguments) (logging.Level, error) {
	if args.Debug {
		return logging.DEBUG, nil
	}
	return logging.LevelFromString(args.LogLevel)
}

// buildAll builds every component and starts logging the touches of its controllers. The
// resources built before a failure are returned with the error.
func buildAll(ctx context.Context, confs []resource.Config, logger logging.Logger) ([]resource.Resource, error) {
	var built []resource.Resource
	for _, conf := range confs {
		res, err := resource.Build(ctx, nil, conf, logger)
		if err != nil {
			return built, errors.Wrapf(err, "failed to build %q", conf.Name)
		}
		built = append(built, res)

		controller, ok := res.(input.Controller)
		if !ok {
			continue
		}
		if err := logTouches(ctx, controller, logger.Sublogger(conf.Name)); err != nil {
			return built, err
		}
		logger.Infow("watching for touches", "name", conf.Name, "model", conf.Model)
	}
	return built, nil
}

func closeAll(resources []resource.Resource) error {
	var err error
	for _, res := range resources {
		err = multierr.Combine(err, res.Close(context.Background()))
	}
	return err
}

func printSchemas() error {
	schemas := map[string]interface{}{}
	for _, apiModel := range resource.RegisteredModels() {
		reg, ok := resource.LookupRegistration(apiModel.API, apiModel.Model)
		if !ok {
			continue
		}
		schemas[apiModel.API.String()+"/"+apiModel.Model.String()] = reg.ConfigSchema()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(schemas)
}

// componentConfigs reads the config file if one is given, and otherwise describes a single
// controller from the flags.
func componentConfigs(ctx context.Context, args Arguments, logger logging.Logger) ([]resource.Config, error) {
	if args.ConfigFile != "" {
		cfg, err := config.Read(ctx, args.ConfigFile, logger)
		if err != nil {
			return nil, err
		}
		return cfg.Components, nil
	}
	return []resource.Config{{
		Name:       "mpr121",
		API:        input.API,
		Model:      mpr121.Model,
		Attributes: attributesFromArgs(args),
	}}, nil
}

func attributesFromArgs(args Arguments) utils.AttributeMap {
	attrs := utils.AttributeMap{
		"i2c_addr":          args.I2CAddr,
		"electrodes":        args.Electrodes,
		"touch_threshold":   args.Touch,
		"release_threshold": args.Release,
		"poll_interval_ms":  args.PollMs,
	}
	if args.Serial != "" {
		attrs["serial_path"] = args.Serial
		attrs["serial_baud_rate"] = args.Baud
	} else {
		attrs["i2c_bus"] = args.I2CBus
	}
	return attrs
}

func logTouches(ctx context.Context, controller input.Controller, logger logging.Logger) error {
	controls, err := controller.Controls(ctx, nil)
	if err != nil {
		return err
	}
	for channel, control := range controls {
		err := controller.RegisterControlCallback(ctx, control, []input.EventType{input.AllEvents},
			func(ctx context.Context, ev input.Event) {
				switch ev.Event {
				case input.ButtonPress:
					logger.CInfow(ctx, "touched", "channel", channel, "control", ev.Control)
				case input.ButtonRelease:
					logger.CInfow(ctx, "released", "channel", channel, "control", ev.Control)
				case input.Disconnect:
					logger.CWarnw(ctx, "sensor disconnected", "control", ev.Control)
				default:
				}
			}, nil)
		if err != nil {
			return err
		}
	}
	return nil
}
