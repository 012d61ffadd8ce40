// Package mpr121 implements an input controller for the NXP MPR121 12-channel capacitive touch
// sensor. Datasheet: https://www.nxp.com/docs/en/data-sheet/MPR121.pdf
//
// The chip is reached either directly on a Linux I2C bus ("i2c_bus") or through a bus bridge on a
// serial port ("serial_path"). Each electrode is exposed as a button control: touching it emits
// ButtonPress and letting go emits ButtonRelease.
//
// The chip answers on one of four addresses depending on how the ADDR pin is strapped:
//   - ADDR to ground (default): 0x5A
//   - ADDR to VDD: 0x5B
//   - ADDR to SDA: 0x5C
//   - ADDR to SCL: 0x5D
package mpr121

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/touchsense/components/board/genericlinux/buses"
	"go.viam.com/touchsense/components/input"
	"go.viam.com/touchsense/logging"
	"go.viam.com/touchsense/resource"
	"go.viam.com/touchsense/utils"
)

// Model is the model of the MPR121 input controller.
var Model = resource.DefaultModelFamily.WithModel("mpr121")

// reinitBackoff is how long the controller waits after a failure before initializing the chip again.
const reinitBackoff = time.Second

// newTransactionClient opens the transaction client a config asks for.
var newTransactionClient = func(cfg *Config) (buses.TransactionClient, error) {
	if cfg.SerialPath != "" {
		return buses.OpenSerialTransactionClient(cfg.SerialPath, cfg.baudRate())
	}
	bus, err := buses.NewI2cBus(cfg.I2CBus)
	if err != nil {
		return nil, err
	}
	return buses.NewI2CTransactionClient(bus), nil
}

func init() {
	resource.RegisterComponent(input.API, Model, resource.Registration[input.Controller, *Config]{
		Constructor: func(
			ctx context.Context,
			_ resource.Dependencies,
			conf resource.Config,
			logger logging.Logger,
		) (input.Controller, error) {
			newConf, err := resource.NativeConfig[*Config](conf)
			if err != nil {
				return nil, err
			}
			client, err := newTransactionClient(newConf)
			if err != nil {
				return nil, err
			}
			c, err := NewController(ctx, conf.ResourceName(), newConf, client, logger)
			if err != nil {
				return nil, multierr.Combine(err, utils.TryClose(ctx, client))
			}
			return c, nil
		},
	})
}

// Controller is an input.Controller reporting MPR121 electrode touches as button events.
type Controller struct {
	resource.Named
	resource.AlwaysRebuild

	logger   logging.Logger
	client   buses.TransactionClient
	device   *Device
	sequence ConfigSequence
	controls []input.Control
	interval time.Duration
	clock    clock.Clock

	mu         sync.RWMutex
	lastEvents map[input.Control]input.Event
	callbacks  map[input.Control]map[input.EventType]input.ControlFunction
	closed     bool

	lastErr atomic.Error
	workers utils.StoppableWorkers
}

// NewController initializes the chip through client and starts polling it. The controller owns
// client and closes it if client can be closed.
func NewController(
	ctx context.Context,
	name resource.Name,
	conf *Config,
	client buses.TransactionClient,
	logger logging.Logger,
) (*Controller, error) {
	return newController(ctx, name, conf, client, clock.New(), logger)
}

func newController(
	ctx context.Context,
	name resource.Name,
	conf *Config,
	client buses.TransactionClient,
	clk clock.Clock,
	logger logging.Logger,
) (*Controller, error) {
	settings, err := conf.Settings()
	if err != nil {
		return nil, err
	}
	seq, err := BuildSequence(settings)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		Named:      name.AsNamed(),
		logger:     logger,
		client:     client,
		device:     NewDevice(client, conf.address(), logger),
		sequence:   seq,
		controls:   conf.controls(),
		interval:   conf.pollInterval(),
		clock:      clk,
		lastEvents: map[input.Control]input.Event{},
		callbacks:  map[input.Control]map[input.EventType]input.ControlFunction{},
	}

	if err := c.device.Initialize(ctx, seq); err != nil {
		return nil, err
	}
	c.sendToAll(ctx, input.Connect)

	c.workers = utils.NewStoppableWorkers(c.pollLoop)
	return c, nil
}

// pollLoop polls until the workers are stopped, initializing the chip again after every failure.
func (c *Controller) pollLoop(ctx context.Context) {
	for {
		poller := &Poller{
			Device:   c.device,
			Interval: c.interval,
			Clock:    c.clock,
			OnRead:   func(TouchBitmask) { c.lastErr.Store(nil) },
		}
		err := poller.Run(ctx, &PollState{}, func(ev TouchEvent) {
			c.handleTouch(ctx, ev)
		})
		if err == nil {
			return
		}
		c.lastErr.Store(err)
		c.logger.CErrorw(ctx, "touch polling stopped", "error", err)
		c.sendToAll(ctx, input.Disconnect)

		if !c.reinitialize(ctx) {
			return
		}
		c.sendToAll(ctx, input.Connect)
	}
}

// reinitialize retries initialization after a back-off until it works. It returns false if ctx
// ends first.
func (c *Controller) reinitialize(ctx context.Context) bool {
	for {
		timer := c.clock.Timer(reinitBackoff)
		if !goutils.SelectContextOrWaitChan(ctx, timer.C) {
			timer.Stop()
			return false
		}
		err := c.device.Initialize(ctx, c.sequence)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.lastErr.Store(err)
		c.logger.CErrorw(ctx, "failed to initialize mpr121 again", "error", err)
	}
}

func (c *Controller) handleTouch(ctx context.Context, ev TouchEvent) {
	if ev.Channel >= len(c.controls) {
		// inactive electrode
		return
	}
	c.logger.CDebugw(ctx, "electrode "+ev.Kind.String(), "channel", ev.Channel)
	out := input.Event{Time: c.clock.Now(), Control: c.controls[ev.Channel]}
	if ev.Kind == Touched {
		out.Event = input.ButtonPress
		out.Value = 1
	} else {
		out.Event = input.ButtonRelease
	}
	c.makeCallbacks(ctx, out)
}

func (c *Controller) sendToAll(ctx context.Context, eventType input.EventType) {
	now := c.clock.Now()
	for _, control := range c.controls {
		c.makeCallbacks(ctx, input.Event{Time: now, Event: eventType, Control: control})
	}
}

// makeCallbacks records the event and runs the callbacks registered for it in order: the event
// type itself, then AllEvents.
func (c *Controller) makeCallbacks(ctx context.Context, eventOut input.Event) {
	c.mu.Lock()
	c.lastEvents[eventOut.Control] = eventOut
	var funcs []input.ControlFunction
	if ctrlFunc, ok := c.callbacks[eventOut.Control][eventOut.Event]; ok && ctrlFunc != nil {
		funcs = append(funcs, ctrlFunc)
	}
	if ctrlFuncAll, ok := c.callbacks[eventOut.Control][input.AllEvents]; ok && ctrlFuncAll != nil {
		funcs = append(funcs, ctrlFuncAll)
	}
	c.mu.Unlock()

	for _, f := range funcs {
		f(ctx, eventOut)
	}
}

// Controls lists the inputs.
func (c *Controller) Controls(ctx context.Context, extra map[string]interface{}) ([]input.Control, error) {
	return append([]input.Control(nil), c.controls...), nil
}

// Events returns the last input.Event (the current state) of each control. While the chip is
// failing the error is returned alongside the last known events.
func (c *Controller) Events(ctx context.Context, extra map[string]interface{}) (map[input.Control]input.Event, error) {
	c.mu.RLock()
	out := make(map[input.Control]input.Event, len(c.lastEvents))
	for key, value := range c.lastEvents {
		out[key] = value
	}
	c.mu.RUnlock()
	return out, c.lastErr.Load()
}

// RegisterControlCallback registers a callback function to be executed on the specified trigger Event.
// ButtonChange registers for both ButtonPress and ButtonRelease. A nil ctrlFunc removes the callback.
func (c *Controller) RegisterControlCallback(
	ctx context.Context,
	control input.Control,
	triggers []input.EventType,
	ctrlFunc input.ControlFunction,
	extra map[string]interface{},
) error {
	if !lo.Contains(c.controls, control) {
		return errors.Errorf("unknown control %q", control)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.callbacks[control] == nil {
		c.callbacks[control] = make(map[input.EventType]input.ControlFunction)
	}
	for _, trigger := range triggers {
		if trigger == input.ButtonChange {
			c.callbacks[control][input.ButtonRelease] = ctrlFunc
			c.callbacks[control][input.ButtonPress] = ctrlFunc
		} else {
			c.callbacks[control][trigger] = ctrlFunc
		}
	}
	return nil
}

// DoCommand reads raw electrode data or initializes the chip again.
func (c *Controller) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	name, ok := cmd["command"].(string)
	if !ok {
		return nil, errors.New(`missing "command"`)
	}
	switch name {
	case "filtered_data", "baseline_data":
		channel, ok := utils.ToInt(cmd["channel"])
		if !ok {
			return nil, errors.Errorf(`%s needs an integer "channel"`, name)
		}
		read := c.device.ReadFilteredData
		if name == "baseline_data" {
			read = c.device.ReadBaselineData
		}
		value, err := read(ctx, channel)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"channel": channel, name: int(value)}, nil
	case "touch_status":
		status, err := c.device.ReadTouchStatus(ctx)
		if err != nil {
			return nil, err
		}
		touched := lo.Map(status.Channels(), func(ch, _ int) interface{} { return ch })
		return map[string]interface{}{"touch_status": int(status), "touched": touched}, nil
	case "reinitialize":
		if err := c.device.Initialize(ctx, c.sequence); err != nil {
			return nil, err
		}
		return map[string]interface{}{"reinitialized": true}, nil
	default:
		return nil, errors.Errorf("unknown command %q", name)
	}
}

// Close stops polling, puts the chip in stop mode and closes the transaction client.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.workers.Stop()
	err := c.device.Stop(ctx)
	if err != nil {
		c.logger.CWarnw(ctx, "failed to put mpr121 in stop mode", "error", err)
	}
	return multierr.Combine(err, utils.TryClose(ctx, c.client))
}
