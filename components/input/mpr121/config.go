package mpr121

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"go.viam.com/touchsense/components/input"
)

// Defaults applied to unset attributes.
const (
	DefaultTouchThreshold   = 12
	DefaultReleaseThreshold = 6
	DefaultChargeCurrent    = 16 // µA
	DefaultChargeTime       = 1  // 0.5 µs
	DefaultPollInterval     = 50 * time.Millisecond
	DefaultSerialBaudRate   = 115200
)

// ThresholdOverride replaces the touch and release thresholds of a single channel.
type ThresholdOverride struct {
	Channel int `json:"channel"`
	Touch   int `json:"touch"`
	Release int `json:"release"`
}

// Config is used for converting config attributes.
type Config struct {
	I2CBus         string `json:"i2c_bus,omitempty"`
	I2CAddr        int    `json:"i2c_addr,omitempty"`
	SerialPath     string `json:"serial_path,omitempty"`
	SerialBaudRate int    `json:"serial_baud_rate,omitempty"`

	Electrodes       int                 `json:"electrodes,omitempty"`
	TouchThreshold   *int                `json:"touch_threshold,omitempty"`
	ReleaseThreshold *int                `json:"release_threshold,omitempty"`
	Thresholds       []ThresholdOverride `json:"thresholds,omitempty"`

	DebounceTouch   int `json:"debounce_touch,omitempty"`
	DebounceRelease int `json:"debounce_release,omitempty"`
	ChargeCurrent   int `json:"charge_current_ua,omitempty"`
	ChargeTime      int `json:"charge_time,omitempty"`

	PollIntervalMs int      `json:"poll_interval_ms,omitempty"`
	Controls       []string `json:"controls,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) ([]string, error) {
	if cfg.I2CBus == "" && cfg.SerialPath == "" {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "i2c_bus")
	}
	if cfg.I2CBus != "" && cfg.SerialPath != "" {
		return nil, goutils.NewConfigValidationError(path, errors.New("only one of i2c_bus and serial_path may be set"))
	}
	if cfg.I2CAddr != 0 && !IsValidAddress(cfg.I2CAddr) {
		return nil, goutils.NewConfigValidationError(path,
			errors.Errorf("i2c_addr must be between 0x%02x and 0x%02x, got 0x%02x", DefaultAddress, AddressSCL, cfg.I2CAddr))
	}
	if cfg.SerialBaudRate < 0 {
		return nil, goutils.NewConfigValidationError(path, errors.New("serial_baud_rate cannot be negative"))
	}
	if cfg.Electrodes < 0 || cfg.Electrodes > NumChannels {
		return nil, goutils.NewConfigValidationError(path,
			errors.Errorf("electrodes must be between 1 and %d, got %d", NumChannels, cfg.Electrodes))
	}
	for name, v := range map[string]int{"debounce_touch": cfg.DebounceTouch, "debounce_release": cfg.DebounceRelease} {
		if v < 0 || v > 7 {
			return nil, goutils.NewConfigValidationError(path, errors.Errorf("%s must be between 0 and 7, got %d", name, v))
		}
	}
	if cfg.ChargeCurrent < 0 || cfg.ChargeCurrent > 63 {
		return nil, goutils.NewConfigValidationError(path,
			errors.Errorf("charge_current_ua must be between 1 and 63, got %d", cfg.ChargeCurrent))
	}
	if cfg.ChargeTime < 0 || cfg.ChargeTime > 7 {
		return nil, goutils.NewConfigValidationError(path,
			errors.Errorf("charge_time must be between 1 and 7, got %d", cfg.ChargeTime))
	}
	if cfg.PollIntervalMs < 0 {
		return nil, goutils.NewConfigValidationError(path, errors.New("poll_interval_ms cannot be negative"))
	}
	if err := cfg.validateControls(); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	if _, err := cfg.ChannelThresholds(); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	return nil, nil
}

func (cfg *Config) validateControls() error {
	if len(cfg.Controls) == 0 {
		return nil
	}
	if len(cfg.Controls) != cfg.electrodes() {
		return errors.Errorf("expected %d controls, one per electrode, got %d", cfg.electrodes(), len(cfg.Controls))
	}
	if lo.Contains(cfg.Controls, "") {
		return errors.New("control names cannot be empty")
	}
	if dups := lo.FindDuplicates(cfg.Controls); len(dups) > 0 {
		return errors.Errorf("duplicate control names %v", dups)
	}
	return nil
}

func (cfg *Config) electrodes() int {
	if cfg.Electrodes == 0 {
		return NumChannels
	}
	return cfg.Electrodes
}

// ChannelThresholds resolves the per-channel thresholds, applying defaults and overrides.
func (cfg *Config) ChannelThresholds() (ChannelThresholds, error) {
	touch, release := DefaultTouchThreshold, DefaultReleaseThreshold
	if cfg.TouchThreshold != nil {
		touch = *cfg.TouchThreshold
	}
	if cfg.ReleaseThreshold != nil {
		release = *cfg.ReleaseThreshold
	}
	if err := checkThresholdRange("touch_threshold", touch); err != nil {
		return ChannelThresholds{}, err
	}
	if err := checkThresholdRange("release_threshold", release); err != nil {
		return ChannelThresholds{}, err
	}
	thresholds := UniformThresholds(uint8(touch), uint8(release))
	for _, o := range cfg.Thresholds {
		if o.Channel < 0 || o.Channel >= NumChannels {
			return ChannelThresholds{}, errors.Errorf("threshold override channel must be between 0 and %d, got %d",
				NumChannels-1, o.Channel)
		}
		if err := checkThresholdRange(fmt.Sprintf("thresholds[%d].touch", o.Channel), o.Touch); err != nil {
			return ChannelThresholds{}, err
		}
		if err := checkThresholdRange(fmt.Sprintf("thresholds[%d].release", o.Channel), o.Release); err != nil {
			return ChannelThresholds{}, err
		}
		thresholds[o.Channel] = Threshold{Touch: uint8(o.Touch), Release: uint8(o.Release)}
	}
	if err := thresholds.Validate(); err != nil {
		return ChannelThresholds{}, err
	}
	return thresholds, nil
}

func checkThresholdRange(name string, v int) error {
	if v < 0 || v > 255 {
		return errors.Errorf("%s must be between 0 and 255, got %d", name, v)
	}
	return nil
}

// Settings resolves every chip setting the config describes, applying defaults.
func (cfg *Config) Settings() (Settings, error) {
	thresholds, err := cfg.ChannelThresholds()
	if err != nil {
		return Settings{}, err
	}
	s := DefaultSettings()
	s.Thresholds = thresholds
	s.Electrodes = cfg.electrodes()
	s.DebounceTouch = uint8(cfg.DebounceTouch)
	s.DebounceRelease = uint8(cfg.DebounceRelease)
	if cfg.ChargeCurrent != 0 {
		s.ChargeCurrent = uint8(cfg.ChargeCurrent)
	}
	if cfg.ChargeTime != 0 {
		s.ChargeTime = uint8(cfg.ChargeTime)
	}
	return s, nil
}

func (cfg *Config) address() byte {
	if cfg.I2CAddr == 0 {
		return DefaultAddress
	}
	return byte(cfg.I2CAddr)
}

func (cfg *Config) pollInterval() time.Duration {
	if cfg.PollIntervalMs == 0 {
		return DefaultPollInterval
	}
	return time.Duration(cfg.PollIntervalMs) * time.Millisecond
}

func (cfg *Config) baudRate() int {
	if cfg.SerialBaudRate == 0 {
		return DefaultSerialBaudRate
	}
	return cfg.SerialBaudRate
}

// controls returns the control name of every active electrode.
func (cfg *Config) controls() []input.Control {
	if len(cfg.Controls) > 0 {
		return lo.Map(cfg.Controls, func(name string, _ int) input.Control { return input.Control(name) })
	}
	return lo.Times(cfg.electrodes(), func(i int) input.Control {
		return input.Control(fmt.Sprintf("Electrode%d", i))
	})
}

// Threshold is the pair of touch and release thresholds of one channel.
type Threshold struct {
	Touch   uint8
	Release uint8
}

// ChannelThresholds holds the thresholds of every channel, indexed by channel.
type ChannelThresholds [NumChannels]Threshold

// UniformThresholds returns thresholds that are the same on every channel.
func UniformThresholds(touch, release uint8) ChannelThresholds {
	var ct ChannelThresholds
	for i := range ct {
		ct[i] = Threshold{Touch: touch, Release: release}
	}
	return ct
}

// Validate checks that every channel's touch threshold is above its release threshold.
func (ct ChannelThresholds) Validate() error {
	for ch, th := range ct {
		if th.Touch <= th.Release {
			return &ThresholdError{Channel: ch, Touch: th.Touch, Release: th.Release}
		}
	}
	return nil
}

// ThresholdError reports a channel whose touch threshold does not exceed its release threshold.
type ThresholdError struct {
	Channel int
	Touch   uint8
	Release uint8
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("channel %d: touch threshold %d must be greater than release threshold %d",
		e.Channel, e.Touch, e.Release)
}

// Settings are the resolved values the config sequence is built from.
type Settings struct {
	Thresholds      ChannelThresholds
	Electrodes      int
	DebounceTouch   uint8
	DebounceRelease uint8
	// ChargeCurrent is the global charge/discharge current in µA.
	ChargeCurrent uint8
	// ChargeTime is the global charge/discharge time encoding; 1 is 0.5 µs.
	ChargeTime uint8
}

// DefaultSettings returns the settings of a chip configured with every default.
func DefaultSettings() Settings {
	return Settings{
		Thresholds:    UniformThresholds(DefaultTouchThreshold, DefaultReleaseThreshold),
		Electrodes:    NumChannels,
		ChargeCurrent: DefaultChargeCurrent,
		ChargeTime:    DefaultChargeTime,
	}
}
