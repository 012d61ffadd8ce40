package mpr121

import (
	"fmt"

	"github.com/pkg/errors"
)

// Step names a stage of chip initialization.
type Step int

// The stages of initialization, in the order they run.
const (
	StepSoftReset Step = iota
	StepEnterStopMode
	StepThresholds
	StepFilters
	StepDebounceAndCharge
	StepExitStopMode
)

func (s Step) String() string {
	switch s {
	case StepSoftReset:
		return "soft reset"
	case StepEnterStopMode:
		return "enter stop mode"
	case StepThresholds:
		return "thresholds"
	case StepFilters:
		return "baseline filters"
	case StepDebounceAndCharge:
		return "debounce and charge"
	case StepExitStopMode:
		return "exit stop mode"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// RegisterWrite is a single register assignment issued as one transaction.
type RegisterWrite struct {
	Register byte
	Value    byte
	Step     Step
}

// ConfigSequence is the ordered list of writes that takes the chip from reset to running.
// It cannot be changed once built.
type ConfigSequence struct {
	writes []RegisterWrite
}

// Writes returns a copy of the writes in order.
func (s ConfigSequence) Writes() []RegisterWrite {
	return append([]RegisterWrite(nil), s.writes...)
}

// Len returns the number of writes in the sequence.
func (s ConfigSequence) Len() int {
	return len(s.writes)
}

// filterSettings are the baseline filter values for rising, falling and touched data.
var filterSettings = []RegisterWrite{
	{Register: mhdRisingRegister, Value: 0x01},
	{Register: nhdRisingRegister, Value: 0x01},
	{Register: nclRisingRegister, Value: 0x0E},
	{Register: fdlRisingRegister, Value: 0x00},
	{Register: mhdFallingRegister, Value: 0x01},
	{Register: nhdFallingRegister, Value: 0x05},
	{Register: nclFallingRegister, Value: 0x01},
	{Register: fdlFallingRegister, Value: 0x00},
	{Register: nhdTouchedRegister, Value: 0x00},
	{Register: nclTouchedRegister, Value: 0x00},
	{Register: fdlTouchedRegister, Value: 0x00},
}

// BuildSequence returns the initialization sequence for the given settings.
func BuildSequence(s Settings) (ConfigSequence, error) {
	if err := s.Thresholds.Validate(); err != nil {
		return ConfigSequence{}, err
	}
	if s.Electrodes < 1 || s.Electrodes > NumChannels {
		return ConfigSequence{}, errors.Errorf("electrodes must be between 1 and %d, got %d", NumChannels, s.Electrodes)
	}
	if s.DebounceTouch > 7 || s.DebounceRelease > 7 {
		return ConfigSequence{}, errors.Errorf("debounce counts must be at most 7, got touch %d release %d",
			s.DebounceTouch, s.DebounceRelease)
	}
	if s.ChargeCurrent < 1 || s.ChargeCurrent > 63 {
		return ConfigSequence{}, errors.Errorf("charge current must be between 1 and 63 µA, got %d", s.ChargeCurrent)
	}
	if s.ChargeTime < 1 || s.ChargeTime > 7 {
		return ConfigSequence{}, errors.Errorf("charge time must be between 1 and 7, got %d", s.ChargeTime)
	}

	writes := make([]RegisterWrite, 0, 2+2*NumChannels+len(filterSettings)+4)
	writes = append(writes,
		RegisterWrite{Register: softResetRegister, Value: softResetValue, Step: StepSoftReset},
		RegisterWrite{Register: ecrRegister, Value: stopModeValue, Step: StepEnterStopMode},
	)
	// Every channel is written, active or not.
	for ch, th := range s.Thresholds {
		writes = append(writes,
			RegisterWrite{Register: TouchThresholdRegister(ch), Value: th.Touch, Step: StepThresholds},
			RegisterWrite{Register: ReleaseThresholdRegister(ch), Value: th.Release, Step: StepThresholds},
		)
	}
	for _, w := range filterSettings {
		w.Step = StepFilters
		writes = append(writes, w)
	}
	writes = append(writes,
		RegisterWrite{Register: debounceRegister, Value: s.DebounceRelease<<4 | s.DebounceTouch, Step: StepDebounceAndCharge},
		// FFI stays at 6 samples (0b00).
		RegisterWrite{Register: config1Register, Value: s.ChargeCurrent, Step: StepDebounceAndCharge},
		// SFI stays at 4 samples and ESI at 1 ms.
		RegisterWrite{Register: config2Register, Value: s.ChargeTime << 5, Step: StepDebounceAndCharge},
		RegisterWrite{Register: ecrRegister, Value: ecrBaselineTracking | byte(s.Electrodes), Step: StepExitStopMode},
	)
	return ConfigSequence{writes: writes}, nil
}

// InitError reports the write that aborted initialization. The chip is in an unknown state and
// must be initialized again from the start.
type InitError struct {
	Step     Step
	Register byte
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("mpr121 initialization failed at %s writing register 0x%02x: %v", e.Step, e.Register, e.Err)
}

// Unwrap returns the underlying bus error.
func (e *InitError) Unwrap() error {
	return e.Err
}
