package mpr121

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/touchsense/components/board/genericlinux/buses"
	"go.viam.com/touchsense/logging"
)

func TestThresholdRegisters(t *testing.T) {
	var addrs []byte
	seen := map[byte]bool{}
	for ch := 0; ch < NumChannels; ch++ {
		touch, release := TouchThresholdRegister(ch), ReleaseThresholdRegister(ch)
		test.That(t, touch, test.ShouldEqual, byte(0x41+2*ch))
		test.That(t, release, test.ShouldEqual, byte(0x42+2*ch))
		addrs = append(addrs, touch, release)
		test.That(t, seen[touch], test.ShouldBeFalse)
		test.That(t, seen[release], test.ShouldBeFalse)
		seen[touch] = true
		seen[release] = true
	}
	for i := 1; i < len(addrs); i++ {
		test.That(t, addrs[i], test.ShouldBeGreaterThan, addrs[i-1])
	}
	test.That(t, addrs[len(addrs)-1], test.ShouldEqual, byte(0x58))
}

func TestChannelThresholdsValidate(t *testing.T) {
	test.That(t, UniformThresholds(12, 6).Validate(), test.ShouldBeNil)

	for _, tc := range []struct {
		name    string
		touch   uint8
		release uint8
	}{
		{"equal", 6, 6},
		{"inverted", 5, 6},
		{"zero", 0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ct := UniformThresholds(12, 6)
			ct[7] = Threshold{Touch: tc.touch, Release: tc.release}
			err := ct.Validate()
			var thErr *ThresholdError
			test.That(t, errors.As(err, &thErr), test.ShouldBeTrue)
			test.That(t, thErr.Channel, test.ShouldEqual, 7)
			test.That(t, thErr.Touch, test.ShouldEqual, tc.touch)
			test.That(t, thErr.Release, test.ShouldEqual, tc.release)
		})
	}
}

func defaultWrites() []RegisterWrite {
	writes := []RegisterWrite{
		{0x80, 0x63, StepSoftReset},
		{0x5E, 0x00, StepEnterStopMode},
	}
	for ch := 0; ch < NumChannels; ch++ {
		writes = append(writes,
			RegisterWrite{byte(0x41 + 2*ch), 12, StepThresholds},
			RegisterWrite{byte(0x42 + 2*ch), 6, StepThresholds},
		)
	}
	writes = append(writes,
		RegisterWrite{0x2B, 0x01, StepFilters},
		RegisterWrite{0x2C, 0x01, StepFilters},
		RegisterWrite{0x2D, 0x0E, StepFilters},
		RegisterWrite{0x2E, 0x00, StepFilters},
		RegisterWrite{0x2F, 0x01, StepFilters},
		RegisterWrite{0x30, 0x05, StepFilters},
		RegisterWrite{0x31, 0x01, StepFilters},
		RegisterWrite{0x32, 0x00, StepFilters},
		RegisterWrite{0x33, 0x00, StepFilters},
		RegisterWrite{0x34, 0x00, StepFilters},
		RegisterWrite{0x35, 0x00, StepFilters},
		RegisterWrite{0x5B, 0x00, StepDebounceAndCharge},
		RegisterWrite{0x5C, 0x10, StepDebounceAndCharge},
		RegisterWrite{0x5D, 0x20, StepDebounceAndCharge},
		RegisterWrite{0x5E, 0x8C, StepExitStopMode},
	)
	return writes
}

func TestBuildSequenceDefaults(t *testing.T) {
	seq, err := BuildSequence(DefaultSettings())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seq.Len(), test.ShouldEqual, 41)
	if diff := cmp.Diff(defaultWrites(), seq.Writes()); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}

	// callers cannot change a built sequence
	writes := seq.Writes()
	writes[0].Value = 0xFF
	test.That(t, seq.Writes()[0].Value, test.ShouldEqual, byte(0x63))
}

func TestBuildSequenceSettings(t *testing.T) {
	s := DefaultSettings()
	s.Electrodes = 4
	s.DebounceTouch = 2
	s.DebounceRelease = 3
	s.ChargeCurrent = 32
	s.ChargeTime = 2
	s.Thresholds[3] = Threshold{Touch: 40, Release: 20}

	seq, err := BuildSequence(s)
	test.That(t, err, test.ShouldBeNil)
	byRegister := map[byte]byte{}
	for _, w := range seq.Writes() {
		byRegister[w.Register] = w.Value
	}
	test.That(t, byRegister[debounceRegister], test.ShouldEqual, byte(0x32))
	test.That(t, byRegister[config1Register], test.ShouldEqual, byte(0x20))
	test.That(t, byRegister[config2Register], test.ShouldEqual, byte(0x40))
	test.That(t, byRegister[ecrRegister], test.ShouldEqual, byte(0x84))
	test.That(t, byRegister[TouchThresholdRegister(3)], test.ShouldEqual, byte(40))
	test.That(t, byRegister[ReleaseThresholdRegister(3)], test.ShouldEqual, byte(20))
	test.That(t, byRegister[TouchThresholdRegister(4)], test.ShouldEqual, byte(12))
}

func TestBuildSequenceInvalid(t *testing.T) {
	s := DefaultSettings()
	s.Thresholds[11] = Threshold{Touch: 6, Release: 6}
	_, err := BuildSequence(s)
	var thErr *ThresholdError
	test.That(t, errors.As(err, &thErr), test.ShouldBeTrue)
	test.That(t, thErr.Channel, test.ShouldEqual, 11)

	for _, mutate := range []func(*Settings){
		func(s *Settings) { s.Electrodes = 0 },
		func(s *Settings) { s.Electrodes = 13 },
		func(s *Settings) { s.DebounceTouch = 8 },
		func(s *Settings) { s.ChargeCurrent = 64 },
		func(s *Settings) { s.ChargeTime = 0 },
	} {
		s := DefaultSettings()
		mutate(&s)
		_, err := BuildSequence(s)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	seq, err := BuildSequence(DefaultSettings())
	test.That(t, err, test.ShouldBeNil)

	t.Run("frames", func(t *testing.T) {
		chip := newFakeChip()
		dev := NewDevice(chip.client(), 0x5A, logger)
		test.That(t, dev.Initialize(ctx, seq), test.ShouldBeNil)

		frames := chip.writtenFrames()
		test.That(t, len(frames), test.ShouldEqual, 41)
		test.That(t, frames[0], test.ShouldResemble, []byte{0x02, 0x5A, 0x80, 0x63})
		test.That(t, frames[1], test.ShouldResemble, []byte{0x02, 0x5A, 0x5E, 0x00})
		test.That(t, frames[2], test.ShouldResemble, []byte{0x02, 0x5A, 0x41, 12})
		test.That(t, frames[3], test.ShouldResemble, []byte{0x02, 0x5A, 0x42, 6})
		test.That(t, frames[40], test.ShouldResemble, []byte{0x02, 0x5A, 0x5E, 0x8C})
	})

	t.Run("deterministic", func(t *testing.T) {
		chip := newFakeChip()
		dev := NewDevice(chip.client(), 0x5B, logger)
		test.That(t, dev.Initialize(ctx, seq), test.ShouldBeNil)
		first := chip.writtenFrames()
		chip.reset()
		test.That(t, dev.Initialize(ctx, seq), test.ShouldBeNil)
		if diff := cmp.Diff(first, chip.writtenFrames()); diff != "" {
			t.Fatalf("second initialization differs (-first +second):\n%s", diff)
		}
	})

	for _, tc := range []struct {
		failAt   int
		step     Step
		register byte
	}{
		{0, StepSoftReset, 0x80},
		{1, StepEnterStopMode, 0x5E},
		{7, StepThresholds, 0x46},
		{26, StepFilters, 0x2B},
		{38, StepDebounceAndCharge, 0x5C},
		{40, StepExitStopMode, 0x5E},
	} {
		t.Run("abort at "+tc.step.String(), func(t *testing.T) {
			chip := newFakeChip()
			chip.failWrite = tc.failAt
			dev := NewDevice(chip.client(), 0x5A, logger)
			err := dev.Initialize(ctx, seq)

			var initErr *InitError
			test.That(t, errors.As(err, &initErr), test.ShouldBeTrue)
			test.That(t, initErr.Step, test.ShouldEqual, tc.step)
			test.That(t, initErr.Register, test.ShouldEqual, tc.register)
			var busErr *buses.BusError
			test.That(t, errors.As(err, &busErr), test.ShouldBeTrue)
			test.That(t, errors.Is(err, errNack), test.ShouldBeTrue)

			// nothing after the failed write was attempted
			test.That(t, chip.writes, test.ShouldEqual, tc.failAt+1)
			test.That(t, len(chip.writtenFrames()), test.ShouldEqual, tc.failAt)
		})
	}
}

func TestDeviceReads(t *testing.T) {
	ctx := context.Background()
	chip := newFakeChip(0x0803)
	chip.data[filteredDataBaseRegister+2*3] = []byte{0xFF, 0xFE}
	chip.data[baselineBaseRegister+12] = []byte{0x40}
	dev := NewDevice(chip.client(), 0x5A, logging.NewTestLogger(t))

	status, err := dev.ReadTouchStatus(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, TouchBitmask(0x0803))
	test.That(t, status.Channels(), test.ShouldResemble, []int{0, 1, 11})

	filtered, err := dev.ReadFilteredData(ctx, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, filtered, test.ShouldEqual, uint16(0x2FF))

	baseline, err := dev.ReadBaselineData(ctx, 12)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, baseline, test.ShouldEqual, uint16(0x100))

	_, err = dev.ReadFilteredData(ctx, 13)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = dev.ReadBaselineData(ctx, -1)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, dev.Stop(ctx), test.ShouldBeNil)
	frames := chip.writtenFrames()
	test.That(t, frames[len(frames)-1], test.ShouldResemble, []byte{0x02, 0x5A, 0x5E, 0x00})
}
