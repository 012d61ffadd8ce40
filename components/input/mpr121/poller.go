package mpr121

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// TouchBitmask has bit i set when electrode i is touched. Only the low 12 bits are used.
type TouchBitmask uint16

// Touched reports whether the given channel is touched.
func (b TouchBitmask) Touched(channel int) bool {
	return b&(1<<channel) != 0
}

// Channels returns the touched channels in ascending order.
func (b TouchBitmask) Channels() []int {
	var out []int
	for ch := 0; ch < NumChannels; ch++ {
		if b.Touched(ch) {
			out = append(out, ch)
		}
	}
	return out
}

// DecodeTouchStatus assembles the touch status from the two status registers. The first byte is
// the low register; the reserved and over-current bits above bit 11 are dropped.
func DecodeTouchStatus(data []byte) (TouchBitmask, error) {
	if len(data) < 2 {
		return 0, errors.Errorf("touch status needs 2 bytes, got %d", len(data))
	}
	raw := uint16(data[0]) | uint16(data[1])<<8
	return TouchBitmask(raw & touchStatusMask), nil
}

// EdgeKind is the direction of a touch transition.
type EdgeKind int

// The two transitions an electrode can make.
const (
	Touched EdgeKind = iota
	Released
)

func (k EdgeKind) String() string {
	switch k {
	case Touched:
		return "touched"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("edge(%d)", int(k))
	}
}

// TouchEvent is a single transition of one electrode.
type TouchEvent struct {
	Channel int
	Kind    EdgeKind
}

// Edges returns the transitions between two readings, in ascending channel order.
func Edges(previous, current TouchBitmask) []TouchEvent {
	previous &= touchStatusMask
	current &= touchStatusMask
	var events []TouchEvent
	for ch := 0; ch < NumChannels; ch++ {
		was, is := previous.Touched(ch), current.Touched(ch)
		switch {
		case is && !was:
			events = append(events, TouchEvent{Channel: ch, Kind: Touched})
		case was && !is:
			events = append(events, TouchEvent{Channel: ch, Kind: Released})
		}
	}
	return events
}

// PollState is the last reading a poller saw. It belongs to a single poller run.
type PollState struct {
	Previous TouchBitmask
}

// PollError is returned when a status read fails. The caller decides whether to initialize the
// chip again and restart polling.
type PollError struct {
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("mpr121 touch status read failed: %v", e.Err)
}

// Unwrap returns the underlying bus error.
func (e *PollError) Unwrap() error {
	return e.Err
}

// Poller reads the touch status on an interval and reports every transition.
type Poller struct {
	Device *Device
	// Interval between reads; DefaultPollInterval when zero.
	Interval time.Duration
	// Clock drives the interval; the wall clock when nil.
	Clock clock.Clock
	// OnRead, if set, is called with every successful reading before its events are reported.
	OnRead func(TouchBitmask)
}

// Run polls until ctx is done, calling onEvent for each transition. It returns nil once
// cancelled and a *PollError if a read fails. state is updated after every reading.
func (p *Poller) Run(ctx context.Context, state *PollState, onEvent func(TouchEvent)) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		current, err := p.Device.ReadTouchStatus(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &PollError{Err: err}
		}
		if p.OnRead != nil {
			p.OnRead(current)
		}
		for _, ev := range Edges(state.Previous, current) {
			onEvent(ev)
		}
		state.Previous = current

		timer := clk.Timer(interval)
		if !goutils.SelectContextOrWaitChan(ctx, timer.C) {
			timer.Stop()
			return nil
		}
	}
}
