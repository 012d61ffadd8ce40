package mpr121

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/touchsense/components/board/genericlinux/buses"
	"go.viam.com/touchsense/logging"
)

// Device talks to one MPR121 through a transaction client. All of its transactions are
// serialized, so a sequence is never interleaved with reads.
type Device struct {
	mu      sync.Mutex
	client  buses.TransactionClient
	address byte
	logger  logging.Logger
}

// NewDevice returns a Device for the chip at address.
func NewDevice(client buses.TransactionClient, address byte, logger logging.Logger) *Device {
	return &Device{client: client, address: address, logger: logger}
}

// Address returns the I2C address of the chip.
func (d *Device) Address() byte {
	return d.address
}

// Initialize issues every write of the sequence in order. The first failed write aborts the
// sequence with an *InitError and nothing after it is written. Calling Initialize again runs the
// whole sequence again, starting with the soft reset.
func (d *Device) Initialize(ctx context.Context, seq ConfigSequence) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, w := range seq.writes {
		d.logger.CDebugw(ctx, "writing register", "step", w.Step.String(), "register", w.Register, "value", w.Value)
		if err := d.writeRegister(ctx, w.Register, w.Value); err != nil {
			return &InitError{Step: w.Step, Register: w.Register, Err: err}
		}
	}
	d.logger.CInfof(ctx, "initialized mpr121 at 0x%02x with %d register writes", d.address, len(seq.writes))
	return nil
}

// Stop puts the chip in stop mode, halting electrode sampling.
func (d *Device) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(ctx, ecrRegister, stopModeValue)
}

// ReadTouchStatus reads the touch status registers and returns the touched electrodes.
func (d *Device) ReadTouchStatus(ctx context.Context) (TouchBitmask, error) {
	data, err := d.read(ctx, touchStatusRegister, 2)
	if err != nil {
		return 0, err
	}
	return DecodeTouchStatus(data)
}

// ReadFilteredData reads the 10-bit filtered electrode data of a channel. Channel 12 is the
// proximity electrode.
func (d *Device) ReadFilteredData(ctx context.Context, channel int) (uint16, error) {
	if err := checkDataChannel(channel); err != nil {
		return 0, err
	}
	data, err := d.read(ctx, byte(filteredDataBaseRegister+2*channel), 2)
	if err != nil {
		return 0, err
	}
	return (uint16(data[0]) | uint16(data[1])<<8) & filteredMask, nil
}

// ReadBaselineData reads the baseline value of a channel. The chip only stores the high 8 of the
// 10 bits, so the result is a multiple of 4.
func (d *Device) ReadBaselineData(ctx context.Context, channel int) (uint16, error) {
	if err := checkDataChannel(channel); err != nil {
		return 0, err
	}
	data, err := d.read(ctx, byte(baselineBaseRegister+channel), 1)
	if err != nil {
		return 0, err
	}
	return uint16(data[0]) << 2, nil
}

func checkDataChannel(channel int) error {
	if channel < 0 || channel >= numDataChannels {
		return errors.Errorf("channel must be between 0 and %d, got %d", numDataChannels-1, channel)
	}
	return nil
}

func (d *Device) read(ctx context.Context, register byte, n int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client.Transact(ctx, buses.ReadRequest(d.address, register, n))
}

func (d *Device) writeRegister(ctx context.Context, register, value byte) error {
	_, err := d.client.Transact(ctx, buses.WriteRequest(d.address, register, value))
	return err
}
