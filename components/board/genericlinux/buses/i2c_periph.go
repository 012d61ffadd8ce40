package buses

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2cBus is an I2C bus opened through periph.io's host drivers.
type I2cBus struct {
	mu         sync.Mutex
	bus        i2c.BusCloser
	deviceName string
}

// NewI2cBus creates a new I2cBus for the given device name, such as "1" or "/dev/i2c-1".
func NewI2cBus(deviceName string) (*I2cBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize host drivers")
	}
	b, err := i2creg.Open(deviceName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open i2c bus %q", deviceName)
	}
	return newI2cBus(deviceName, b), nil
}

func newI2cBus(deviceName string, b i2c.BusCloser) *I2cBus {
	return &I2cBus{bus: b, deviceName: deviceName}
}

// OpenHandle opens a handle to perform I2C transactions to a device with a specific address.
// The bus stays locked until the handle is closed.
func (bus *I2cBus) OpenHandle(addr byte) (I2CHandle, error) {
	bus.mu.Lock()
	if bus.bus == nil {
		bus.mu.Unlock()
		return nil, errors.Errorf("i2c bus %q is closed", bus.deviceName)
	}
	return &I2cHandle{
		device:    &i2c.Dev{Bus: bus.bus, Addr: uint16(addr)},
		parentBus: bus,
	}, nil
}

// Close closes the underlying bus. It must not be called while a handle is open.
func (bus *I2cBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.bus == nil {
		return nil
	}
	err := bus.bus.Close()
	bus.bus = nil
	return err
}

// I2cHandle is an open handle to a device on an I2cBus.
type I2cHandle struct {
	device    *i2c.Dev
	parentBus *I2cBus
	closed    bool
}

// Write writes the given bytes to the handle.
func (h *I2cHandle) Write(ctx context.Context, tx []byte) error {
	return h.device.Tx(tx, nil)
}

// Read reads the given number of bytes from the handle.
func (h *I2cHandle) Read(ctx context.Context, count int) ([]byte, error) {
	buffer := make([]byte, count)
	if err := h.device.Tx(nil, buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}

// ReadByteData reads a single byte from the given register.
func (h *I2cHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	result, err := h.ReadBlockData(ctx, register, 1)
	if err != nil {
		return 0, err
	}
	return result[0], nil
}

// WriteByteData writes a single byte to the given register.
func (h *I2cHandle) WriteByteData(ctx context.Context, register, data byte) error {
	return h.device.Tx([]byte{register, data}, nil)
}

// ReadBlockData reads numBytes starting at the given register in a single repeated-start transaction.
func (h *I2cHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	result := make([]byte, numBytes)
	if err := h.device.Tx([]byte{register}, result); err != nil {
		return nil, err
	}
	return result, nil
}

// WriteBlockData writes the given bytes starting at the given register.
func (h *I2cHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, register)
	buf = append(buf, data...)
	return h.device.Tx(buf, nil)
}

// Close releases the bus lock held by this handle.
func (h *I2cHandle) Close() error {
	if h.closed {
		return fmt.Errorf("i2c handle for address 0x%02x already closed", h.device.Addr)
	}
	h.closed = true
	h.parentBus.mu.Unlock()
	return nil
}
