// Package inject provides dependency injected structures for mocking interfaces.
package inject

import (
	"context"

	"go.viam.com/touchsense/components/board/genericlinux/buses"
)

// I2C is an injected I2C.
type I2C struct {
	buses.I2C
	OpenHandleFunc func(addr byte) (buses.I2CHandle, error)
}

// OpenHandle calls the injected OpenHandle or the real version.
func (s *I2C) OpenHandle(addr byte) (buses.I2CHandle, error) {
	if s.OpenHandleFunc == nil {
		return s.I2C.OpenHandle(addr)
	}
	return s.OpenHandleFunc(addr)
}

// I2CHandle is an injected I2CHandle.
type I2CHandle struct {
	buses.I2CHandle
	WriteFunc          func(ctx context.Context, tx []byte) error
	ReadFunc           func(ctx context.Context, count int) ([]byte, error)
	ReadByteDataFunc   func(ctx context.Context, register byte) (byte, error)
	WriteByteDataFunc  func(ctx context.Context, register, data byte) error
	ReadBlockDataFunc  func(ctx context.Context, register byte, numBytes uint8) ([]byte, error)
	WriteBlockDataFunc func(ctx context.Context, register byte, data []byte) error
	CloseFunc          func() error
}

// Write calls the injected Write or the real version.
func (handle *I2CHandle) Write(ctx context.Context, tx []byte) error {
	if handle.WriteFunc == nil {
		return handle.I2CHandle.Write(ctx, tx)
	}
	return handle.WriteFunc(ctx, tx)
}

// Read calls the injected Read or the real version.
func (handle *I2CHandle) Read(ctx context.Context, count int) ([]byte, error) {
	if handle.ReadFunc == nil {
		return handle.I2CHandle.Read(ctx, count)
	}
	return handle.ReadFunc(ctx, count)
}

// ReadByteData calls the injected ReadByteDataFunc or the real version.
func (handle *I2CHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	if handle.ReadByteDataFunc == nil {
		return handle.I2CHandle.ReadByteData(ctx, register)
	}
	return handle.ReadByteDataFunc(ctx, register)
}

// WriteByteData calls the injected WriteByteDataFunc or the real version.
func (handle *I2CHandle) WriteByteData(ctx context.Context, register, data byte) error {
	if handle.WriteByteDataFunc == nil {
		return handle.I2CHandle.WriteByteData(ctx, register, data)
	}
	return handle.WriteByteDataFunc(ctx, register, data)
}

// ReadBlockData calls the injected ReadBlockDataFunc or the real version.
func (handle *I2CHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	if handle.ReadBlockDataFunc == nil {
		return handle.I2CHandle.ReadBlockData(ctx, register, numBytes)
	}
	return handle.ReadBlockDataFunc(ctx, register, numBytes)
}

// WriteBlockData calls the injected WriteBlockDataFunc or the real version.
func (handle *I2CHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	if handle.WriteBlockDataFunc == nil {
		return handle.I2CHandle.WriteBlockData(ctx, register, data)
	}
	return handle.WriteBlockDataFunc(ctx, register, data)
}

// Close calls the injected Close or the real version.
func (handle *I2CHandle) Close() error {
	if handle.CloseFunc == nil {
		return handle.I2CHandle.Close()
	}
	return handle.CloseFunc()
}

// TxBus is an injected TinyGo style I2C bus.
type TxBus struct {
	TxFunc            func(addr uint16, w, r []byte) error
	ReadRegisterFunc  func(addr, r uint8, buf []byte) error
	WriteRegisterFunc func(addr, r uint8, buf []byte) error
}

// Tx calls the injected Tx.
func (bus *TxBus) Tx(addr uint16, w, r []byte) error {
	return bus.TxFunc(addr, w, r)
}

// ReadRegister calls the injected ReadRegister or falls back to Tx.
func (bus *TxBus) ReadRegister(addr, r uint8, buf []byte) error {
	if bus.ReadRegisterFunc == nil {
		return bus.Tx(uint16(addr), []byte{r}, buf)
	}
	return bus.ReadRegisterFunc(addr, r, buf)
}

// WriteRegister calls the injected WriteRegister or falls back to Tx.
func (bus *TxBus) WriteRegister(addr, r uint8, buf []byte) error {
	if bus.WriteRegisterFunc == nil {
		return bus.Tx(uint16(addr), append([]byte{r}, buf...), nil)
	}
	return bus.WriteRegisterFunc(addr, r, buf)
}
