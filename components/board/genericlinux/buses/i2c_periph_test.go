package buses

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestI2cBusHandles(t *testing.T) {
	ctx := context.Background()
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x5A, W: []byte{0x80, 0x63}},
			{Addr: 0x5A, W: []byte{0x00}, R: []byte{0x01, 0x08}},
		},
		DontPanic: true,
	}
	bus := newI2cBus("test", playback)

	handle, err := bus.OpenHandle(0x5A)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, handle.WriteByteData(ctx, 0x80, 0x63), test.ShouldBeNil)

	// a second handle waits for the first to be closed
	opened := make(chan I2CHandle)
	go func() {
		second, err := bus.OpenHandle(0x5A)
		test.That(t, err, test.ShouldBeNil)
		opened <- second
	}()
	select {
	case <-opened:
		t.Fatal("second handle opened while the first was still open")
	case <-time.After(20 * time.Millisecond):
	}

	test.That(t, handle.Close(), test.ShouldBeNil)
	test.That(t, handle.Close(), test.ShouldNotBeNil)

	second := <-opened
	data, err := second.ReadBlockData(ctx, 0x00, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, data, test.ShouldResemble, []byte{0x01, 0x08})
	test.That(t, second.Close(), test.ShouldBeNil)

	test.That(t, bus.Close(), test.ShouldBeNil)
	test.That(t, bus.Close(), test.ShouldBeNil)
	_, err = bus.OpenHandle(0x5A)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "closed")
}
