package buses

import (
	"context"
	"io"
	"sync"

	"go.uber.org/multierr"
)

// i2cTransactionClient runs transactions through a handle opened on a shared I2C bus.
type i2cTransactionClient struct {
	mu  sync.Mutex
	bus I2C
}

// NewI2CTransactionClient returns a TransactionClient that performs every transaction through a
// short-lived handle on the given bus.
func NewI2CTransactionClient(bus I2C) TransactionClient {
	return &i2cTransactionClient{bus: bus}
}

func (c *i2cTransactionClient) Transact(ctx context.Context, req Request) (data []byte, err error) {
	if err := req.Validate(); err != nil {
		return nil, &BusError{Request: req, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &BusError{Request: req, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	handle, err := c.bus.OpenHandle(req.Address)
	if err != nil {
		return nil, &BusError{Request: req, Err: err}
	}
	defer func() {
		if closeErr := handle.Close(); closeErr != nil {
			data = nil
			err = &BusError{Request: req, Err: multierr.Combine(unwrapBusError(err), closeErr)}
		}
	}()

	switch req.Command {
	case CommandWrite:
		if err := handle.Write(ctx, req.Data); err != nil {
			return nil, &BusError{Request: req, Err: err}
		}
		return nil, nil
	default:
		var resp []byte
		if len(req.Data) == 0 {
			resp, err = handle.Read(ctx, req.ResponseLength)
		} else {
			resp, err = handle.ReadBlockData(ctx, req.Data[0], uint8(req.ResponseLength))
		}
		if err != nil {
			return nil, &BusError{Request: req, Err: err}
		}
		return checkResponse(req, resp)
	}
}

func unwrapBusError(err error) error {
	if busErr, ok := err.(*BusError); ok {
		return busErr.Err
	}
	return err
}

// Close closes the bus if it can be closed.
func (c *i2cTransactionClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if closer, ok := c.bus.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
