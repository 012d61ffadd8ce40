package buses

import (
	"context"
	"sync"

	"tinygo.org/x/drivers"
)

// txTransactionClient runs transactions over a TinyGo-style bus exposing a single Tx call.
type txTransactionClient struct {
	mu  sync.Mutex
	bus drivers.I2C
}

// NewTxTransactionClient returns a TransactionClient backed by a drivers.I2C bus, such as a
// machine.I2C on a microcontroller.
func NewTxTransactionClient(bus drivers.I2C) TransactionClient {
	return &txTransactionClient{bus: bus}
}

func (c *txTransactionClient) Transact(ctx context.Context, req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, &BusError{Request: req, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &BusError{Request: req, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var resp []byte
	if req.Command == CommandRead {
		resp = make([]byte, req.ResponseLength)
	}
	if err := c.bus.Tx(uint16(req.Address), req.Data, resp); err != nil {
		return nil, &BusError{Request: req, Err: err}
	}
	if req.Command == CommandWrite {
		return nil, nil
	}
	return checkResponse(req, resp)
}
