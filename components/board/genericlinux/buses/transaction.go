package buses

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Command selects whether a transaction reads from or writes to the peripheral.
type Command byte

// The command selectors that lead every framed request.
const (
	CommandRead  = Command(0x01)
	CommandWrite = Command(0x02)
)

func (c Command) String() string {
	switch c {
	case CommandRead:
		return "read"
	case CommandWrite:
		return "write"
	default:
		return fmt.Sprintf("command(0x%02x)", byte(c))
	}
}

// A Request is a single request/response transaction against a peripheral. For a write, Data is
// the register address followed by the value bytes. For a read, Data is the register address to
// read from and ResponseLength is the number of bytes expected back.
//
// Requests are values; build a fresh one per call and never mutate Data after handing it off.
type Request struct {
	Command        Command
	Address        byte
	Data           []byte
	ResponseLength int
}

// ReadRequest returns a request reading n bytes starting at register.
func ReadRequest(address, register byte, n int) Request {
	return Request{Command: CommandRead, Address: address, Data: []byte{register}, ResponseLength: n}
}

// WriteRequest returns a request writing values starting at register.
func WriteRequest(address, register byte, values ...byte) Request {
	data := make([]byte, 0, len(values)+1)
	data = append(data, register)
	data = append(data, values...)
	return Request{Command: CommandWrite, Address: address, Data: data}
}

// Frame returns the wire form of the request: the command selector, the device address, then the
// register and value bytes.
func (r Request) Frame() []byte {
	frame := make([]byte, 0, len(r.Data)+2)
	frame = append(frame, byte(r.Command), r.Address)
	return append(frame, r.Data...)
}

// Validate checks that the request is well formed.
func (r Request) Validate() error {
	switch r.Command {
	case CommandWrite:
		if len(r.Data) == 0 {
			return errors.New("write request needs a register")
		}
		if r.ResponseLength != 0 {
			return errors.New("write request cannot expect a response")
		}
	case CommandRead:
		if len(r.Data) > 1 {
			return errors.Errorf("read request takes at most one register byte, got %d", len(r.Data))
		}
		if r.ResponseLength <= 0 || r.ResponseLength > 255 {
			return errors.Errorf("read request response length must be in [1, 255], got %d", r.ResponseLength)
		}
	default:
		return errors.Errorf("unknown command %s", r.Command)
	}
	return nil
}

func (r Request) String() string {
	if len(r.Data) == 0 {
		return fmt.Sprintf("%s at 0x%02x", r.Command, r.Address)
	}
	return fmt.Sprintf("%s of register 0x%02x at 0x%02x", r.Command, r.Data[0], r.Address)
}

// BusError is returned whenever a transaction did not happen. Callers must never infer device
// state from a failed transaction.
type BusError struct {
	Request Request
	Err     error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s failed: %v", e.Request, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *BusError) Unwrap() error {
	return e.Err
}

// A TransactionClient performs one request/response transaction at a time against a peripheral.
// On success it returns exactly ResponseLength bytes; on failure it returns a *BusError.
type TransactionClient interface {
	Transact(ctx context.Context, req Request) ([]byte, error)
}

// checkResponse makes sure a transport returned the number of bytes the request asked for.
func checkResponse(req Request, data []byte) ([]byte, error) {
	if len(data) != req.ResponseLength {
		return nil, &BusError{
			Request: req,
			Err:     errors.Errorf("short response: wanted %d bytes, got %d", req.ResponseLength, len(data)),
		}
	}
	return data, nil
}
