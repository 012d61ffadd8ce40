package buses

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
	goutils "go.viam.com/utils"
)

// Status bytes a bus bridge answers with ahead of the response data.
const (
	bridgeStatusOK       = 0x00
	bridgeStatusNACK     = 0x01
	bridgeStatusTimeout  = 0x02
	bridgeStatusBusError = 0x03
)

// DefaultSerialReadTimeout bounds how long the serial client waits for a bridge to answer.
const DefaultSerialReadTimeout = 500 * time.Millisecond

// maxStaleBytes bounds how much is discarded while getting back in step with a bridge.
const maxStaleBytes = 1024

var errBridgeSilent = errors.New("bus bridge did not answer")

// SerialTransactionClient forwards framed requests to a bus-owning bridge (typically a
// microcontroller) over a serial link. A request is sent as the frame length, the frame, then the
// expected response length. The bridge answers with a status byte followed by the response data; a failed
// transaction carries no data.
type SerialTransactionClient struct {
	mu   sync.Mutex
	port io.ReadWriter
	// stale is set when a transaction failed after its packet went out. The bridge may still
	// answer it, so that answer has to be discarded before the next request.
	stale bool
}

// NewSerialTransactionClient returns a client speaking the bridge protocol over the given stream.
func NewSerialTransactionClient(port io.ReadWriter) *SerialTransactionClient {
	return &SerialTransactionClient{port: port}
}

// OpenSerialTransactionClient opens the named serial device and returns a client for the bridge
// attached to it.
func OpenSerialTransactionClient(path string, baud int) (*SerialTransactionClient, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        path,
		Baud:        baud,
		ReadTimeout: DefaultSerialReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", path)
	}
	return NewSerialTransactionClient(port), nil
}

// Transact sends one request to the bridge and waits for its answer.
func (c *SerialTransactionClient) Transact(ctx context.Context, req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, &BusError{Request: req, Err: err}
	}
	frame := req.Frame()
	if len(frame) > 255 {
		return nil, &BusError{Request: req, Err: errors.Errorf("frame of %d bytes is too long", len(frame))}
	}
	if err := ctx.Err(); err != nil {
		return nil, &BusError{Request: req, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale {
		c.discardStale()
		c.stale = false
	}

	data, err := c.exchange(ctx, req, frame)
	if err != nil {
		var statusErr *bridgeStatus
		if !errors.As(err, &statusErr) || statusErr.status > bridgeStatusBusError {
			c.stale = true
		}
		return nil, &BusError{Request: req, Err: err}
	}
	return data, nil
}

// exchange writes one packet and reads the bridge's answer to it.
func (c *SerialTransactionClient) exchange(ctx context.Context, req Request, frame []byte) ([]byte, error) {
	packet := make([]byte, 0, len(frame)+2)
	packet = append(packet, byte(len(frame)))
	packet = append(packet, frame...)
	packet = append(packet, byte(req.ResponseLength))
	if _, err := c.port.Write(packet); err != nil {
		return nil, errors.Wrap(err, "failed to write to bridge")
	}

	status := make([]byte, 1)
	if err := readFull(ctx, c.port, status); err != nil {
		return nil, err
	}
	if err := bridgeStatusError(status[0]); err != nil {
		return nil, err
	}
	if req.Command == CommandWrite {
		return nil, nil
	}
	data := make([]byte, req.ResponseLength)
	if err := readFull(ctx, c.port, data); err != nil {
		return nil, err
	}
	return data, nil
}

// discardStale drops whatever the bridge sent for an earlier failed transaction: the port's
// buffers are flushed if it can do that, then reads continue until the port goes quiet.
func (c *SerialTransactionClient) discardStale() {
	if flusher, ok := c.port.(interface{ Flush() error }); ok {
		goutils.UncheckedError(flusher.Flush())
	}
	buf := make([]byte, 64)
	for discarded := 0; discarded < maxStaleBytes; {
		n, err := c.port.Read(buf)
		discarded += n
		if n == 0 || err != nil {
			return
		}
	}
}

// Close closes the underlying port if it can be closed.
func (c *SerialTransactionClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if closer, ok := c.port.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// readFull is io.ReadFull for ports that report a read timeout as zero bytes and no error.
func readFull(ctx context.Context, r io.Reader, buf []byte) error {
	for read := 0; read < len(buf); {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf[read:])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) && read < len(buf) {
				return io.ErrUnexpectedEOF
			}
			if read < len(buf) {
				return err
			}
		}
		if n == 0 && err == nil {
			return errBridgeSilent
		}
	}
	return nil
}

// bridgeStatus is a failure the bridge reported in its status byte. The bridge sends no data after
// a known failure status, so the link stays in step; an unknown status means it is not.
type bridgeStatus struct {
	status byte
	msg    string
}

func (e *bridgeStatus) Error() string {
	return e.msg
}

func bridgeStatusError(status byte) error {
	switch status {
	case bridgeStatusOK:
		return nil
	case bridgeStatusNACK:
		return &bridgeStatus{status, "peripheral did not acknowledge"}
	case bridgeStatusTimeout:
		return &bridgeStatus{status, "bridge timed out waiting for the peripheral"}
	case bridgeStatusBusError:
		return &bridgeStatus{status, "bridge reported a bus error"}
	default:
		return &bridgeStatus{status, fmt.Sprintf("bridge returned unknown status 0x%02x", status)}
	}
}
