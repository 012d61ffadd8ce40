package inject

import (
	"context"

	"go.viam.com/touchsense/components/board/genericlinux/buses"
)

// TransactionClient is an injected buses.TransactionClient.
type TransactionClient struct {
	buses.TransactionClient
	TransactFunc func(ctx context.Context, req buses.Request) ([]byte, error)
	CloseFunc    func() error
}

// Transact calls the injected Transact or the real version.
func (c *TransactionClient) Transact(ctx context.Context, req buses.Request) ([]byte, error) {
	if c.TransactFunc == nil {
		return c.TransactionClient.Transact(ctx, req)
	}
	return c.TransactFunc(ctx, req)
}

// Close calls the injected Close, if any.
func (c *TransactionClient) Close() error {
	if c.CloseFunc == nil {
		return nil
	}
	return c.CloseFunc()
}
