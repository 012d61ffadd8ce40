package utils

import (
	"context"

	"go.uber.org/multierr"
)

// Closer is closable type in a TryClose.
type Closer interface {
	Close(context.Context) error
}

// TryClose closes the value if it is a Closer or an io.Closer-like value. Values that are
// neither are left alone.
func TryClose(ctx context.Context, v interface{}) error {
	switch c := v.(type) {
	case Closer:
		return c.Close(ctx)
	case interface{ Close() error }:
		return c.Close()
	default:
		return nil
	}
}

// CloseAll closes every value and combines the errors.
func CloseAll(ctx context.Context, vals ...interface{}) error {
	var err error
	for _, v := range vals {
		err = multierr.Combine(err, TryClose(ctx, v))
	}
	return err
}
