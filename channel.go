package hedera

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

// Channel performs opaque remote calls against one consensus node. Request
// and response bytes are produced and consumed by the wire codec.
type Channel interface {
	Invoke(ctx context.Context, method string, request []byte) ([]byte, error)
	Close() error
}

// ChannelFactory opens a Channel to a node address.
type ChannelFactory func(address string) (Channel, error)

// MirrorChannel performs read calls against a mirror node.
type MirrorChannel interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Close() error
}

// MirrorChannelFactory opens a MirrorChannel to a mirror node address.
type MirrorChannelFactory func(address string) (MirrorChannel, error)

// isRetryableTransportError decides whether a channel failure should move
// the execution to another node. Errors exposing Temporary() false are
// terminal; everything else is treated as node level flakiness.
func isRetryableTransportError(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}
