// Package grpcchannel carries pre-encoded node requests over a gRPC
// connection without generated stubs.
package grpcchannel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
)

const (
	DefaultCallTimeout = 10 * time.Second
	// TLSPort is the node port that only accepts TLS connections.
	TLSPort = "50212"
)

var ErrEncoding = fmt.Errorf("raw codec expects *[]byte")

// Codec passes message bytes through unchanged. Both ends must use it.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	b, ok := v.(*[]byte)
	if !ok {
		return nil, errors.Wrapf(ErrEncoding, "got %T", v)
	}
	return *b, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	b, ok := v.(*[]byte)
	if !ok {
		return errors.Wrapf(ErrEncoding, "got %T", v)
	}
	*b = append((*b)[:0], data...)
	return nil
}

func (Codec) Name() string {
	return "raw"
}

// CallError is a failed call to a node. Temporary reports whether the
// failure says something about the node rather than the request.
type CallError struct {
	Address string
	Method  string
	Code    codes.Code
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Address, e.Method, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func (e *CallError) Temporary() bool {
	switch e.Code {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
		return true
	}
	return false
}

type Channel struct {
	address     string
	conn        *grpc.ClientConn
	callTimeout time.Duration
}

// Open dials address lazily. The TLS port gets transport security, every
// other port is plaintext.
func Open(address string, opts ...grpc.DialOption) (channel *Channel, err error) {
	creds := insecure.NewCredentials()
	if _, port, splitErr := net.SplitHostPort(address); splitErr == nil && port == TLSPort {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    10 * time.Second,
			Timeout: DefaultCallTimeout,
		}),
	}, opts...)

	conn, err := grpc.Dial(address, dialOpts...)
	if err != nil {
		err = errors.Wrapf(err, "failed to dial %s", address)
		return
	}

	channel = &Channel{
		address:     address,
		conn:        conn,
		callTimeout: DefaultCallTimeout,
	}
	return
}

func (c *Channel) Address() string {
	return c.address
}

// SetCallTimeout bounds each Invoke. Zero leaves only the caller's context.
func (c *Channel) SetCallTimeout(timeout time.Duration) {
	c.callTimeout = timeout
}

func (c *Channel) Invoke(ctx context.Context, method string, request []byte) (response []byte, err error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	if err = c.conn.Invoke(ctx, method, &request, &response); err != nil {
		err = &CallError{
			Address: c.address,
			Method:  method,
			Code:    status.Code(err),
			Err:     err,
		}
		return nil, err
	}
	return
}

func (c *Channel) Close() error {
	return errors.WithStack(c.conn.Close())
}
