package hedera

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

// Node is one consensus node in the pool. Its health is owned by the
// Network; callers only get read access.
type Node struct {
	accountID AccountID
	address   string

	mu             sync.Mutex
	failedAttempts int
	nextRetryAt    time.Time
	lastFailedAt   time.Time
	channel        Channel
	breaker        *gobreaker.CircuitBreaker
}

func newNode(accountID AccountID, address string, breaker *gobreaker.Settings) *Node {
	n := &Node{
		accountID: accountID.WithoutChecksum(),
		address:   address,
	}
	if breaker != nil {
		settings := *breaker
		settings.Name = address
		n.breaker = gobreaker.NewCircuitBreaker(settings)
	}
	return n
}

func (n *Node) AccountID() AccountID {
	return n.accountID
}

func (n *Node) Address() string {
	return n.address
}

func (n *Node) FailedAttempts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.failedAttempts
}

func (n *Node) NextRetryAt() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nextRetryAt
}

// IsHealthy reports whether the node's backoff deadline has passed.
func (n *Node) IsHealthy(now time.Time) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !now.Before(n.nextRetryAt)
}

func (n *Node) remaining(now time.Time) time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nextRetryAt.Sub(now)
}

func (n *Node) health() (nextRetryAt, lastFailedAt time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nextRetryAt, n.lastFailedAt
}

func (n *Node) recordFailure(now time.Time, minBackoff, maxBackoff time.Duration) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failedAttempts++
	n.lastFailedAt = now
	n.nextRetryAt = now.Add(backoffDelay(n.failedAttempts-1, minBackoff, maxBackoff))
	return n.failedAttempts
}

func (n *Node) recordSuccess() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failedAttempts = 0
	n.nextRetryAt = time.Time{}
}

func (n *Node) getChannel(factory ChannelFactory) (channel Channel, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.channel == nil {
		if n.channel, err = factory(n.address); err != nil {
			n.channel = nil
			err = errors.Wrapf(err, "failed to open channel to %s", n.address)
			return
		}
	}
	channel = n.channel
	return
}

// invoke performs the call outside the node lock so concurrent executions
// against the same node do not serialize.
func (n *Node) invoke(ctx context.Context, factory ChannelFactory, method string, request []byte) (response []byte, err error) {
	channel, err := n.getChannel(factory)
	if err != nil {
		return
	}
	if n.breaker == nil {
		return channel.Invoke(ctx, method, request)
	}
	result, err := n.breaker.Execute(func() (interface{}, error) {
		return channel.Invoke(ctx, method, request)
	})
	if err != nil {
		return
	}
	response, _ = result.([]byte)
	return
}

func (n *Node) close() (err error) {
	n.mu.Lock()
	channel := n.channel
	n.channel = nil
	n.mu.Unlock()
	if channel != nil {
		err = errors.Wrapf(channel.Close(), "failed to close channel to %s", n.address)
	}
	return
}
