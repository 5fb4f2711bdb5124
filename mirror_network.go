package hedera

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

const mirrorChannelCacheSize = 16

// MirrorNetwork rotates over mirror node addresses. It keeps no health
// state; a failed mirror call is left to the caller.
type MirrorNetwork struct {
	mu        sync.Mutex
	addresses []string
	next      int
	factory   MirrorChannelFactory
	channels  *lru.Cache[string, MirrorChannel]
	closed    atomic.Bool
	closeErr  *multierror.Error
}

func newMirrorNetwork(factory MirrorChannelFactory) *MirrorNetwork {
	m := &MirrorNetwork{factory: factory}
	channels, err := lru.NewWithEvict[string, MirrorChannel](mirrorChannelCacheSize, m.evicted)
	if err != nil {
		panic(err)
	}
	m.channels = channels
	return m
}

// evicted closes a channel leaving the cache. It runs with m.mu held; during
// Close the errors are collected instead of logged.
func (m *MirrorNetwork) evicted(address string, channel MirrorChannel) {
	err := channel.Close()
	if err == nil {
		return
	}
	err = errors.Wrapf(err, "failed to close mirror channel to %s", address)
	if m.closeErr != nil {
		m.closeErr = multierror.Append(m.closeErr, err)
		return
	}
	log.Warn().Err(err).Msg("mirror channel evicted")
}

// SetAddresses replaces the rotation. Channels to addresses no longer listed
// are closed.
func (m *MirrorNetwork) SetAddresses(addresses []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses = append([]string{}, addresses...)
	m.next = 0

	keep := map[string]struct{}{}
	for _, address := range m.addresses {
		keep[address] = struct{}{}
	}
	for _, address := range m.channels.Keys() {
		if _, ok := keep[address]; !ok {
			m.channels.Remove(address)
		}
	}
}

func (m *MirrorNetwork) Addresses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.addresses...)
}

// Next returns the next address in round-robin order.
func (m *MirrorNetwork) Next() (address string, err error) {
	if m.closed.Load() {
		err = errors.WithStack(ErrNetworkClosed)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.addresses) == 0 {
		err = errors.Wrap(ErrConfiguration, "mirror network is empty")
		return
	}
	address = m.addresses[m.next%len(m.addresses)]
	m.next = (m.next + 1) % len(m.addresses)
	return
}

// Channel returns an open channel to the next mirror address.
func (m *MirrorNetwork) Channel() (channel MirrorChannel, err error) {
	address, err := m.Next()
	if err != nil {
		return
	}
	if m.factory == nil {
		err = errors.Wrap(ErrConfiguration, "no mirror channel factory configured")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.channels.Get(address); ok {
		return cached, nil
	}
	if channel, err = m.factory(address); err != nil {
		err = errors.Wrapf(err, "failed to open mirror channel to %s", address)
		return
	}
	m.channels.Add(address, channel)
	return
}

// Close releases every cached mirror channel and reports the channels that
// failed to close. Calling it again is a no-op.
func (m *MirrorNetwork) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeErr = &multierror.Error{}
	m.channels.Purge()
	err := m.closeErr.ErrorOrNil()
	m.closeErr = nil
	return err
}
