package hedera

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorNetworkRoundRobin(t *testing.T) {
	opened := map[string]*fakeMirror{}
	mirrors := newMirrorNetwork(func(address string) (MirrorChannel, error) {
		channel := &fakeMirror{address: address}
		opened[address] = channel
		return channel, nil
	})
	mirrors.SetAddresses([]string{"a:443", "b:443"})

	var seen []string
	for i := 0; i < 4; i++ {
		address, err := mirrors.Next()
		require.NoError(t, err)
		seen = append(seen, address)
	}
	assert.Equal(t, []string{"a:443", "b:443", "a:443", "b:443"}, seen)

	first, err := mirrors.Channel()
	require.NoError(t, err)
	body, err := first.Get(context.Background(), "/api/v1/network/nodes")
	require.NoError(t, err)
	assert.Contains(t, string(body), "a:443")

	_, err = mirrors.Channel()
	require.NoError(t, err)
	again, err := mirrors.Channel()
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Len(t, opened, 2)

	mirrors.SetAddresses([]string{"b:443"})
	assert.True(t, opened["a:443"].closed)
	assert.False(t, opened["b:443"].closed)

	require.NoError(t, mirrors.Close())
	require.NoError(t, mirrors.Close())
	assert.True(t, opened["b:443"].closed)

	_, err = mirrors.Next()
	assert.True(t, errors.Is(err, ErrNetworkClosed))
}

func TestMirrorNetworkEmpty(t *testing.T) {
	mirrors := newMirrorNetwork(nil)
	_, err := mirrors.Channel()
	assert.True(t, errors.Is(err, ErrConfiguration))

	mirrors.SetAddresses([]string{"a:443"})
	_, err = mirrors.Channel()
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestMirrorNetworkCloseReportsErrors(t *testing.T) {
	mirrors := newMirrorNetwork(func(address string) (MirrorChannel, error) {
		return &fakeMirror{address: address, closeErr: errors.New("stuck")}, nil
	})
	mirrors.SetAddresses([]string{"a:443", "b:443"})
	for i := 0; i < 2; i++ {
		_, err := mirrors.Channel()
		require.NoError(t, err)
	}

	err := mirrors.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a:443")
	assert.Contains(t, err.Error(), "b:443")
	assert.NoError(t, mirrors.Close())
}

func TestClientCloseAggregatesMirrorErrors(t *testing.T) {
	client, err := NewClient(&ClientOptions{
		Network:        map[string]AccountID{nodeAddress(0): {Num: 3}},
		ChannelFactory: func(string) (Channel, error) { return &fakeNode{}, nil },
		MirrorChannelFactory: func(address string) (MirrorChannel, error) {
			return &fakeMirror{address: address, closeErr: errors.New("stuck")}, nil
		},
		MirrorNetwork: []string{"mirror.test:443"},
	})
	require.NoError(t, err)
	_, err = client.MirrorNetwork().Channel()
	require.NoError(t, err)

	err = client.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror.test:443")
	assert.NoError(t, client.Close())
}
