package hedera

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDefaults(t *testing.T) {
	client := newTestClient(t, 3)

	assert.Equal(t, DefaultMaxAttempts, client.MaxAttempts())
	assert.Equal(t, DefaultMinBackoff, client.MinBackoff())
	assert.Equal(t, DefaultMaxBackoff, client.MaxBackoff())
	assert.Equal(t, NewHbar(2), client.MaxTransactionFee())
	assert.Equal(t, NewHbar(1), client.MaxQueryPayment())
	assert.False(t, client.AutoValidateChecksums())
	assert.False(t, client.SignOnDemand())
	assert.Len(t, client.Network().Nodes(), 3)
	assert.False(t, client.LedgerID().Resolved())
}

func TestClientBackoffBounds(t *testing.T) {
	client := newTestClient(t, 1)

	_, err := client.SetMaxBackoff(2 * time.Second)
	require.NoError(t, err)

	_, err = client.SetMinBackoff(3 * time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackoffBounds))
	assert.Contains(t, err.Error(), "minBackoff cannot be larger than maxBackoff.")
	assert.Equal(t, DefaultMinBackoff, client.MinBackoff())
	assert.Equal(t, 2*time.Second, client.MaxBackoff())

	_, err = client.SetMaxBackoff(100 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxBackoff cannot be smaller than minBackoff.")
	assert.Equal(t, 2*time.Second, client.MaxBackoff())

	_, err = client.SetMinBackoff(-time.Second)
	assert.True(t, errors.Is(err, ErrBackoffBounds))

	_, err = client.SetMinBackoff(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, client.MinBackoff())
}

func TestClientOperator(t *testing.T) {
	client := newTestClient(t, 1)

	_, ok := client.OperatorAccountID()
	assert.False(t, ok)
	_, ok = client.OperatorPublicKey()
	assert.False(t, ok)

	key, err := GenerateEd25519PrivateKey()
	require.NoError(t, err)
	_, err = client.SetOperator(AccountID{Num: 1001}, key)
	require.NoError(t, err)

	id, ok := client.OperatorAccountID()
	require.True(t, ok)
	assert.Equal(t, AccountID{Num: 1001}, id)
	pub, ok := client.OperatorPublicKey()
	require.True(t, ok)
	assert.Equal(t, key.PublicKey(), pub)
}

func TestClientOperatorChecksumMismatch(t *testing.T) {
	client := newTestClient(t, 1)
	key, err := GenerateEd25519PrivateKey()
	require.NoError(t, err)

	// vfmkw is the mainnet checksum for 0.0.123.
	client.SetLedgerID(LedgerIDTestnet)
	id, err := AccountIDFromString("0.0.123-vfmkw")
	require.NoError(t, err)

	_, err = client.SetOperator(id, key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChecksumValidation))
	_, ok := client.OperatorAccountID()
	assert.False(t, ok)

	client.SetLedgerID(LedgerIDMainnet)
	_, err = client.SetOperator(id, key)
	require.NoError(t, err)
}

func TestClientClosed(t *testing.T) {
	h := newTestHarness(t, 2)
	h.withOperator()

	require.NoError(t, h.client.Close())
	require.NoError(t, h.client.Close())

	_, err := NewAccountBalanceQuery().SetAccountID(AccountID{Num: 2}).Execute(context.Background(), h.client)
	assert.True(t, errors.Is(err, ErrClientClosed))

	tx := NewTransferTransaction()
	_, err = tx.Execute(context.Background(), h.client)
	assert.True(t, errors.Is(err, ErrClientClosed))

	_, err = h.client.SetNetwork(map[string]AccountID{"x:1": {Num: 3}})
	assert.True(t, errors.Is(err, ErrClientClosed))
}

func TestClientPingUnknownNode(t *testing.T) {
	h := newTestHarness(t, 2)

	h.client.Ping(context.Background(), AccountID{Num: 999999})

	for _, node := range h.nodes {
		assert.Empty(t, node.calls())
	}

	balance, err := NewAccountBalanceQuery().
		SetAccountID(AccountID{Num: 2}).
		SetNodeAccountIDs([]AccountID{h.ids[0]}).
		Execute(context.Background(), h.client)
	require.NoError(t, err)
	assert.Equal(t, HbarFromTinybar(1_000), balance.Hbars)
}

func TestClientPingUnreachableNode(t *testing.T) {
	h := newTestHarness(t, 2)
	h.nodes[h.ids[0]].setHandler(func(string, []byte) ([]byte, error) {
		return nil, &fakeTransportError{temporary: true}
	})
	h.client.SetMaxAttempts(3)

	h.client.Ping(context.Background(), h.ids[0])

	node, ok := h.client.Network().Node(h.ids[0])
	require.True(t, ok)
	assert.Equal(t, 3, node.FailedAttempts())
	assert.Len(t, h.nodes[h.ids[1]].calls(), 0)

	h.client.Ping(context.Background(), h.ids[1])
	other, _ := h.client.Network().Node(h.ids[1])
	assert.Equal(t, 0, other.FailedAttempts())
	assert.Len(t, h.nodes[h.ids[1]].calls(), 1)
}

func TestClientPingAll(t *testing.T) {
	h := newTestHarness(t, 4)

	h.client.PingAll(context.Background())

	for _, id := range h.ids {
		assert.Equal(t, []string{methodCryptoGetBalance}, h.nodes[id].calls(), id.String())
	}
}

func TestClientSetNetworkName(t *testing.T) {
	h := newTestHarness(t, 1)

	_, err := h.client.SetNetworkName("nowhere")
	assert.True(t, errors.Is(err, ErrInvalidNetwork))

	_, err = h.client.SetNetworkName(NetworkNameTestnet)
	require.NoError(t, err)
	assert.True(t, h.client.LedgerID().Equal(LedgerIDTestnet))
	assert.NotEmpty(t, h.client.Network().Nodes())
}

func TestClientForName(t *testing.T) {
	client, err := ClientForName(NetworkNamePreviewnet, &ClientOptions{
		ChannelFactory: func(string) (Channel, error) { return &fakeNode{}, nil },
	})
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.LedgerID().Equal(LedgerIDPreviewnet))
	assert.NotEmpty(t, client.MirrorNetwork().Addresses())

	_, err = ClientForName("unknown", nil)
	assert.Error(t, err)
}

// Run with -race: executions, pings and setters share one client.
func TestClientConcurrentUse(t *testing.T) {
	h := newTestHarness(t, 3)
	h.withOperator()
	failing := h.ids[0]
	h.nodes[failing].setHandler(failingTransport(true))

	const transfers = 20
	var wg sync.WaitGroup
	errs := make(chan error, transfers)
	nodes := make(chan AccountID, transfers)

	for i := 0; i < transfers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx := NewTransferTransaction()
			if err := tx.AddHbarTransfer(AccountID{Num: 2}, HbarFromTinybar(-1)); err != nil {
				errs <- err
				return
			}
			if err := tx.AddHbarTransfer(AccountID{Num: 1001}, HbarFromTinybar(1)); err != nil {
				errs <- err
				return
			}
			if err := tx.SetNodeAccountIDs(h.ids); err != nil {
				errs <- err
				return
			}
			response, err := tx.Execute(context.Background(), h.client)
			if err != nil {
				errs <- err
				return
			}
			nodes <- response.NodeID
		}()
	}

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			backoff := DefaultMinBackoff
			if i%2 == 0 {
				backoff = 100 * time.Millisecond
			}
			_, _ = h.client.SetMinBackoff(backoff)
		}(i)
		go func(i int) {
			defer wg.Done()
			h.client.Ping(context.Background(), h.ids[i%len(h.ids)])
		}(i)
	}

	wg.Wait()
	close(errs)
	close(nodes)

	for err := range errs {
		assert.NoError(t, err)
	}
	count := 0
	for node := range nodes {
		assert.NotEqual(t, failing, node)
		count++
	}
	assert.Equal(t, transfers, count)

	node, ok := h.client.Network().Node(failing)
	require.True(t, ok)
	assert.Greater(t, node.FailedAttempts(), 0)
}
