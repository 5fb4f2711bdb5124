package hedera

import (
	"context"
	"crypto/sha512"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeTransportError struct {
	temporary bool
}

func (e *fakeTransportError) Error() string   { return "fake transport failure" }
func (e *fakeTransportError) Temporary() bool { return e.temporary }

type fakeHandler func(method string, request []byte) ([]byte, error)

// fakeNode is an in-memory Channel standing in for one consensus node.
type fakeNode struct {
	mu      sync.Mutex
	handler fakeHandler
	methods []string
	closed  int
}

func (f *fakeNode) Invoke(_ context.Context, method string, request []byte) ([]byte, error) {
	f.mu.Lock()
	f.methods = append(f.methods, method)
	handler := f.handler
	f.mu.Unlock()
	return handler(method, request)
}

func (f *fakeNode) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeNode) setHandler(handler fakeHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
}

func (f *fakeNode) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.methods...)
}

type testHarness struct {
	t      *testing.T
	client *Client
	clock  *clock.Mock
	nodes  map[AccountID]*fakeNode
	ids    []AccountID

	mu        sync.Mutex
	sleeps    []time.Duration
	submitted map[string][]byte
	opened    []string
}

func nodeAddress(i int) string {
	return fmt.Sprintf("node-%d.test:50211", i)
}

// newTestHarness builds a client over n fake nodes, 0.0.3 upward, with a
// mock clock and a sleeper that advances it instead of waiting.
func newTestHarness(t *testing.T, n int) *testHarness {
	t.Helper()

	h := &testHarness{
		t:         t,
		clock:     clock.NewMock(),
		nodes:     map[AccountID]*fakeNode{},
		submitted: map[string][]byte{},
	}
	h.clock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	network := map[string]AccountID{}
	byAddress := map[string]*fakeNode{}
	for i := 0; i < n; i++ {
		id := AccountID{Num: uint64(3 + i)}
		node := &fakeNode{}
		node.handler = h.ledgerHandler(id)
		h.nodes[id] = node
		h.ids = append(h.ids, id)
		network[nodeAddress(i)] = id
		byAddress[nodeAddress(i)] = node
	}

	logger := zerolog.Nop()
	client, err := NewClient(&ClientOptions{
		Network: network,
		ChannelFactory: func(address string) (Channel, error) {
			h.mu.Lock()
			h.opened = append(h.opened, address)
			h.mu.Unlock()
			node, ok := byAddress[address]
			if !ok {
				return nil, fmt.Errorf("no fake node at %s", address)
			}
			return node, nil
		},
		MirrorChannelFactory: func(address string) (MirrorChannel, error) {
			return &fakeMirror{address: address}, nil
		},
		Clock: h.clock,
		Sleeper: func(ctx context.Context, d time.Duration) error {
			h.mu.Lock()
			h.sleeps = append(h.sleeps, d)
			h.mu.Unlock()
			h.clock.Add(d)
			return ctx.Err()
		},
		Logger: &logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	h.client = client
	return h
}

func newTestClient(t *testing.T, n int) *Client {
	return newTestHarness(t, n).client
}

func (h *testHarness) recordedSleeps() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Duration{}, h.sleeps...)
}

func (h *testHarness) withOperator() PrivateKey {
	h.t.Helper()
	key, err := GenerateEd25519PrivateKey()
	require.NoError(h.t, err)
	_, err = h.client.SetOperator(AccountID{Num: 2}, key)
	require.NoError(h.t, err)
	return key
}

// ledgerHandler answers like a healthy node: every transaction is accepted
// and reaches consensus with SUCCESS.
func (h *testHarness) ledgerHandler(node AccountID) fakeHandler {
	return func(method string, request []byte) ([]byte, error) {
		switch method {
		case methodCryptoTransfer:
			var signed wireSignedTransaction
			if err := unmarshalWire(request, &signed); err != nil {
				return nil, err
			}
			var body wireTransactionBody
			if err := unmarshalWire(signed.BodyBytes, &body); err != nil {
				return nil, err
			}
			h.mu.Lock()
			h.submitted[body.TransactionID.transactionID().String()] = append([]byte{}, request...)
			h.mu.Unlock()
			return marshalWire(wireTransactionResponse{Precheck: StatusOk, LedgerID: LedgerIDTestnet})
		}

		var query wireQuery
		if err := unmarshalWire(request, &query); err != nil {
			return nil, err
		}
		if query.ResponseType == responseTypeCostAnswer {
			return marshalWire(wireResponse{Precheck: StatusOk, ResponseType: responseTypeCostAnswer, Cost: 25})
		}

		var payload any
		switch method {
		case methodCryptoGetBalance, methodGetAccountInfo:
			var q wireAccountQuery
			if err := unmarshalWire(query.Payload, &q); err != nil {
				return nil, err
			}
			if method == methodCryptoGetBalance {
				payload = wireBalanceResponse{Account: q.Account, Tinybars: 1_000}
			} else {
				payload = wireAccountInfo{Account: q.Account, Tinybars: 1_000, Memo: "info"}
			}
		case methodGetTransactionReceipts:
			payload = wireReceipt{Status: StatusSuccess}
		case methodGetTxRecordByTxID:
			var q wireTransactionQuery
			if err := unmarshalWire(query.Payload, &q); err != nil {
				return nil, err
			}
			h.mu.Lock()
			submitted := h.submitted[q.TransactionID.transactionID().String()]
			h.mu.Unlock()
			hash := sha512.Sum384(submitted)
			payload = wireRecord{
				Receipt:         wireReceipt{Status: StatusSuccess},
				TransactionHash: hash[:],
				TransactionID:   q.TransactionID,
				TransactionFee:  100,
			}
		default:
			return marshalWire(wireResponse{Precheck: StatusNotSupported})
		}

		encoded, err := marshalWire(payload)
		if err != nil {
			return nil, err
		}
		return marshalWire(wireResponse{Precheck: StatusOk, Payload: encoded})
	}
}

func transactionResponse(status Status) []byte {
	b, err := marshalWire(wireTransactionResponse{Precheck: status})
	if err != nil {
		panic(err)
	}
	return b
}

type fakeMirror struct {
	address  string
	closed   bool
	closeErr error
}

func (m *fakeMirror) Get(context.Context, string) ([]byte, error) {
	return []byte(`{"address":"` + m.address + `"}`), nil
}

func (m *fakeMirror) Close() error {
	m.closed = true
	return m.closeErr
}
