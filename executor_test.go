package hedera

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer(t *testing.T) *TransferTransaction {
	t.Helper()
	tx := NewTransferTransaction()
	require.NoError(t, tx.AddHbarTransfer(AccountID{Num: 2}, NewHbar(-1)))
	require.NoError(t, tx.AddHbarTransfer(AccountID{Num: 1001}, NewHbar(1)))
	return tx
}

func busyFor(n int, next fakeHandler) fakeHandler {
	count := 0
	return func(method string, request []byte) ([]byte, error) {
		count++
		if count <= n {
			return transactionResponse(StatusBusy), nil
		}
		return next(method, request)
	}
}

func receiptResponse(status Status) ([]byte, error) {
	payload, err := marshalWire(wireReceipt{Status: status})
	if err != nil {
		return nil, err
	}
	return marshalWire(wireResponse{Precheck: StatusOk, Payload: payload})
}

func failingTransport(temporary bool) fakeHandler {
	return func(string, []byte) ([]byte, error) {
		return nil, &fakeTransportError{temporary: temporary}
	}
}

func TestExecuteBusyBackoff(t *testing.T) {
	h := newTestHarness(t, 1)
	h.withOperator()
	node := h.ids[0]
	h.nodes[node].setHandler(busyFor(3, h.ledgerHandler(node)))

	tx := newTestTransfer(t)
	tx.SetMaxAttempts(4)
	response, err := tx.Execute(context.Background(), h.client)
	require.NoError(t, err)

	assert.Equal(t, node, response.NodeID)
	assert.Len(t, h.nodes[node].calls(), 4)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, time.Second}, h.recordedSleeps())
}

func TestExecuteBusyExhaustsAttempts(t *testing.T) {
	h := newTestHarness(t, 1)
	h.withOperator()
	node := h.ids[0]
	h.nodes[node].setHandler(busyFor(100, nil))

	tx := newTestTransfer(t)
	tx.SetMaxAttempts(3)
	_, err := tx.Execute(context.Background(), h.client)
	require.Error(t, err)

	var exceeded *MaxAttemptsExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, 3, exceeded.Attempts)
	assert.Equal(t, StatusBusy, exceeded.LastStatus)
	assert.True(t, exceeded.HasStatus)
	assert.True(t, errors.Is(err, ErrAttemptsExceeded))

	var precheck *PrecheckStatusError
	require.True(t, errors.As(err, &precheck))
	assert.Equal(t, StatusBusy, precheck.Status)

	// No sleep after the final attempt.
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond}, h.recordedSleeps())
}

func TestExecuteBackoffCappedAtMax(t *testing.T) {
	h := newTestHarness(t, 1)
	h.withOperator()
	_, err := h.client.SetMaxBackoff(600 * time.Millisecond)
	require.NoError(t, err)
	node := h.ids[0]
	h.nodes[node].setHandler(busyFor(3, h.ledgerHandler(node)))

	tx := newTestTransfer(t)
	_, err = tx.Execute(context.Background(), h.client)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, 600 * time.Millisecond}, h.recordedSleeps())
}

func TestExecuteFailsOverToNextNode(t *testing.T) {
	h := newTestHarness(t, 2)
	h.withOperator()
	first, second := h.ids[0], h.ids[1]
	h.nodes[first].setHandler(failingTransport(true))

	tx := newTestTransfer(t)
	require.NoError(t, tx.SetNodeAccountIDs([]AccountID{first, second}))
	response, err := tx.Execute(context.Background(), h.client)
	require.NoError(t, err)

	assert.Equal(t, second, response.NodeID)
	node, _ := h.client.Network().Node(first)
	assert.Equal(t, 1, node.FailedAttempts())
	assert.False(t, node.IsHealthy(h.clock.Now()))
	assert.Empty(t, h.recordedSleeps())
}

func TestExecuteExcludesFailingNodes(t *testing.T) {
	h := newTestHarness(t, 2)
	h.withOperator()
	h.client.SetMaxNodeAttempts(2)
	for _, id := range h.ids {
		h.nodes[id].setHandler(failingTransport(true))
	}

	tx := newTestTransfer(t)
	require.NoError(t, tx.SetNodeAccountIDs(h.ids))
	_, err := tx.Execute(context.Background(), h.client)
	require.Error(t, err)

	var exceeded *MaxAttemptsExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, 4, exceeded.Attempts)
	assert.False(t, exceeded.HasStatus)
	assert.NotContains(t, exceeded.Error(), "last status")

	var transport *NodeTransportError
	require.True(t, errors.As(err, &transport))

	for _, id := range h.ids {
		assert.Len(t, h.nodes[id].calls(), 2, id.String())
	}
}

func TestExecuteExcludesOnlyConsecutiveFailures(t *testing.T) {
	h := newTestHarness(t, 1)
	h.withOperator()
	h.client.SetMaxNodeAttempts(2)
	node := h.ids[0]
	ledger := h.ledgerHandler(node)

	count := 0
	h.nodes[node].setHandler(func(method string, request []byte) ([]byte, error) {
		count++
		switch count {
		case 1, 3:
			return nil, &fakeTransportError{temporary: true}
		case 2:
			return transactionResponse(StatusBusy), nil
		}
		return ledger(method, request)
	})

	response, err := newTestTransfer(t).Execute(context.Background(), h.client)
	require.NoError(t, err)
	assert.Equal(t, node, response.NodeID)
	assert.Len(t, h.nodes[node].calls(), 4)

	// Node backoff, busy backoff, node backoff again from a reset count.
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, 250 * time.Millisecond}, h.recordedSleeps())
}

func TestExecuteNonRetryableTransportError(t *testing.T) {
	h := newTestHarness(t, 2)
	h.withOperator()
	h.nodes[h.ids[0]].setHandler(failingTransport(false))

	tx := newTestTransfer(t)
	require.NoError(t, tx.SetNodeAccountIDs(h.ids))
	_, err := tx.Execute(context.Background(), h.client)

	var transport *NodeTransportError
	require.True(t, errors.As(err, &transport))
	assert.Equal(t, h.ids[0], transport.NodeAccountID)
	assert.Empty(t, h.nodes[h.ids[1]].calls())
}

func TestExecuteNonRetryablePrecheck(t *testing.T) {
	h := newTestHarness(t, 1)
	h.withOperator()
	h.nodes[h.ids[0]].setHandler(func(string, []byte) ([]byte, error) {
		return transactionResponse(StatusInvalidSignature), nil
	})

	tx := newTestTransfer(t)
	_, err := tx.Execute(context.Background(), h.client)

	var precheck *PrecheckStatusError
	require.True(t, errors.As(err, &precheck))
	assert.Equal(t, StatusInvalidSignature, precheck.Status)
	require.NotNil(t, precheck.TransactionID)
	assert.Equal(t, tx.TransactionID(), *precheck.TransactionID)
	assert.True(t, errors.Is(err, ErrTransactionStatus))
	assert.Len(t, h.nodes[h.ids[0]].calls(), 1)
}

func TestExecuteContextCancelled(t *testing.T) {
	h := newTestHarness(t, 1)
	h.withOperator()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestTransfer(t).Execute(ctx, h.client)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, h.nodes[h.ids[0]].calls())

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	h.nodes[h.ids[0]].setHandler(func(string, []byte) ([]byte, error) {
		cancel()
		return transactionResponse(StatusBusy), nil
	})
	_, err = newTestTransfer(t).Execute(ctx, h.client)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, h.nodes[h.ids[0]].calls(), 1)
}

func TestExecuteLearnsLedgerID(t *testing.T) {
	h := newTestHarness(t, 1)
	h.withOperator()
	require.False(t, h.client.LedgerID().Resolved())

	_, err := newTestTransfer(t).Execute(context.Background(), h.client)
	require.NoError(t, err)
	assert.True(t, h.client.LedgerID().Equal(LedgerIDTestnet))
}

func TestReceiptPolling(t *testing.T) {
	h := newTestHarness(t, 1)
	h.withOperator()
	node := h.ids[0]
	ledger := h.ledgerHandler(node)
	polls := 0
	h.nodes[node].setHandler(func(method string, request []byte) ([]byte, error) {
		if method != methodGetTransactionReceipts {
			return ledger(method, request)
		}
		polls++
		switch polls {
		case 1:
			return marshalWire(wireResponse{Precheck: StatusReceiptNotFound})
		case 2:
			return receiptResponse(StatusUnknown)
		}
		return ledger(method, request)
	})

	response, err := newTestTransfer(t).Execute(context.Background(), h.client)
	require.NoError(t, err)

	receipt, err := response.GetReceipt(context.Background(), h.client)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, receipt.Status)
	assert.Equal(t, 3, polls)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond}, h.recordedSleeps())
}

func TestReceiptPollingExhausted(t *testing.T) {
	h := newTestHarness(t, 1)
	h.nodes[h.ids[0]].setHandler(func(string, []byte) ([]byte, error) {
		return receiptResponse(StatusUnknown)
	})

	_, err := NewTransactionReceiptQuery().
		SetTransactionID(TransactionID{AccountID: AccountID{Num: 2}, ValidStart: h.clock.Now()}).
		SetMaxAttempts(3).
		Execute(context.Background(), h.client)

	var exceeded *MaxAttemptsExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, StatusUnknown, exceeded.LastStatus)
	assert.Equal(t, 3, exceeded.Attempts)
}

func TestReceiptStatusValidation(t *testing.T) {
	h := newTestHarness(t, 1)
	h.withOperator()
	node := h.ids[0]
	ledger := h.ledgerHandler(node)
	h.nodes[node].setHandler(func(method string, request []byte) ([]byte, error) {
		if method == methodGetTransactionReceipts {
			return receiptResponse(StatusInsufficientPayerBalance)
		}
		return ledger(method, request)
	})

	response, err := newTestTransfer(t).Execute(context.Background(), h.client)
	require.NoError(t, err)

	_, err = response.GetReceipt(context.Background(), h.client)
	var status *ReceiptStatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, StatusInsufficientPayerBalance, status.Status)
	assert.Equal(t, response.TransactionID, status.TransactionID)
	assert.True(t, errors.Is(err, ErrTransactionStatus))

	receipt, err := response.SetValidateStatus(false).GetReceipt(context.Background(), h.client)
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientPayerBalance, receipt.Status)
}

func TestRotate(t *testing.T) {
	ids := []AccountID{{Num: 3}, {Num: 4}, {Num: 5}}
	assert.Equal(t, ids, rotate(ids, 0))
	assert.Equal(t, []AccountID{{Num: 4}, {Num: 5}, {Num: 3}}, rotate(ids, 1))
	assert.Equal(t, []AccountID{{Num: 5}, {Num: 3}, {Num: 4}}, rotate(ids, 5))
	assert.Equal(t, ids[:1], rotate(ids[:1], 7))
}
