package hedera

import (
	"context"

	"github.com/pkg/errors"
)

type executionState int

const (
	executionFinished executionState = iota
	executionRetry
	executionFailed
)

// request is one dispatchable unit: a signed transaction or a query.
type request interface {
	describe() string
	method() string
	// makeRequest returns the bytes to send to node. It may call out to an
	// external signer and must not be called with any lock held.
	makeRequest(ctx context.Context, client *Client, node AccountID) ([]byte, error)
	// classify inspects a node's response. err carries the status for
	// diagnosis when state is retry or failed.
	classify(node AccountID, response []byte) (status Status, ledgerID []byte, state executionState, err error)
}

// execute runs the dispatch loop for req against the given node set.
//
// Node level transport failures mark the node unhealthy and move on to
// another node; a node that fails maxNodeAttempts times within this call is
// skipped for the rest of it. Busy statuses sleep for an exponentially
// growing delay before retrying. Every attempt, whatever its outcome, uses
// one slot of maxAttempts.
func execute(ctx context.Context, client *Client, req request, nodes []AccountID, maxAttempts int) (node AccountID, err error) {
	if err = client.checkOpen(); err != nil {
		return
	}
	if len(nodes) == 0 {
		err = errors.Wrapf(ErrNoNodes, "%s has no node account ids", req.describe())
		return
	}

	if maxAttempts <= 0 {
		maxAttempts = client.MaxAttempts()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	maxNodeAttempts := client.network.MaxNodeAttempts()
	if maxNodeAttempts <= 0 {
		maxNodeAttempts = maxAttempts
	}
	minBackoff, maxBackoff := client.MinBackoff(), client.MaxBackoff()
	nodeWaitTime := client.network.NodeWaitTime()

	failures := map[AccountID]int{}
	excluded := map[AccountID]struct{}{}
	var lastStatus Status
	var hasStatus bool
	var lastErr error

	attempt := 0
	for ; attempt < maxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			err = errors.WithStack(err)
			return
		}

		var selected *Node
		if selected, err = client.network.SelectNode(rotate(nodes, attempt), excluded); err != nil {
			if len(excluded) > 0 && errors.Is(err, ErrNoNodes) {
				err = nil
				break
			}
			return
		}

		if wait := selected.remaining(client.clock.Now()); wait > 0 {
			if wait > nodeWaitTime {
				wait = nodeWaitTime
			}
			client.log.Debug().Msgf("%s waiting %s for node %s", req.describe(), wait, selected.accountID)
			if err = client.sleep(ctx, wait); err != nil {
				return
			}
		}

		var body, response []byte
		if body, err = req.makeRequest(ctx, client, selected.accountID); err != nil {
			return
		}

		client.log.Debug().Msgf("%s attempt %d/%d to node %s", req.describe(), attempt+1, maxAttempts, selected.accountID)

		if response, err = selected.invoke(ctx, client.network.channelFactory, req.method(), body); err != nil {
			if ctx.Err() != nil {
				err = errors.WithStack(ctx.Err())
				return
			}
			transportErr := &NodeTransportError{NodeAccountID: selected.accountID, Address: selected.address, Err: err}
			if !isRetryableTransportError(err) {
				err = errors.WithStack(transportErr)
				return
			}
			err = nil
			client.network.markFailure(selected, transportErr)
			lastErr = transportErr
			failures[selected.accountID]++
			if failures[selected.accountID] >= maxNodeAttempts {
				excluded[selected.accountID] = struct{}{}
			}
			continue
		}

		client.network.markSuccess(selected)
		delete(failures, selected.accountID)

		status, ledgerID, state, classifyErr := req.classify(selected.accountID, response)
		client.network.observeLedgerID(ledgerID)

		switch state {
		case executionFinished:
			node = selected.accountID
			return
		case executionFailed:
			err = classifyErr
			return
		}

		lastStatus, hasStatus, lastErr = status, true, classifyErr
		if attempt+1 >= maxAttempts {
			continue
		}
		delay := backoffDelay(attempt, minBackoff, maxBackoff)
		client.log.Debug().Msgf("%s got %s from node %s, retrying in %s", req.describe(), status, selected.accountID, delay)
		if err = client.sleep(ctx, delay); err != nil {
			return
		}
	}

	err = errors.WithStack(&MaxAttemptsExceededError{
		Attempts:   attempt,
		LastStatus: lastStatus,
		HasStatus:  hasStatus,
		LastErr:    lastErr,
	})
	return
}

// rotate starts the candidate order at offset so consecutive attempts
// prefer different nodes.
func rotate(nodes []AccountID, offset int) []AccountID {
	if len(nodes) < 2 {
		return nodes
	}
	offset %= len(nodes)
	return append(append(make([]AccountID, 0, len(nodes)), nodes[offset:]...), nodes[:offset]...)
}
