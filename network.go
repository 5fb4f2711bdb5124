package hedera

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.uber.org/atomic"
)

const DefaultNodeWaitTime = 8 * time.Second

// Network is the pool of consensus nodes a Client talks to. It owns every
// node's health state and decides which node an attempt goes to.
type Network struct {
	mu                     sync.RWMutex
	nodes                  []*Node
	index                  map[AccountID]*Node
	ledgerID               LedgerID
	maxNodeAttempts        int
	maxNodesPerTransaction int
	nodeWaitTime           time.Duration
	minBackoff             time.Duration
	maxBackoff             time.Duration

	channelFactory ChannelFactory
	breaker        *gobreaker.Settings
	clock          clock.Clock
	log            *zerolog.Logger
	closed         atomic.Bool
}

func newNetwork(factory ChannelFactory, c clock.Clock, breaker *gobreaker.Settings, logger *zerolog.Logger) *Network {
	return &Network{
		index:          map[AccountID]*Node{},
		nodeWaitTime:   DefaultNodeWaitTime,
		minBackoff:     DefaultMinBackoff,
		maxBackoff:     DefaultMaxBackoff,
		channelFactory: factory,
		breaker:        breaker,
		clock:          c,
		log:            logger,
	}
}

// SetNetwork replaces the pool with the given address to node account
// mapping. Nodes whose account and address are unchanged keep their health
// and open channel; the rest are closed.
func (n *Network) SetNetwork(network map[string]AccountID) (err error) {
	if n.closed.Load() {
		return errors.WithStack(ErrNetworkClosed)
	}

	type entry struct {
		address string
		id      AccountID
	}
	entries := make([]entry, 0, len(network))
	seen := map[AccountID]string{}
	for address, id := range network {
		id = id.WithoutChecksum()
		if other, dup := seen[id]; dup {
			return errors.Wrapf(ErrInvalidNetwork, "node %s is listed under both %s and %s", id, other, address)
		}
		seen[id] = address
		entries = append(entries, entry{address, id})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].id, entries[j].id
		if a.Shard != b.Shard {
			return a.Shard < b.Shard
		}
		if a.Realm != b.Realm {
			return a.Realm < b.Realm
		}
		return a.Num < b.Num
	})

	n.mu.Lock()
	nodes := make([]*Node, 0, len(entries))
	index := make(map[AccountID]*Node, len(entries))
	for _, e := range entries {
		node, ok := n.index[e.id]
		if !ok || node.address != e.address {
			node = newNode(e.id, e.address, n.breaker)
		}
		nodes = append(nodes, node)
		index[e.id] = node
	}
	var removed []*Node
	for _, node := range n.nodes {
		if index[node.accountID] != node {
			removed = append(removed, node)
		}
	}
	n.nodes, n.index = nodes, index
	n.mu.Unlock()

	var result *multierror.Error
	for _, node := range removed {
		result = multierror.Append(result, node.close())
	}
	return result.ErrorOrNil()
}

// Network returns the current address to node account mapping.
func (n *Network) Network() map[string]AccountID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]AccountID, len(n.nodes))
	for _, node := range n.nodes {
		out[node.address] = node.accountID
	}
	return out
}

// Nodes returns the pool in selection order.
func (n *Network) Nodes() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]*Node{}, n.nodes...)
}

func (n *Network) Node(id AccountID) (node *Node, ok bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	node, ok = n.index[id.WithoutChecksum()]
	return
}

func (n *Network) NodeAccountIDs() []AccountID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ids := make([]AccountID, len(n.nodes))
	for i, node := range n.nodes {
		ids[i] = node.accountID
	}
	return ids
}

func (n *Network) LedgerID() LedgerID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ledgerID.clone()
}

func (n *Network) SetLedgerID(ledgerID LedgerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ledgerID = ledgerID.clone()
}

// observeLedgerID adopts the ledger identity reported by a node if none is
// known yet.
func (n *Network) observeLedgerID(ledgerID []byte) {
	if len(ledgerID) == 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.ledgerID.Resolved() {
		n.ledgerID = LedgerID(ledgerID).clone()
		n.log.Debug().Msgf("resolved ledger id %s", n.ledgerID)
	}
}

// MaxNodeAttempts is the number of failures a node may accumulate within a
// single execution before it is skipped. Zero means the execution's attempt
// budget applies.
func (n *Network) MaxNodeAttempts() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.maxNodeAttempts
}

func (n *Network) SetMaxNodeAttempts(attempts int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.maxNodeAttempts = attempts
}

// MaxNodesPerTransaction is the cap on auto-selected node sets. Zero picks a
// third of the pool.
func (n *Network) MaxNodesPerTransaction() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.maxNodesPerTransaction
}

func (n *Network) SetMaxNodesPerTransaction(count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.maxNodesPerTransaction = count
}

func (n *Network) NodeWaitTime() time.Duration {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.nodeWaitTime
}

func (n *Network) SetNodeWaitTime(wait time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nodeWaitTime = wait
}

func (n *Network) setBackoff(minBackoff, maxBackoff time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minBackoff, n.maxBackoff = minBackoff, maxBackoff
}

// nodesForTransaction picks the node set a transaction is frozen against
// when the caller did not choose one: healthy nodes first, in pool order.
func (n *Network) nodesForTransaction() (ids []AccountID, err error) {
	now := n.clock.Now()
	n.mu.RLock()
	defer n.mu.RUnlock()

	if len(n.nodes) == 0 {
		err = errors.WithStack(ErrNoNodes)
		return
	}

	count := n.maxNodesPerTransaction
	if count <= 0 {
		count = (len(n.nodes) + 2) / 3
	}
	if count > len(n.nodes) {
		count = len(n.nodes)
	}

	var unhealthy []AccountID
	for _, node := range n.nodes {
		if node.IsHealthy(now) {
			ids = append(ids, node.accountID)
		} else {
			unhealthy = append(unhealthy, node.accountID)
		}
	}
	ids = append(ids, unhealthy...)[:count]
	return
}

// SelectNode returns the first healthy node among candidates that is not
// excluded. When every remaining candidate is backing off, the one whose
// deadline comes first is returned instead. A nil candidates slice means the
// whole pool.
func (n *Network) SelectNode(candidates []AccountID, excluding map[AccountID]struct{}) (selected *Node, err error) {
	if n.closed.Load() {
		err = errors.WithStack(ErrNetworkClosed)
		return
	}

	now := n.clock.Now()
	n.mu.RLock()
	defer n.mu.RUnlock()

	if candidates == nil {
		candidates = make([]AccountID, len(n.nodes))
		for i, node := range n.nodes {
			candidates[i] = node.accountID
		}
	}

	var known bool
	var bestNext, bestFailed time.Time
	for _, id := range candidates {
		node, ok := n.index[id.WithoutChecksum()]
		if !ok {
			continue
		}
		known = true
		if _, skip := excluding[node.accountID]; skip {
			continue
		}
		next, failed := node.health()
		if !now.Before(next) {
			return node, nil
		}
		if selected == nil || next.Before(bestNext) || (next.Equal(bestNext) && failed.Before(bestFailed)) {
			selected, bestNext, bestFailed = node, next, failed
		}
	}

	if selected != nil {
		return
	}
	if !known {
		err = errors.Wrapf(ErrNodeNotFound, "none of %v", candidates)
		return
	}
	err = errors.Wrap(ErrNoNodes, "every candidate node is excluded")
	return
}

// markFailure records a node level failure and pushes the node's retry
// deadline out exponentially.
func (n *Network) markFailure(node *Node, cause error) {
	n.mu.RLock()
	minBackoff, maxBackoff := n.minBackoff, n.maxBackoff
	n.mu.RUnlock()

	failures := node.recordFailure(n.clock.Now(), minBackoff, maxBackoff)
	n.log.Warn().
		Str("node", node.accountID.String()).
		Str("address", node.address).
		Int("failures", failures).
		Err(cause).
		Msg("node failure")
}

func (n *Network) markSuccess(node *Node) {
	node.recordSuccess()
}

// Close releases every node channel. Calling it again is a no-op.
func (n *Network) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}
	n.mu.RLock()
	nodes := append([]*Node{}, n.nodes...)
	n.mu.RUnlock()

	var result *multierror.Error
	for _, node := range nodes {
		result = multierror.Append(result, node.close())
	}
	return result.ErrorOrNil()
}

func (n *Network) String() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return fmt.Sprintf("network(%d nodes, ledger %s)", len(n.nodes), n.ledgerID)
}
