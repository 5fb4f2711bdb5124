package hedera

import (
	"context"
	"sync"
	"time"

	"github.com/alexdcox/hedera-go/grpcchannel"
	"github.com/alexdcox/hedera-go/mirrorclient"
	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.uber.org/atomic"
	"go.uber.org/ratelimit"
)

const DefaultMaxAttempts = 10

var (
	DefaultMaxTransactionFee = NewHbar(2)
	DefaultMaxQueryPayment   = NewHbar(1)
)

type ClientOptions struct {
	// NetworkName loads a well-known address book, mirror network and
	// ledger id. Network and MirrorNetwork override its parts.
	NetworkName          NetworkName
	Network              map[string]AccountID
	MirrorNetwork        []string
	LedgerID             LedgerID
	ChannelFactory       ChannelFactory
	MirrorChannelFactory MirrorChannelFactory
	CircuitBreaker       *gobreaker.Settings
	Clock                clock.Clock
	Sleeper              Sleeper
	Logger               *zerolog.Logger
	// PingRate caps PingAll at this many pings per second. Zero is
	// unlimited.
	PingRate int
}

func (o *ClientOptions) setDefaults() {
	if o.ChannelFactory == nil {
		o.ChannelFactory = defaultClientOptions.ChannelFactory
	}

	if o.MirrorChannelFactory == nil {
		o.MirrorChannelFactory = defaultClientOptions.MirrorChannelFactory
	}

	if o.Clock == nil {
		o.Clock = clock.New()
	}

	if o.Sleeper == nil {
		o.Sleeper = clockSleeper(o.Clock)
	}

	if o.Logger == nil {
		o.Logger = Log()
	}
}

var defaultClientOptions = &ClientOptions{
	ChannelFactory: func(address string) (Channel, error) {
		channel, err := grpcchannel.Open(address)
		if err != nil {
			return nil, err
		}
		return channel, nil
	},
	MirrorChannelFactory: func(address string) (MirrorChannel, error) {
		channel, err := mirrorclient.Open(address)
		if err != nil {
			return nil, err
		}
		return channel, nil
	},
}

// Client holds the node pools, the operator and the retry and fee policy
// shared by every request executed through it. It is safe for concurrent
// use.
type Client struct {
	mu                    sync.RWMutex
	network               *Network
	mirrorNetwork         *MirrorNetwork
	operator              *Operator
	maxTransactionFee     Hbar
	maxQueryPayment       Hbar
	maxAttempts           int
	minBackoff            time.Duration
	maxBackoff            time.Duration
	autoValidateChecksums bool
	signOnDemand          bool

	clock       clock.Clock
	sleep       Sleeper
	pingLimiter ratelimit.Limiter
	log         *zerolog.Logger
	closed      atomic.Bool
}

func NewClient(options *ClientOptions) (client *Client, err error) {
	if options == nil {
		options = &ClientOptions{}
	}
	options.setDefaults()

	client = &Client{
		network:           newNetwork(options.ChannelFactory, options.Clock, options.CircuitBreaker, options.Logger),
		mirrorNetwork:     newMirrorNetwork(options.MirrorChannelFactory),
		maxTransactionFee: DefaultMaxTransactionFee,
		maxQueryPayment:   DefaultMaxQueryPayment,
		maxAttempts:       DefaultMaxAttempts,
		minBackoff:        DefaultMinBackoff,
		maxBackoff:        DefaultMaxBackoff,
		clock:             options.Clock,
		sleep:             options.Sleeper,
		pingLimiter:       ratelimit.NewUnlimited(),
		log:               options.Logger,
	}

	if options.PingRate > 0 {
		client.pingLimiter = ratelimit.New(options.PingRate)
	}

	if options.NetworkName != "" {
		var params *NetworkParams
		if params, err = options.NetworkName.Params(); err != nil {
			return nil, err
		}
		if err = client.network.SetNetwork(params.Nodes); err != nil {
			return nil, err
		}
		client.network.SetLedgerID(params.LedgerID)
		client.mirrorNetwork.SetAddresses(params.MirrorNetwork)
	}

	if options.Network != nil {
		if err = client.network.SetNetwork(options.Network); err != nil {
			return nil, err
		}
	}

	if options.MirrorNetwork != nil {
		client.mirrorNetwork.SetAddresses(options.MirrorNetwork)
	}

	if options.LedgerID.Resolved() {
		client.network.SetLedgerID(options.LedgerID)
	}

	return
}

// ClientForName returns a client for mainnet, testnet or previewnet.
func ClientForName(name NetworkName, options *ClientOptions) (*Client, error) {
	opts := ClientOptions{}
	if options != nil {
		opts = *options
	}
	opts.NetworkName = name
	return NewClient(&opts)
}

// ClientForNetwork returns a client for a custom address to node account
// mapping.
func ClientForNetwork(network map[string]AccountID, options *ClientOptions) (*Client, error) {
	opts := ClientOptions{}
	if options != nil {
		opts = *options
	}
	opts.Network = network
	return NewClient(&opts)
}

func ClientForMainnet() (*Client, error) {
	return ClientForName(NetworkNameMainnet, nil)
}

func ClientForTestnet() (*Client, error) {
	return ClientForName(NetworkNameTestnet, nil)
}

func ClientForPreviewnet() (*Client, error) {
	return ClientForName(NetworkNamePreviewnet, nil)
}

func (c *Client) checkOpen() error {
	if c.closed.Load() {
		return errors.WithStack(ErrClientClosed)
	}
	return nil
}

// Network returns the node pool. It is owned by the client.
func (c *Client) Network() *Network {
	return c.network
}

func (c *Client) MirrorNetwork() *MirrorNetwork {
	return c.mirrorNetwork
}

// SetNetwork replaces the node pool. Unchanged nodes keep their health.
func (c *Client) SetNetwork(network map[string]AccountID) (*Client, error) {
	if err := c.checkOpen(); err != nil {
		return c, err
	}
	return c, c.network.SetNetwork(network)
}

// SetNetworkName switches to a well-known network's address book and ledger
// id.
func (c *Client) SetNetworkName(name NetworkName) (*Client, error) {
	if err := c.checkOpen(); err != nil {
		return c, err
	}
	params, err := name.Params()
	if err != nil {
		return c, err
	}
	if err = c.network.SetNetwork(params.Nodes); err != nil {
		return c, err
	}
	c.network.SetLedgerID(params.LedgerID)
	return c, nil
}

func (c *Client) SetMirrorNetwork(addresses []string) *Client {
	c.mirrorNetwork.SetAddresses(addresses)
	return c
}

func (c *Client) LedgerID() LedgerID {
	return c.network.LedgerID()
}

func (c *Client) SetLedgerID(ledgerID LedgerID) *Client {
	c.network.SetLedgerID(ledgerID)
	return c
}

// SetOperator installs accountID as the operator, signing with key.
func (c *Client) SetOperator(accountID AccountID, key PrivateKey) (*Client, error) {
	if key == nil {
		return c, errors.Wrap(ErrConfiguration, "operator key is required")
	}
	return c.SetOperatorWith(accountID, key.PublicKey(), PrivateKeySigner(key))
}

// SetOperatorWith installs an operator whose signatures come from signer,
// which may be remote. When the ledger id is known, a checksum on accountID
// must match it or the operator is left unchanged.
func (c *Client) SetOperatorWith(accountID AccountID, publicKey PublicKey, signer TransactionSigner) (*Client, error) {
	if err := c.checkOpen(); err != nil {
		return c, err
	}
	if publicKey == nil || signer == nil {
		return c, errors.Wrap(ErrConfiguration, "operator public key and signer are required")
	}
	if err := verifyEntityChecksum(c.network.LedgerID(), accountID.entity(), accountID.checksum); err != nil {
		return c, errors.WithStack(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.operator = &Operator{AccountID: accountID, PublicKey: publicKey, signer: signer}
	return c, nil
}

func (c *Client) getOperator() (*Operator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.operator == nil {
		return nil, errors.WithStack(ErrNoOperator)
	}
	return c.operator, nil
}

func (c *Client) OperatorAccountID() (id AccountID, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.operator == nil {
		return
	}
	return c.operator.AccountID, true
}

func (c *Client) OperatorPublicKey() (key PublicKey, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.operator == nil {
		return
	}
	return c.operator.PublicKey, true
}

func (c *Client) MaxTransactionFee() Hbar {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxTransactionFee
}

func (c *Client) SetMaxTransactionFee(fee Hbar) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxTransactionFee = fee
	return c
}

func (c *Client) MaxQueryPayment() Hbar {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxQueryPayment
}

func (c *Client) SetMaxQueryPayment(payment Hbar) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxQueryPayment = payment
	return c
}

func (c *Client) MaxAttempts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxAttempts
}

func (c *Client) SetMaxAttempts(attempts int) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxAttempts = attempts
	return c
}

func (c *Client) SetMaxNodeAttempts(attempts int) *Client {
	c.network.SetMaxNodeAttempts(attempts)
	return c
}

func (c *Client) SetMaxNodesPerTransaction(count int) *Client {
	c.network.SetMaxNodesPerTransaction(count)
	return c
}

func (c *Client) SetNodeWaitTime(wait time.Duration) *Client {
	c.network.SetNodeWaitTime(wait)
	return c
}

func (c *Client) MinBackoff() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.minBackoff
}

func (c *Client) MaxBackoff() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxBackoff
}

// SetMinBackoff fails, leaving both bounds unchanged, if backoff is negative
// or larger than the current max backoff.
func (c *Client) SetMinBackoff(backoff time.Duration) (*Client, error) {
	if backoff < 0 {
		return c, errors.Wrap(ErrBackoffBounds, "minBackoff cannot be negative.")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if backoff > c.maxBackoff {
		return c, errors.Wrap(ErrBackoffBounds, "minBackoff cannot be larger than maxBackoff.")
	}
	c.minBackoff = backoff
	c.network.setBackoff(c.minBackoff, c.maxBackoff)
	return c, nil
}

// SetMaxBackoff fails, leaving both bounds unchanged, if backoff is negative
// or smaller than the current min backoff.
func (c *Client) SetMaxBackoff(backoff time.Duration) (*Client, error) {
	if backoff < 0 {
		return c, errors.Wrap(ErrBackoffBounds, "maxBackoff cannot be negative.")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if backoff < c.minBackoff {
		return c, errors.Wrap(ErrBackoffBounds, "maxBackoff cannot be smaller than minBackoff.")
	}
	c.maxBackoff = backoff
	c.network.setBackoff(c.minBackoff, c.maxBackoff)
	return c, nil
}

func (c *Client) AutoValidateChecksums() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.autoValidateChecksums
}

func (c *Client) SetAutoValidateChecksums(validate bool) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoValidateChecksums = validate
	return c
}

func (c *Client) SignOnDemand() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.signOnDemand
}

// SetSignOnDemand defers operator signing until a node is chosen, so only
// the body actually sent gets signed.
func (c *Client) SetSignOnDemand(signOnDemand bool) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signOnDemand = signOnDemand
	return c
}

// Ping sends a balance query for nodeID's own account to that node alone.
// The outcome is discarded; the node's health is updated as a side effect.
func (c *Client) Ping(ctx context.Context, nodeID AccountID) {
	_, err := NewAccountBalanceQuery().
		SetAccountID(nodeID).
		SetNodeAccountIDs([]AccountID{nodeID}).
		Execute(ctx, c)
	if err != nil {
		c.log.Debug().Err(err).Msgf("ping %s failed", nodeID)
		return
	}
	c.log.Debug().Msgf("ping %s ok", nodeID)
}

// PingAll pings every node in pool order, one at a time.
func (c *Client) PingAll(ctx context.Context) {
	for _, id := range c.network.NodeAccountIDs() {
		if ctx.Err() != nil {
			return
		}
		c.pingLimiter.Take()
		c.Ping(ctx, id)
	}
}

// Close releases both pools. Further requests through the client fail with
// ErrClientClosed. Calling it again is a no-op.
func (c *Client) Close() (err error) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.log.Debug().Msg("closing client")
	var result *multierror.Error
	result = multierror.Append(result, c.network.Close())
	result = multierror.Append(result, c.mirrorNetwork.Close())
	return result.ErrorOrNil()
}
