// Package mirrorclient reads ledger state from a mirror node's REST API.
package mirrorclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var (
	ErrMirrorFailed = fmt.Errorf("mirror request failed")
	ErrNotFound     = fmt.Errorf("%w: not found", ErrMirrorFailed)
	ErrBadResponse  = fmt.Errorf("%w: unexpected response body", ErrMirrorFailed)
)

const DefaultTimeout = 30 * time.Second

// Open returns a client for a mirror address. "host:443" is served over
// https, any other bare host:port over http, and full URLs are used as is.
func Open(address string) (client *Client, err error) {
	baseURL := address
	if !strings.Contains(address, "://") {
		_, port, splitErr := net.SplitHostPort(address)
		if splitErr != nil {
			err = errors.Wrapf(ErrMirrorFailed, "invalid mirror address '%s'", address)
			return
		}
		scheme := "http"
		if port == "443" {
			scheme = "https"
		}
		baseURL = scheme + "://" + address
	}

	client = &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
	return
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// MirrorError is the mirror node's error body:
//
//	{"_status": {"messages": [{"message": "Not found"}]}}
type MirrorError struct {
	StatusCode int
	Messages   []string
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("mirror response code %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

func (e *MirrorError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrMirrorFailed
}

// Get fetches path, which must start with "/api/v1/", and returns the body
// of a 2xx response.
func (c *Client) Get(ctx context.Context, path string) (out []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	req.Header.Set("Accept", "application/json")

	rsp, err := c.HTTP.Do(req)
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	defer rsp.Body.Close()

	out, err = io.ReadAll(rsp.Body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		mirrorErr := &MirrorError{StatusCode: rsp.StatusCode}
		for _, message := range gjson.GetBytes(out, "_status.messages.#.message").Array() {
			mirrorErr.Messages = append(mirrorErr.Messages, message.String())
		}
		if len(mirrorErr.Messages) == 0 {
			mirrorErr.Messages = []string{string(out)}
		}
		return nil, errors.WithStack(mirrorErr)
	}
	return
}

func (c *Client) Close() error {
	c.HTTP.CloseIdleConnections()
	return nil
}

// Getter is satisfied by Client and by any pooled mirror channel.
type Getter interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

func getJSON(ctx context.Context, g Getter, path string) (result gjson.Result, err error) {
	body, err := g.Get(ctx, path)
	if err != nil {
		return
	}
	if !gjson.ValidBytes(body) {
		err = errors.Wrapf(ErrBadResponse, "%s returned invalid json", path)
		return
	}
	result = gjson.ParseBytes(body)
	return
}

type AccountBalance struct {
	Account   string
	Tinybars  int64
	Timestamp string
}

// GetAccountBalance reads the latest balance snapshot of accountID.
func GetAccountBalance(ctx context.Context, g Getter, accountID string) (out *AccountBalance, err error) {
	result, err := getJSON(ctx, g, "/api/v1/balances?account.id="+accountID)
	if err != nil {
		return
	}
	entry := result.Get("balances.0")
	if !entry.Exists() {
		err = errors.Wrapf(ErrNotFound, "no balance for account %s", accountID)
		return
	}
	out = &AccountBalance{
		Account:   entry.Get("account").String(),
		Tinybars:  entry.Get("balance").Int(),
		Timestamp: result.Get("timestamp").String(),
	}
	return
}

type NetworkNode struct {
	NodeID        int64
	NodeAccountID string
	Description   string
	Endpoints     []string
}

// GetNetworkNodes lists the consensus nodes in the mirror's address book.
func GetNetworkNodes(ctx context.Context, g Getter) (out []NetworkNode, err error) {
	result, err := getJSON(ctx, g, "/api/v1/network/nodes")
	if err != nil {
		return
	}
	result.Get("nodes").ForEach(func(_, node gjson.Result) bool {
		n := NetworkNode{
			NodeID:        node.Get("node_id").Int(),
			NodeAccountID: node.Get("node_account_id").String(),
			Description:   node.Get("description").String(),
		}
		for _, endpoint := range node.Get("service_endpoints").Array() {
			host := endpoint.Get("ip_address_v4").String()
			if host == "" {
				host = endpoint.Get("domain_name").String()
			}
			n.Endpoints = append(n.Endpoints, net.JoinHostPort(host, endpoint.Get("port").String()))
		}
		out = append(out, n)
		return true
	})
	return
}

type Transaction struct {
	TransactionID      string
	Result             string
	ConsensusTimestamp string
	ChargedTxFee       int64
}

// GetTransaction looks up a transaction by its mirror form id,
// "0.0.2-1700000000-000000123".
func GetTransaction(ctx context.Context, g Getter, transactionID string) (out *Transaction, err error) {
	result, err := getJSON(ctx, g, "/api/v1/transactions/"+transactionID)
	if err != nil {
		return
	}
	entry := result.Get("transactions.0")
	if !entry.Exists() {
		err = errors.Wrapf(ErrNotFound, "transaction %s", transactionID)
		return
	}
	out = &Transaction{
		TransactionID:      entry.Get("transaction_id").String(),
		Result:             entry.Get("result").String(),
		ConsensusTimestamp: entry.Get("consensus_timestamp").String(),
		ChargedTxFee:       entry.Get("charged_tx_fee").Int(),
	}
	return
}
