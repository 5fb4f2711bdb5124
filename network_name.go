package hedera

import "github.com/pkg/errors"

func init() {
	MainnetParams.Name = NetworkNameMainnet
	MainnetParams.LedgerID = LedgerIDMainnet
	MainnetParams.Nodes = map[string]AccountID{
		"35.237.200.180:50211": {Num: 3},
		"35.186.191.247:50211": {Num: 4},
		"35.192.2.25:50211":    {Num: 5},
		"35.199.161.108:50211": {Num: 6},
		"35.203.82.240:50211":  {Num: 7},
		"35.236.5.219:50211":   {Num: 8},
		"35.197.192.225:50211": {Num: 9},
		"35.242.233.154:50211": {Num: 10},
		"35.240.118.96:50211":  {Num: 11},
		"35.204.86.32:50211":   {Num: 12},
	}
	MainnetParams.MirrorNetwork = []string{"mainnet-public.mirrornode.hedera.com:443"}

	TestnetParams.Name = NetworkNameTestnet
	TestnetParams.LedgerID = LedgerIDTestnet
	TestnetParams.Nodes = map[string]AccountID{
		"0.testnet.hedera.com:50211": {Num: 3},
		"1.testnet.hedera.com:50211": {Num: 4},
		"2.testnet.hedera.com:50211": {Num: 5},
		"3.testnet.hedera.com:50211": {Num: 6},
		"4.testnet.hedera.com:50211": {Num: 7},
	}
	TestnetParams.MirrorNetwork = []string{"testnet.mirrornode.hedera.com:443"}

	PreviewnetParams.Name = NetworkNamePreviewnet
	PreviewnetParams.LedgerID = LedgerIDPreviewnet
	PreviewnetParams.Nodes = map[string]AccountID{
		"0.previewnet.hedera.com:50211": {Num: 3},
		"1.previewnet.hedera.com:50211": {Num: 4},
		"2.previewnet.hedera.com:50211": {Num: 5},
		"3.previewnet.hedera.com:50211": {Num: 6},
	}
	PreviewnetParams.MirrorNetwork = []string{"previewnet.mirrornode.hedera.com:443"}
}

// NetworkParams is the address book of a well-known network.
type NetworkParams struct {
	Name          NetworkName
	LedgerID      LedgerID
	Nodes         map[string]AccountID
	MirrorNetwork []string
}

var MainnetParams = NetworkParams{}
var TestnetParams = NetworkParams{}
var PreviewnetParams = NetworkParams{}

const (
	NetworkNameMainnet    NetworkName = "mainnet"
	NetworkNameTestnet    NetworkName = "testnet"
	NetworkNamePreviewnet NetworkName = "previewnet"
)

type NetworkName string

func (n NetworkName) Valid() bool {
	return n == NetworkNameMainnet || n == NetworkNameTestnet || n == NetworkNamePreviewnet
}

func (n NetworkName) Validate() (err error) {
	if !n.Valid() {
		err = errors.Wrapf(ErrInvalidNetwork, "unknown network name '%s'", n)
	}
	return
}

func (n NetworkName) Params() (params *NetworkParams, err error) {
	if err = n.Validate(); err != nil {
		return
	}

	switch n {
	case NetworkNameMainnet:
		return &MainnetParams, nil
	case NetworkNameTestnet:
		return &TestnetParams, nil
	case NetworkNamePreviewnet:
		return &PreviewnetParams, nil
	}

	return
}
