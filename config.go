package hedera

import (
	"os"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ClientConfig is the file form of a client's configuration:
//
//	{
//	  "network": "testnet" | {"0.testnet.hedera.com:50211": "0.0.3"},
//	  "mirrorNetwork": "testnet" | "host:443" | ["host:443"],
//	  "ledgerId": "testnet" | "<hex>",
//	  "operator": {"accountId": "0.0.2", "privateKey": "302e..."}
//	}
type ClientConfig struct {
	NetworkName   NetworkName
	Network       map[string]AccountID
	MirrorNetwork []string
	LedgerID      LedgerID
	Operator      *OperatorConfig
}

type OperatorConfig struct {
	AccountID  AccountID
	PrivateKey PrivateKey
}

// ParseClientConfig decodes the JSON form.
func ParseClientConfig(data []byte) (config *ClientConfig, err error) {
	if !gjson.ValidBytes(data) {
		err = errors.Wrap(ErrConfiguration, "client config is not valid json")
		return
	}
	root := gjson.ParseBytes(data)
	config = &ClientConfig{}

	switch network := root.Get("network"); {
	case network.Type == gjson.String:
		config.NetworkName = NetworkName(network.String())
		if err = config.NetworkName.Validate(); err != nil {
			return nil, err
		}
	case network.IsObject():
		config.Network = map[string]AccountID{}
		network.ForEach(func(address, id gjson.Result) bool {
			var accountID AccountID
			if accountID, err = AccountIDFromString(id.String()); err != nil {
				err = errors.Wrapf(err, "network entry %s", address.String())
				return false
			}
			config.Network[address.String()] = accountID
			return true
		})
		if err != nil {
			return nil, err
		}
	case network.Exists():
		return nil, errors.Wrap(ErrInvalidNetwork, "network must be a name or an address map")
	}

	switch mirror := root.Get("mirrorNetwork"); {
	case mirror.IsArray():
		for _, address := range mirror.Array() {
			config.MirrorNetwork = append(config.MirrorNetwork, address.String())
		}
	case mirror.Type == gjson.String:
		if name := NetworkName(mirror.String()); name.Valid() {
			params, _ := name.Params()
			config.MirrorNetwork = append([]string{}, params.MirrorNetwork...)
		} else {
			config.MirrorNetwork = []string{mirror.String()}
		}
	}

	if ledger := root.Get("ledgerId"); ledger.Exists() {
		if config.LedgerID, err = LedgerIDFromString(ledger.String()); err != nil {
			return nil, err
		}
	}

	if operator := root.Get("operator"); operator.Exists() {
		config.Operator = &OperatorConfig{}
		if config.Operator.AccountID, err = AccountIDFromString(operator.Get("accountId").String()); err != nil {
			return nil, errors.Wrap(err, "operator account id")
		}
		if config.Operator.PrivateKey, err = PrivateKeyFromString(operator.Get("privateKey").String()); err != nil {
			return nil, errors.Wrap(err, "operator private key")
		}
	}
	return
}

// ClientFromConfig builds a client from config. Fields left empty in config
// fall back to options.
func ClientFromConfig(config *ClientConfig, options *ClientOptions) (client *Client, err error) {
	opts := ClientOptions{}
	if options != nil {
		opts = *options
	}
	if config.NetworkName != "" {
		opts.NetworkName = config.NetworkName
	}
	if config.Network != nil {
		opts.Network = config.Network
	}
	if config.MirrorNetwork != nil {
		opts.MirrorNetwork = config.MirrorNetwork
	}
	if config.LedgerID.Resolved() {
		opts.LedgerID = config.LedgerID
	}

	if client, err = NewClient(&opts); err != nil {
		return
	}
	if config.Operator != nil {
		if _, err = client.SetOperator(config.Operator.AccountID, config.Operator.PrivateKey); err != nil {
			client.Close()
			return nil, err
		}
	}
	return
}

func ClientFromConfigFile(path string, options *ClientOptions) (client *Client, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read client config %s", path)
		return
	}
	config, err := ParseClientConfig(data)
	if err != nil {
		return
	}
	return ClientFromConfig(config, options)
}
