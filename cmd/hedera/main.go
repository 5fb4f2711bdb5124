package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexdcox/hedera-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	networkFlag  = "network"
	logLevelFlag = "log-level"
	configFlag   = "config"
	operatorID   = "operator-id"
	operatorKey  = "operator-key"
	maxAttempts  = "max-attempts"
)

var log = hedera.Log()

var rootCmd = &cobra.Command{
	Use:           "hedera",
	Short:         "Talk to a hedera network from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(viper.GetString(logLevelFlag))
		if err != nil {
			return errors.Wrapf(hedera.ErrConfiguration, "invalid log level '%s'", viper.GetString(logLevelFlag))
		}
		hedera.SetLogLevel(level)
		return nil
	},
}

func init() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindEnv(networkFlag, "HEDERA_NETWORK")

	rootCmd.PersistentFlags().StringP(networkFlag, "n", string(hedera.NetworkNameTestnet),
		"Network to use (mainnet|testnet|previewnet). Can also be set via HEDERA_NETWORK")
	viper.BindPFlag(networkFlag, rootCmd.PersistentFlags().Lookup(networkFlag))

	rootCmd.PersistentFlags().StringP(logLevelFlag, "l", "info",
		"Log level (trace|debug|info|warn|error). Can also be set via LOG_LEVEL")
	viper.BindPFlag(logLevelFlag, rootCmd.PersistentFlags().Lookup(logLevelFlag))

	rootCmd.PersistentFlags().StringP(configFlag, "c", "",
		"Client config json file, replaces --network")
	viper.BindPFlag(configFlag, rootCmd.PersistentFlags().Lookup(configFlag))

	rootCmd.PersistentFlags().String(operatorID, "", "Operator account id. Can also be set via OPERATOR_ID")
	viper.BindPFlag(operatorID, rootCmd.PersistentFlags().Lookup(operatorID))

	rootCmd.PersistentFlags().String(operatorKey, "", "Operator private key (hex). Can also be set via OPERATOR_KEY")
	viper.BindPFlag(operatorKey, rootCmd.PersistentFlags().Lookup(operatorKey))

	rootCmd.PersistentFlags().Int(maxAttempts, hedera.DefaultMaxAttempts, "Attempts per request")
	viper.BindPFlag(maxAttempts, rootCmd.PersistentFlags().Lookup(maxAttempts))
}

// newClient builds the client for a command. When requireOperator is set a
// missing operator fails here, before any node is contacted.
func newClient(requireOperator bool) (client *hedera.Client, err error) {
	if path := viper.GetString(configFlag); path != "" {
		client, err = hedera.ClientFromConfigFile(path, nil)
	} else {
		client, err = hedera.ClientForName(hedera.NetworkName(viper.GetString(networkFlag)), nil)
	}
	if err != nil {
		return
	}
	client.SetMaxAttempts(viper.GetInt(maxAttempts))

	id, key := viper.GetString(operatorID), viper.GetString(operatorKey)
	if id != "" || key != "" {
		if err = setOperator(client, id, key); err != nil {
			client.Close()
			return nil, err
		}
	}

	if _, ok := client.OperatorAccountID(); requireOperator && !ok {
		client.Close()
		return nil, errors.Wrap(hedera.ErrNoOperator, "set OPERATOR_ID and OPERATOR_KEY")
	}
	return
}

func setOperator(client *hedera.Client, id, key string) (err error) {
	if id == "" || key == "" {
		return errors.Wrap(hedera.ErrConfiguration, "OPERATOR_ID and OPERATOR_KEY must be set together")
	}
	accountID, err := hedera.AccountIDFromString(id)
	if err != nil {
		return
	}
	privateKey, err := hedera.PrivateKeyFromString(key)
	if err != nil {
		return
	}
	_, err = client.SetOperator(accountID, privateKey)
	return
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		log.Debug().Msgf("%+v", err)
		stop()
		os.Exit(1)
	}
}
