package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alexdcox/hedera-go"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until a node of the network answers a balance query",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		client, err := newClient(false)
		if err != nil {
			return err
		}
		defer client.Close()

		return waitForNetwork(cmd.Context(), client, timeout, func(node hedera.AccountID) {
			fmt.Fprintf(cmd.OutOrStdout(), "node %s is up\n", node)
		})
	},
}

// waitForNetwork retries a round of pings until one node answers or timeout
// elapses.
func waitForNetwork(ctx context.Context, client *hedera.Client, timeout time.Duration, ready func(hedera.AccountID)) error {
	backoff := retry.WithMaxDuration(timeout,
		retry.WithCappedDuration(client.MaxBackoff(), retry.NewExponential(client.MinBackoff())))

	round := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		round++
		for _, node := range client.Network().NodeAccountIDs() {
			_, err := hedera.NewAccountBalanceQuery().
				SetAccountID(node).
				SetNodeAccountIDs([]hedera.AccountID{node}).
				SetMaxAttempts(1).
				Execute(ctx, client)
			if err == nil {
				ready(node)
				return nil
			}
			if errors.Is(err, hedera.ErrIllegalState) {
				return err
			}
			log.Debug().Err(err).Msgf("wait round %d: node %s not ready", round, node)
		}
		return retry.RetryableError(errors.Errorf("no node answered in round %d", round))
	})
	return errors.Wrapf(err, "network not ready after %s", timeout)
}

func init() {
	waitCmd.Flags().Duration("timeout", time.Minute, "Give up after this long")
	rootCmd.AddCommand(waitCmd)
}
