package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alexdcox/hedera-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping <node-account-id>",
	Short: "Probe a single node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, err := hedera.AccountIDFromString(args[0])
		if err != nil {
			return err
		}
		client, err := newClient(false)
		if err != nil {
			return err
		}
		defer client.Close()

		client.Ping(cmd.Context(), nodeID)
		node, ok := client.Network().Node(nodeID)
		if !ok {
			return errors.Wrapf(hedera.ErrNodeNotFound, "%s", nodeID)
		}
		printNodes(cmd.OutOrStdout(), []*hedera.Node{node})
		return nil
	},
}

var pingAllCmd = &cobra.Command{
	Use:   "ping-all",
	Short: "Probe every node in the network and print their health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(false)
		if err != nil {
			return err
		}
		defer client.Close()

		client.PingAll(cmd.Context())
		printNodes(cmd.OutOrStdout(), client.Network().Nodes())
		return nil
	},
}

func printNodes(out io.Writer, nodes []*hedera.Node) {
	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tADDRESS\tHEALTHY\tFAILURES")
	for _, node := range nodes {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\n", node.AccountID(), node.Address(), node.IsHealthy(now), node.FailedAttempts())
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(pingCmd, pingAllCmd)
}
