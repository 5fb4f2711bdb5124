package main

import (
	"fmt"

	"github.com/alexdcox/hedera-go"
	"github.com/alexdcox/hedera-go/mirrorclient"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <account-id>",
	Short: "Print an account's hbar balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID, err := hedera.AccountIDFromString(args[0])
		if err != nil {
			return err
		}
		client, err := newClient(false)
		if err != nil {
			return err
		}
		defer client.Close()

		if fromMirror, _ := cmd.Flags().GetBool("mirror"); fromMirror {
			channel, err := client.MirrorNetwork().Channel()
			if err != nil {
				return err
			}
			balance, err := mirrorclient.GetAccountBalance(cmd.Context(), channel, accountID.String())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (mirror, as of %s)\n", balance.Account, hedera.HbarFromTinybar(balance.Tinybars), balance.Timestamp)
			return nil
		}

		balance, err := hedera.NewAccountBalanceQuery().SetAccountID(accountID).Execute(cmd.Context(), client)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", balance.AccountID, balance.Hbars)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <account-id>",
	Short: "Print an account's info, paid for by the operator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID, err := hedera.AccountIDFromString(args[0])
		if err != nil {
			return err
		}
		client, err := newClient(true)
		if err != nil {
			return err
		}
		defer client.Close()

		info, err := hedera.NewAccountInfoQuery().SetAccountID(accountID).Execute(cmd.Context(), client)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "account:     %s\n", info.AccountID)
		fmt.Fprintf(out, "balance:     %s\n", info.Balance)
		if info.Key != nil {
			fmt.Fprintf(out, "key:         %s\n", info.Key)
		}
		fmt.Fprintf(out, "memo:        %s\n", info.AccountMemo)
		fmt.Fprintf(out, "expires:     %s\n", info.ExpirationTime)
		fmt.Fprintf(out, "deleted:     %t\n", info.Deleted)
		return nil
	},
}

func init() {
	balanceCmd.Flags().Bool("mirror", false, "Read the balance from a mirror node instead of a consensus node")
	rootCmd.AddCommand(balanceCmd, infoCmd)
}
