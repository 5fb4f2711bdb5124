package main

import (
	"encoding/hex"
	"fmt"
	"text/tabwriter"

	"github.com/alexdcox/hedera-go"
	"github.com/alexdcox/hedera-go/journal"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const journalFlag = "journal"

var transferCmd = &cobra.Command{
	Use:   "transfer <to-account-id> <amount>",
	Short: "Send hbar from the operator account and wait for the receipt",
	Long: "Send hbar from the operator account and wait for the receipt. " +
		"The amount accepts a unit suffix (1.5, 250tℏ, 2ℏ).",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		to, err := hedera.AccountIDFromString(args[0])
		if err != nil {
			return
		}
		amount, err := hedera.ParseHbar(args[1])
		if err != nil {
			return
		}
		if amount.AsTinybar() <= 0 {
			return errors.Wrapf(hedera.ErrConfiguration, "transfer amount must be positive, got %s", amount)
		}
		memo, _ := cmd.Flags().GetString("memo")

		client, err := newClient(true)
		if err != nil {
			return
		}
		defer client.Close()
		from, _ := client.OperatorAccountID()

		j, err := journal.Open(viper.GetString(journalFlag))
		if err != nil {
			return
		}
		defer j.Close()

		tx := hedera.NewTransferTransaction()
		if err = tx.AddHbarTransfer(from, amount.Negated()); err != nil {
			return
		}
		if err = tx.AddHbarTransfer(to, amount); err != nil {
			return
		}
		if err = tx.SetTransactionMemo(memo); err != nil {
			return
		}

		response, err := tx.Execute(cmd.Context(), client)
		if err != nil {
			return
		}
		transactionID := response.TransactionID.String()
		err = j.Add(journal.Entry{
			TransactionID: transactionID,
			NodeID:        response.NodeID.String(),
			Hash:          hex.EncodeToString(response.TransactionHash),
			SubmittedAt:   response.TransactionID.ValidStart,
		})
		if err != nil {
			log.Warn().Err(err).Msgf("failed to journal %s", transactionID)
		}

		receipt, err := response.SetValidateStatus(false).GetReceipt(cmd.Context(), client)
		if err != nil {
			return
		}
		if err = j.SetStatus(transactionID, receipt.Status.String()); err != nil {
			log.Warn().Err(err).Msgf("failed to update journal for %s", transactionID)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "transaction:   %s\n", transactionID)
		fmt.Fprintf(out, "node:          %s\n", response.NodeID)
		fmt.Fprintf(out, "hash:          %x\n", response.TransactionHash)
		fmt.Fprintf(out, "status:        %s\n", receipt.Status)
		if receipt.Status != hedera.StatusSuccess {
			return &hedera.ReceiptStatusError{Status: receipt.Status, TransactionID: response.TransactionID, Receipt: &receipt}
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List transactions recorded in the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString(journalFlag)
		if path == "" {
			return errors.Wrap(hedera.ErrConfiguration, "--journal is required")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		j, err := journal.Open(path)
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.List(limit)
		if err != nil {
			return err
		}
		printEntries(cmd, entries)
		return nil
	},
}

func printEntries(cmd *cobra.Command, entries []journal.Entry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRANSACTION\tNODE\tSTATUS\tSUBMITTED")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.TransactionID, entry.NodeID, entry.Status, entry.SubmittedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}

func init() {
	rootCmd.PersistentFlags().String(journalFlag, "", "Sqlite file recording submitted transactions. Can also be set via JOURNAL")
	viper.BindPFlag(journalFlag, rootCmd.PersistentFlags().Lookup(journalFlag))

	transferCmd.Flags().String("memo", "", "Transaction memo")
	historyCmd.Flags().Int("limit", 20, "Entries to show, 0 for all")
	rootCmd.AddCommand(transferCmd, historyCmd)
}
