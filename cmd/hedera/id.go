package main

import (
	"fmt"
	"strings"

	"github.com/alexdcox/hedera-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var idLedgers = []hedera.NetworkName{
	hedera.NetworkNameMainnet,
	hedera.NetworkNameTestnet,
	hedera.NetworkNamePreviewnet,
}

var idCmd = &cobra.Command{
	Use:   "id <entity-id>",
	Short: "Decode an entity id and print its checksum on each ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := strings.Trim(args[0], " \"")
		id, err := hedera.AccountIDFromString(raw)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\ndecoding id:       %s\n\n", raw)

		if ledgerName, _ := cmd.Flags().GetString("ledger"); ledgerName != "" {
			ledger, err := hedera.LedgerIDFromString(ledgerName)
			if err != nil {
				return err
			}
			if err = id.VerifyChecksum(ledger); err != nil {
				return err
			}
			fmt.Fprintf(out, "ledger:            %s\n", ledger)
			fmt.Fprintf(out, "id (checksum):     %s-%s\n", id, id.ChecksumFor(ledger))
			return nil
		}

		matched := id.Checksum() == ""
		for _, name := range idLedgers {
			ledger, err := hedera.LedgerIDFromString(string(name))
			if err != nil {
				return err
			}
			checksum := id.ChecksumFor(ledger)
			fmt.Fprintf(out, "ledger:            %s\n", name)
			fmt.Fprintf(out, "id (checksum):     %s-%s\n", id, checksum)
			if id.Checksum() == checksum {
				matched = true
				fmt.Fprintln(out, "matches given checksum")
			}
			fmt.Fprintln(out, "")
		}
		if !matched {
			return errors.Wrapf(hedera.ErrChecksumValidation, "checksum %s does not belong to any known ledger", id.Checksum())
		}
		return nil
	},
}

func init() {
	idCmd.Flags().String("ledger", "", "Only check against this ledger (name or hex ledger id)")
	rootCmd.AddCommand(idCmd)
}
