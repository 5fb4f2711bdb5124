package main

import (
	"fmt"

	"github.com/alexdcox/hedera-go"
	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new operator key pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		useECDSA, _ := cmd.Flags().GetBool("ecdsa")

		var key hedera.PrivateKey
		keyType := "ed25519"
		if useECDSA {
			keyType = "ecdsa secp256k1"
			key, err = hedera.GenerateECDSAPrivateKey()
		} else {
			key, err = hedera.GenerateEd25519PrivateKey()
		}
		if err != nil {
			return
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Generated new hedera key:")
		fmt.Fprintln(out, "")
		fmt.Fprintf(out, "key type:       %s\n", keyType)
		fmt.Fprintf(out, "private:        %s\n", key)
		fmt.Fprintf(out, "public:         %s\n", key.PublicKey())
		return
	},
}

func init() {
	keygenCmd.Flags().Bool("ecdsa", false, "Generate an ECDSA secp256k1 key instead of ed25519")
	rootCmd.AddCommand(keygenCmd)
}
