package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
)

func newKeysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Derive and inspect keys",
	}
	cmd.AddCommand(newKeysLoginCmd(a), newKeysPublicCmd(a))
	return cmd
}

func newKeysLoginCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "login USERNAME PASSWORD",
		Short:                 "Derive the owner, active, posting and memo keys of an account",
		Long: `
Derive the four role keys of USERNAME from its master PASSWORD. The private
keys are printed in WIF form; keep the output secret.
`[1:],
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := a.api.LoginKeys(args[0], args[1])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, keys)
			}
			for _, role := range crypto.Roles {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s %s\n", role, keys[role].Public, keys[role].Private)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newKeysPublicCmd(a *app) *cobra.Command {
	return &cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "public WIF...",
		Short:                 "Print the public key of each private key",
		Args:                  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, wif := range args {
				pub, err := a.api.PublicKey(wif)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pub)
			}
			return nil
		},
	}
}
