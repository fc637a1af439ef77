package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMemoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Encrypt and decrypt private memos",
	}
	cmd.AddCommand(newMemoEncodeCmd(a), newMemoDecodeCmd(a))
	return cmd
}

func newMemoEncodeCmd(a *app) *cobra.Command {
	var to, key string
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "encode --to PUBLIC_KEY --key WIF TEXT",
		Short:                 "Encrypt TEXT for the holder of PUBLIC_KEY",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.api.EncodeMemo(args[0], to, key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient memo public key")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Sender memo private key (WIF)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newMemoDecodeCmd(a *app) *cobra.Command {
	var (
		key        string
		keepPrefix bool
	)
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "decode --key WIF MEMO",
		Short:                 "Decrypt a memo sent to or by the holder of WIF",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.api.DecodeMemo(args[0], key, keepPrefix)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "Memo private key (WIF)")
	cmd.Flags().BoolVar(&keepPrefix, "keep-prefix", false, "Keep the memo marker on the output")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
