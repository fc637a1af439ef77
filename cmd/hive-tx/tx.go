package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
	"github.com/suffix-labs/hive-tx-go/pkg/tx"
)

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Build, sign and inspect transactions",
		Long: `
Transaction files hold the JSON form of a transaction:

  {"ref_block_num": 1234, "ref_block_prefix": 1122334455,
   "expiration": "2017-07-15T16:51:19", "operations": [["vote", {...}]],
   "extensions": []}

Use - to read from stdin.
`[1:],
	}
	cmd.AddCommand(
		newTxCreateCmd(a),
		newTxSerializeCmd(a),
		newTxDigestCmd(a),
		newTxIDCmd(a),
		newTxSignCmd(a),
		newTxRecoverCmd(a),
		newTxCombineCmd(a),
	)
	return cmd
}

func readTransaction(cmd *cobra.Command, path string) (*protocol.Transaction, error) {
	raw, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	var t protocol.Transaction
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, errors.Wrapf(err, "%s: invalid transaction", path)
	}
	return &t, nil
}

func readSignedTransaction(cmd *cobra.Command, path string) (*protocol.SignedTransaction, error) {
	raw, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	var stx protocol.SignedTransaction
	if err := json.Unmarshal(raw, &stx); err != nil {
		return nil, errors.Wrapf(err, "%s: invalid signed transaction", path)
	}
	return &stx, nil
}

func newTxCreateCmd(a *app) *cobra.Command {
	var (
		props    tx.TxSignProperties
		headTime string
	)
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "create --head-block-number N --head-block-id ID --head-time TIME OPERATIONS",
		Short:                 "Create an unsigned transaction from a JSON list of operations",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			head, err := protocol.ParseTime(headTime)
			if err != nil {
				return errors.Wrap(err, "--head-time")
			}
			props.Time = head.Time

			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var ops []protocol.Operation
			if err := json.Unmarshal(raw, &ops); err != nil {
				return errors.Wrapf(err, "%s: invalid operations", args[0])
			}

			t, err := a.api.CreateTransaction(props, ops)
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}
	flags := cmd.Flags()
	flags.Uint32Var(&props.HeadBlockNumber, "head-block-number", 0, "Head block number")
	flags.StringVar(&props.HeadBlockID, "head-block-id", "", "Head block id (hex)")
	flags.StringVar(&headTime, "head-time", "", "Head block time (2006-01-02T15:04:05)")
	for _, name := range []string{"head-block-number", "head-block-id", "head-time"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTxSerializeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serialize TRANSACTION",
		Short: "Print the hex wire encoding of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTransaction(cmd, args[0])
			if err != nil {
				return err
			}
			raw, err := a.api.SerializeTransaction(t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(raw))
			return nil
		},
	}
}

func newTxDigestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "digest TRANSACTION",
		Short: "Print the signing digest of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTransaction(cmd, args[0])
			if err != nil {
				return err
			}
			digest, err := a.api.Digest(t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}
}

func newTxIDCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "id TRANSACTION",
		Short: "Print the transaction id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTransaction(cmd, args[0])
			if err != nil {
				return err
			}
			id, err := a.api.TrxID(t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newTxSignCmd(a *app) *cobra.Command {
	var keys []string
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "sign --key WIF... TRANSACTION",
		Short:                 "Sign a transaction",
		Long: `
Sign TRANSACTION with every --key. Signatures already present in the file
are kept and the new ones are appended.
`[1:],
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stx, err := readSignedTransaction(cmd, args[0])
			if err != nil {
				return err
			}
			signed, err := a.api.AppendSignatures(stx, keys...)
			if err != nil {
				return err
			}
			return printJSON(cmd, signed)
		},
	}
	cmd.Flags().StringSliceVarP(&keys, "key", "k", nil, "Private key in WIF form (repeatable)")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newTxRecoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recover SIGNED_TRANSACTION",
		Short: "Print the public key behind each signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stx, err := readSignedTransaction(cmd, args[0])
			if err != nil {
				return err
			}
			keys, err := a.api.RecoverSigners(stx)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newTxCombineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "combine SIGNED_TRANSACTION...",
		Short: "Merge the signatures of copies of one transaction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stxs := make([]*protocol.SignedTransaction, len(args))
			for i, path := range args {
				stx, err := readSignedTransaction(cmd, path)
				if err != nil {
					return err
				}
				stxs[i] = stx
			}
			combined, err := a.api.Combine(stxs...)
			if err != nil {
				return err
			}
			return printJSON(cmd, combined)
		},
	}
}
