package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveuri"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
)

func newURICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uri",
		Short: "Work with hive:// signing requests",
	}
	cmd.AddCommand(newURIParseCmd(a))
	return cmd
}

func newURIParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "parse URI",
		Short:                 "Show what a signing request asks for",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.api.ParseSigningRequest(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Signing Request:")
			fmt.Fprintf(out, "  Kind:         %s\n", req.Kind)
			if req.Params.Authority != "" {
				fmt.Fprintf(out, "  Authority:    %s\n", req.Params.Authority)
			}
			if req.Params.Signer != "" {
				fmt.Fprintf(out, "  Signer:       %s\n", req.Params.Signer)
			}
			if req.Params.Callback != "" {
				fmt.Fprintf(out, "  Callback:     %s\n", req.Params.Callback)
			}
			fmt.Fprintf(out, "  Broadcast:    %t\n", !req.Params.NoBroadcast)
			fmt.Fprintln(out)

			ops := req.Operations
			if req.Kind == hiveuri.KindTx {
				ops = req.Transaction.Operations
			}
			return printJSON(cmd, struct {
				Operations []protocol.Operation `json:"operations"`
			}{ops})
		},
	}
}
