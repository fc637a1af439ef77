// hive-tx CLI - offline transaction and memo tool
//
// Example usage:
//
//	# Derive the keys of an account from its master password
//	hive-tx keys login alice 'P5K...'
//
//	# Build, sign and inspect a transaction
//	hive-tx tx create --head-block-number 1234 --head-block-id 000004d2... \
//	  --head-time 2017-07-15T16:41:19 ops.json > tx.json
//	hive-tx tx sign --key 5J... tx.json > signed.json
//	hive-tx tx recover signed.json
//
//	# Private memos
//	hive-tx memo encode --to STM8m5... --key 5J... 'hello'
//	hive-tx memo decode --key 5J... '#FqMX...'
//
//	# Signing URIs
//	hive-tx uri parse 'hive://sign/op/WyJ2b3RlIix7fV0'
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/suffix-labs/hive-tx-go/pkg/api"
	"github.com/suffix-labs/hive-tx-go/pkg/config"
	"github.com/suffix-labs/hive-tx-go/pkg/log"
)

// Revision is set at build time.
var Revision = "dev"

var logger = log.New("cli")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the state shared by all subcommands.
type app struct {
	cfgFile string
	chainID string
	prefix  string
	debug   bool

	api *api.API
}

func (a *app) flags() *flag.FlagSet {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.StringVar(&a.cfgFile, "config", "", "Config file (default $HOME/"+config.FileName+".yaml)")
	flags.StringVar(&a.chainID, "chain-id", "", "Chain id as 64 hex characters (overrides config)")
	flags.StringVar(&a.prefix, "prefix", "", "Public key prefix (overrides config)")
	flags.BoolVar(&a.debug, "debug", false, "Log debug output")
	return flags
}

// setup loads the config, applies flag overrides and builds the API.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("chain-id") {
		cfg.ChainID = a.chainID
	}
	if flags.Changed("prefix") {
		cfg.AddressPrefix = a.prefix
	}
	if flags.Changed("debug") {
		cfg.Debug = a.debug
	}
	log.SetDebug(cfg.Debug)
	log.SetOutput(cmd.ErrOrStderr())

	if a.api, err = api.New(cfg); err != nil {
		return err
	}
	logger.WithField("config", a.cfgFile).Debug("ready")
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "hive-tx",
		Short: "Offline Hive transaction and memo tool",
		Long: `
hive-tx builds, serializes and signs Hive transactions and encrypts private
memos without talking to a node.

Configuration

Settings are read from --config, or $HOME/.hive-tx.yaml when present, and
from HIVETX_* environment variables (HIVETX_CHAIN_ID, HIVETX_ADDRESS_PREFIX,
HIVETX_MEMO_MARKER, HIVETX_EXPIRE_TIME, HIVETX_ASSET_ENCODING). --chain-id and
--prefix override both.`[1:],
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	cmd.PersistentFlags().AddFlagSet(a.flags())

	cmd.AddCommand(
		newKeysCmd(a),
		newTxCmd(a),
		newMemoCmd(a),
		newURICmd(a),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hive-tx: %v\n", Revision)
		},
	}
}

// readInput reads the file at path, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// printJSON writes v indented to the command's output.
func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
