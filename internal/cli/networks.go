package cli

import (
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/loopfi/loopchain/internal/config"
	"github.com/loopfi/loopchain/internal/output"
	"github.com/loopfi/loopchain/internal/service/network"
)

// networksCmd lists the configured networks.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List configured networks",
	Long: `List the networks loopchain can talk to, with their chain id, native
symbol and RPC endpoint. The default network is marked with *.

RPC URLs are shown without path or query, since hosted providers put API
keys there.`,
	Example: `  loopchain networks
  loopchain networks -o json`,
	Args: cobra.NoArgs,
	RunE: runNetworks,
}

// networksCheckCmd checks RPC endpoints.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networksCheckCmd = &cobra.Command{
	Use:   "check [name...]",
	Short: "Check RPC endpoints and credentials",
	Long: `Connect to each network, confirm the node serves the configured chain id,
and report the latest block, the round-trip latency and whether a signing
credential is loaded.

A missing credential is reported but is not a failure. An unreachable
endpoint or a chain id mismatch makes the command fail.`,
	Example: `  loopchain networks check
  loopchain networks check hardhat alfajores`,
	RunE: runNetworksCheck,
	ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Defaults().NetworkNames(), cobra.ShellCompDirectiveNoFileComp
	},
}

// NetworkInfo is one row of networks.
type NetworkInfo struct {
	Name      string `json:"name"`
	ChainID   int64  `json:"chain_id"`
	Symbol    string `json:"symbol"`
	RPCURL    string `json:"rpc_url"`
	FaucetURL string `json:"faucet_url,omitempty"`
	Tokens    int    `json:"tokens"`
	Default   bool   `json:"default"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	networksCmd.GroupID = groupChain
	rootCmd.AddCommand(networksCmd)
	networksCmd.AddCommand(networksCheckCmd)
}

func runNetworks(_ *cobra.Command, _ []string) error {
	cc := newCommandContext()

	infos := make([]NetworkInfo, 0, len(cc.Config.Networks))
	for _, name := range cc.Config.NetworkNames() {
		n := cc.Config.Networks[name]
		infos = append(infos, NetworkInfo{
			Name:      name,
			ChainID:   n.ChainID,
			Symbol:    n.Symbol,
			RPCURL:    displayURL(n.RPCURL),
			FaucetURL: n.FaucetURL,
			Tokens:    len(n.Tokens),
			Default:   name == cc.Config.DefaultNetwork,
		})
	}

	return cc.Formatter.Emit(infos, func(w io.Writer) error {
		table := output.NewTable("", "NETWORK", "CHAIN ID", "SYMBOL", "RPC").AlignRight(2)
		for _, info := range infos {
			marker := ""
			if info.Default {
				marker = "*"
			}
			table.AddRow(marker, info.Name, strconv.FormatInt(info.ChainID, 10), info.Symbol, info.RPCURL)
		}
		return table.Render(w)
	})
}

func runNetworksCheck(cmd *cobra.Command, args []string) error {
	cc := newCommandContext()

	var targets []config.Network
	if len(args) == 0 {
		for _, name := range cc.Config.NetworkNames() {
			targets = append(targets, cc.Config.Networks[name])
		}
	} else {
		for _, name := range args {
			n, err := cc.Config.Lookup(name)
			if err != nil {
				return err
			}
			targets = append(targets, n)
		}
	}

	ctx, cancel := contextWithTimeout(cmd, defaultCommandTimeout)
	defer cancel()

	svc := network.NewService(cc.DiagnoseFactory(), cc.Logger)
	diagnoses := svc.DiagnoseAll(ctx, targets)
	for _, d := range diagnoses {
		d.RPCURL = displayURL(d.RPCURL)
	}

	if err := cc.Formatter.Emit(diagnoses, func(w io.Writer) error {
		return writeDiagnoses(w, cc.Formatter.Style(), diagnoses)
	}); err != nil {
		return err
	}
	return network.FirstError(diagnoses)
}

func writeDiagnoses(w io.Writer, style *output.Style, diagnoses []*network.Diagnosis) error {
	table := output.NewTable("NETWORK", "CHAIN ID", "BLOCK", "LATENCY", "SIGNER", "STATUS").AlignRight(2, 3)
	for _, d := range diagnoses {
		block, latency := "-", "-"
		if d.LatestBlock > 0 || d.Status == network.StatusOK {
			block = strconv.FormatUint(d.LatestBlock, 10)
			latency = d.Latency.Round(time.Millisecond).String()
		}
		chainID := strconv.FormatInt(d.ConfiguredChainID, 10)
		if d.RemoteChainID != 0 && !d.ChainIDMatch {
			chainID += " (node: " + strconv.FormatInt(d.RemoteChainID, 10) + ")"
		}
		signer := style.Muted("none")
		if d.CredentialLoaded {
			signer = shortAddress(d.SignerAddress)
		}
		table.AddRow(d.Network, chainID, block, latency, signer, style.Status(d.Status))
	}
	if err := table.Render(w); err != nil {
		return err
	}

	for _, d := range diagnoses {
		if d.Error != "" {
			out(w, "  %s: %s\n", d.Network, style.Error(d.Error))
		}
	}
	return nil
}
