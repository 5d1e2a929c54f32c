package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/loopfi/loopchain/internal/output"
	"github.com/loopfi/loopchain/internal/service/balance"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// balanceAll checks every configured network.
	balanceAll bool
	// balanceTokens includes the configured ERC-20 tokens.
	balanceTokens bool
	// balanceRequireFunds fails when a checked balance is empty.
	balanceRequireFunds bool
)

// balanceCmd checks native and token balances.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Check account balances",
	Long: `Check the native balance of an address, or of the active account when no
address is given.

An empty balance and a failed query are reported differently: an empty
account shows the faucet to fund it from, a failed query shows the error.
With --all every configured network is checked concurrently and one
network failing does not hide the others.`,
	Example: `  loopchain balance
  loopchain balance 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266 --network hardhat
  loopchain balance --all --tokens
  loopchain balance --network alfajores --require-funds -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBalance,
}

// BalanceAllResponse is the JSON shape of balance --all.
type BalanceAllResponse struct {
	Reports []*balance.Report `json:"reports"`
	Summary balance.Summary   `json:"summary"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	balanceCmd.GroupID = groupAccount
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().BoolVar(&balanceAll, "all", false, "check every configured network")
	balanceCmd.Flags().BoolVar(&balanceTokens, "tokens", false, "include configured ERC-20 token balances")
	balanceCmd.Flags().BoolVar(&balanceRequireFunds, "require-funds", false, "exit with an error when a balance is empty")
}

func runBalance(cmd *cobra.Command, args []string) error {
	cc := newCommandContext()

	address := ""
	if len(args) == 1 {
		address = args[0]
	}

	svc := balance.NewService(&balance.Config{
		Networks:      cc.Config.Networks,
		Factory:       cc.BalanceFactory(),
		IncludeTokens: balanceTokens,
		Logger:        cc.Logger,
	})

	ctx, cancel := contextWithTimeout(cmd, defaultCommandTimeout)
	defer cancel()

	if balanceAll {
		return runBalanceAll(ctx, cc, svc, address)
	}

	n, err := cc.ActiveNetwork()
	if err != nil {
		return err
	}

	var report *balance.Report
	if address == "" {
		report, err = svc.CheckActive(ctx, n)
	} else {
		report, err = svc.Check(ctx, n, address)
	}
	if err != nil {
		return err
	}

	if err = cc.Formatter.Emit(report, func(w io.Writer) error {
		return writeReportText(w, cc.Formatter.Style(), report)
	}); err != nil {
		return err
	}
	reportWarnings(cc.Formatter, report)

	if balanceRequireFunds {
		return report.RequireFunds()
	}
	return nil
}

func runBalanceAll(ctx context.Context, cc *CommandContext, svc *balance.Service, address string) error {
	reports, err := svc.CheckAll(ctx, address)
	if err != nil {
		return err
	}
	summary := balance.Summarize(reports)

	resp := BalanceAllResponse{Reports: reports, Summary: summary}
	if err = cc.Formatter.Emit(resp, func(w io.Writer) error {
		return writeReportTable(w, cc.Formatter.Style(), reports, summary)
	}); err != nil {
		return err
	}
	for _, r := range reports {
		reportWarnings(cc.Formatter, r)
	}

	// Every network failing is a failure of the command; a partial outage
	// is visible in the table and the summary.
	if summary.Failed == len(reports) && len(reports) > 0 {
		return reports[0].Err
	}
	if balanceRequireFunds {
		for _, r := range reports {
			if err = r.RequireFunds(); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeReportText(w io.Writer, style *output.Style, r *balance.Report) error {
	outln(w, style.Bold(r.Network)+" "+style.Muted(chainIDLabel(r.ChainID)))
	out(w, "  Address: %s\n", r.Address)
	out(w, "  Balance: %s %s\n", r.Balance.Formatted, r.Balance.Symbol)
	for _, t := range r.Tokens {
		out(w, "  %s: %s\n", t.Symbol, t.Formatted)
	}
	out(w, "  Status:  %s\n", style.Status(string(r.Status)))
	if r.FaucetURL != "" {
		out(w, "  Faucet:  %s\n", r.FaucetURL)
	}
	return nil
}

func writeReportTable(w io.Writer, style *output.Style, reports []*balance.Report, summary balance.Summary) error {
	table := output.NewTable("NETWORK", "ADDRESS", "BALANCE", "SYMBOL", "STATUS").AlignRight(2)
	for _, r := range reports {
		amount, symbol := "-", ""
		if r.Balance != nil {
			amount, symbol = r.Balance.Formatted, r.Balance.Symbol
		}
		table.AddRow(r.Network, shortAddress(r.Address), amount, symbol, style.Status(string(r.Status)))
		for _, t := range r.Tokens {
			table.AddRow("", "", t.Formatted, t.Symbol, "")
		}
	}
	if err := table.Render(w); err != nil {
		return err
	}

	outln(w)
	out(w, "%d funded, %d empty, %d failed\n", summary.Funded, summary.Empty, summary.Failed)
	for _, r := range reports {
		switch {
		case r.Status == balance.StatusError:
			out(w, "  %s: %s\n", r.Network, style.Error(r.Error))
		case r.FaucetURL != "":
			out(w, "  %s: fund at %s\n", r.Network, r.FaucetURL)
		}
	}
	return nil
}

func reportWarnings(f *output.Formatter, r *balance.Report) {
	for _, warning := range r.Warnings {
		f.Warnf("%s: %s", r.Network, warning)
	}
}
