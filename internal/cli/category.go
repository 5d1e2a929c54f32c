package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/loopfi/loopchain/internal/category"
	"github.com/loopfi/loopchain/internal/output"
)

// categoryCmd maps achievement types to dashboard categories.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var categoryCmd = &cobra.Command{
	Use:   "category [type...]",
	Short: "Map achievement types to categories",
	Long: `Show the dashboard category each achievement type falls into. Types the
mapper does not recognize fall into "goals". Without arguments every known
type is listed.`,
	Example: `  loopchain category
  loopchain category streak_milestone team_player
  loopchain category some_new_type -o json`,
	RunE: runCategory,
	ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		types := category.Types()
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	},
}

// CategoryMapping is one row of category.
type CategoryMapping struct {
	Type     category.Type     `json:"type"`
	Category category.Category `json:"category"`
	Known    bool              `json:"known"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	categoryCmd.GroupID = groupAccount
	rootCmd.AddCommand(categoryCmd)
}

func runCategory(_ *cobra.Command, args []string) error {
	cc := newCommandContext()

	types := category.Types()
	if len(args) > 0 {
		types = make([]category.Type, len(args))
		for i, arg := range args {
			types[i] = category.Type(arg)
		}
	}

	mappings := make([]CategoryMapping, len(types))
	for i, t := range types {
		mappings[i] = CategoryMapping{Type: t, Category: category.MapCategory(t), Known: category.IsKnown(t)}
	}

	return cc.Formatter.Emit(mappings, func(w io.Writer) error {
		table := output.NewTable("TYPE", "CATEGORY", "KNOWN")
		for _, m := range mappings {
			known := strconv.FormatBool(m.Known)
			if !m.Known {
				known = cc.Formatter.Style().Muted("false (default)")
			}
			table.AddRow(string(m.Type), string(m.Category), known)
		}
		return table.Render(w)
	})
}
