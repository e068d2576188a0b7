package cli

import (
	"strings"

	"docchat/ui"
	"docchat/web/types"

	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var fuzzyMatch bool

	cmd := &cobra.Command{
		Use:   "models [query]",
		Short: "List the available models, optionally filtered by query",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			query := strings.Join(args, " ")

			var view ui.View = NewTerminalView(cmd.OutOrStdout(), nil, true, app.Logger)
			var filtered *filteredView
			if query != "" {
				// Only the filtered list is printed for a query.
				filtered = &filteredView{TerminalView: view.(*TerminalView)}
				view = filtered
			}

			c := ui.NewController(app.Client, view,
				ui.WithLogger(app.Logger),
				ui.WithFuzzySearch(fuzzyMatch))
			defer c.Close()

			if err := c.LoadModels(cmd.Context()); err != nil {
				return err
			}
			if filtered != nil {
				filtered.printing = true
				c.Search(query)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fuzzyMatch, "fuzzy", false, "rank matches by fuzzy score")
	return cmd
}

// filteredView suppresses the initial listing until printing is set.
type filteredView struct {
	*TerminalView
	printing bool
}

func (v *filteredView) ShowModels(models []types.Model) {
	if v.printing {
		v.TerminalView.ShowModels(models)
	}
}

func (v *filteredView) ShowNotice(n ui.DropdownNotice) {
	if v.printing || n != ui.NoticeLoading {
		v.TerminalView.ShowNotice(n)
	}
}

func (v *filteredView) SetSearchText(string) {}
