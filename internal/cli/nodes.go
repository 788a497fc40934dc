package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/spf13/cobra"
)

func newNodesCmd(g *globalOpts) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the node types of the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			tbl := a.Table()
			cats := tbl.Categories()
			names := make([]string, 0, len(cats))
			for c := range cats {
				if category == "" || strings.EqualFold(c, category) {
					names = append(names, c)
				}
			}
			if len(names) == 0 {
				return fmt.Errorf("no node category %q", category)
			}
			slices.Sort(names)

			var rows [][]string
			for _, c := range names {
				for _, name := range cats[c] {
					typ := tbl.Index(name)
					meta := tbl.Node(typ)
					evaluators := a.Bindings().For(typ).Mask
					text := evaluators.String()
					if evaluators == 0 {
						text = warn.Sprint(text)
					}
					rows = append(rows, []string{c, name, slotNames(meta.Inputs), slotNames(meta.Outputs), text})
				}
			}
			table(cmd.OutOrStdout(), []string{"CATEGORY", "NAME", "INPUTS", "OUTPUTS", "EVALUATORS"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list this category.")
	return cmd
}

func slotNames(slots []metanode.Slot) string {
	if len(slots) == 0 {
		return subtle.Sprint("-")
	}
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.Name
	}
	return strings.Join(names, ",")
}
