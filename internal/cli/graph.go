package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/texgridgo/internal/app"
	"github.com/specialistvlad/texgridgo/internal/dot"
	"github.com/specialistvlad/texgridgo/internal/evalctx"
	"github.com/specialistvlad/texgridgo/internal/graph"
	"github.com/spf13/cobra"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	format    string // "dot" or "svg"
	output    string // output file, stdout when empty
	positions bool   // pin nodes at their canvas position
}

func newGraphCmd(g *globalOpts) *cobra.Command {
	opts := graphOpts{}
	cmd := &cobra.Command{
		Use:   "graph PROJECT",
		Short: "Print the node graph of a project as dot or svg",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatDOT && opts.format != formatSVG {
				return usageError(fmt.Errorf("invalid format %q: must be %q or %q", opts.format, formatDOT, formatSVG))
			}
			a, model, err := loadProject(cmd, g, args[0])
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			_, order, err := evalctx.Order(model)
			if err != nil {
				a.Logger().Warn("Graph has a cycle, nodes are not ranked.", "error", err)
			}
			src := dot.ToDOT(model, dot.Options{Positions: opts.positions, Order: order})
			out := []byte(src)
			if opts.format == formatSVG {
				if out, err = dot.RenderSVG(cmd.Context(), src); err != nil {
					return err
				}
			}
			return writeOutput(cmd, opts.output, out)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatDOT, "Output format: dot or svg.")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file, stdout when empty.")
	cmd.Flags().BoolVar(&opts.positions, "positions", false, "Pin nodes at their canvas position.")
	return cmd
}

func newLayoutCmd(g *globalOpts) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "layout PROJECT",
		Short: "Arrange the nodes of a project by evaluation order",
		Long: `Layout places every node in a column per dependency layer and saves the
project, in place unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, model, err := loadProject(cmd, g, args[0])
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			_, order, err := evalctx.Order(model)
			if err != nil {
				return err
			}
			model.ApplyLayout(order)
			if output == "" {
				output = args[0]
			}
			if err := a.Loader().SaveProject(cmd.Context(), output, model); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d node(s) laid out into %s\n", statusIcon(true), model.NodeCount(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the project here instead of in place.")
	return cmd
}

// loadProject builds an app and loads the project at path into a new model.
func loadProject(cmd *cobra.Command, g *globalOpts, path string) (*app.App, *graph.Model, error) {
	cfg, err := g.config(cmd)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	model := graph.New(a.Table())
	if err := a.Loader().LoadProject(cmd.Context(), path, model); err != nil {
		return nil, nil, errors.Join(err, a.Close(cmd.Context()))
	}
	return a, model, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
