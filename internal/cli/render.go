package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/specialistvlad/texgridgo/internal/app"
	"github.com/spf13/cobra"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	start int // first frame
	end   int // last frame, inclusive
	quiet bool
}

func newRenderCmd(g *globalOpts) *cobra.Command {
	opts := renderOpts{}
	cmd := &cobra.Command{
		Use:   "render [PROJECT]",
		Short: "Evaluate a project and write its outputs",
		Long: `Render loads a project, evaluates every node until the graph settles and
then forces the ImageWrite and Thumbnail nodes, once per frame. Without
--start and --end the project's own frame range is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.ProjectPath = args[0]
			}
			if cfg.ProjectPath == "" {
				return usageError(errors.New("no project given: pass PROJECT or set project in the config file"))
			}
			applyFrameFlags(cmd, &cfg, opts)

			a, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}
			res, err := a.Render(cmd.Context())
			err = errors.Join(err, a.Close(cmd.Context()))
			if res != nil && !opts.quiet {
				printRenderSummary(cmd.OutOrStdout(), cfg.ProjectPath, res)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&opts.start, "start", 0, "First frame to render.")
	cmd.Flags().IntVar(&opts.end, "end", 0, "Last frame to render.")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the summary.")
	return cmd
}

// applyFrameFlags sets the frame range from --start and --end. One flag
// alone renders that single frame.
func applyFrameFlags(cmd *cobra.Command, cfg *app.Config, opts renderOpts) {
	start, end := cmd.Flags().Changed("start"), cmd.Flags().Changed("end")
	switch {
	case start && end:
		cfg.FrameStart, cfg.FrameEnd = opts.start, opts.end
	case start:
		cfg.FrameStart, cfg.FrameEnd = opts.start, opts.start
	case end:
		cfg.FrameStart, cfg.FrameEnd = opts.end, opts.end
	}
}

func printRenderSummary(w io.Writer, project string, res *app.RenderResult) {
	fmt.Fprintf(w, "%s %s: %d frame(s), %d pass(es)\n\n", brand.Sprint("texgrid"), project, res.Frames, res.Passes)
	rows := make([][]string, 0, len(res.Status.Stages))
	failed := 0
	for _, st := range res.Status.Stages {
		size := fmt.Sprintf("%dx%d", st.Width, st.Height)
		if st.Cube {
			size += " cube"
		}
		if st.Failed {
			failed++
		}
		rows = append(rows, []string{strconv.Itoa(st.Index), st.Type, size, strconv.Itoa(st.Evaluations), statusIcon(!st.Failed)})
	}
	table(w, []string{"#", "TYPE", "SIZE", "EVALS", "OK"}, rows)
	if failed > 0 {
		fmt.Fprintln(w)
		warn.Fprintf(w, "%d node(s) failed, see the log for details\n", failed)
	}
}
