package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TFMV/forcegraph/ingest"
	"github.com/TFMV/forcegraph/render"
	"github.com/TFMV/forcegraph/view"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func layoutCmd(root *rootOptions) *cobra.Command {
	var (
		output      string
		format      string
		inputFormat string
		maxTicks    int
		fit         bool
	)

	cmd := &cobra.Command{
		Use:   "layout <payload>",
		Short: "Run the simulation to convergence and render a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := render.GetRenderer(format)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-ticks") {
				maxTicks = root.cfg.Simulation.MaxTicks
			}

			payload, err := ingest.ProcessFile(args[0], inputFormat)
			if err != nil {
				return err
			}
			g, err := payload.Graph()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out, err := renderLayout(ctx, view.New(g, root.cfg.ViewOptions()), renderer, maxTicks, fit, root)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return errors.Wrapf(err, "write %s", output)
			}
			Good.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s, %d nodes)\n", output, renderer.Name(), g.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "Output format: svg, ascii or json")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Payload format (default from extension)")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 1000, "Upper bound on simulation ticks")
	cmd.Flags().BoolVar(&fit, "fit", false, "Scale the viewport so the whole graph is visible")
	return cmd
}

func renderLayout(ctx context.Context, v *view.View, renderer render.Renderer, maxTicks int, fit bool, root *rootOptions) ([]byte, error) {
	ticks, converged := v.Settle(ctx, maxTicks)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "layout interrupted")
	}
	if !converged {
		root.logger.Warn("simulation did not converge", "ticks", ticks, "alpha", v.Alpha())
	} else {
		root.logger.Debug("simulation converged", "ticks", ticks)
	}
	if fit {
		if _, err := v.Handle(view.Event{Type: view.EventFit}); err != nil {
			return nil, err
		}
	}
	return v.Render(renderer)
}
