package cmd

import (
	"os/signal"
	"syscall"

	"github.com/TFMV/forcegraph/ingest"
	"github.com/TFMV/forcegraph/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func serveCmd(root *rootOptions) *cobra.Command {
	var (
		addr   string
		format string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "serve [payload]",
		Short: "Serve the interactive graph page",
		Long: "Serve the payload as a live page. Every browser tab gets its own simulation;\n" +
			"pointer events travel over a websocket and frames stream back.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if len(args) == 1 {
				cfg.Server.Payload = args[0]
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("format") {
				cfg.Server.Format = format
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watch
			}
			if cfg.Server.Payload == "" {
				return errors.New("no payload: pass a file or set server.payload")
			}

			payload, err := ingest.ProcessFile(cfg.Server.Payload, cfg.Server.Format)
			if err != nil {
				return err
			}
			srv, err := server.New(cfg, payload, root.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			Info.Fprintf(cmd.OutOrStdout(), "serving %s on %s\n", cfg.Server.Payload, cfg.Server.Addr)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&format, "format", "", "Payload format: json, yaml, msgpack or csv (default from extension)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the payload when the file changes")
	return cmd
}
