package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/TFMV/forcegraph/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

// options shared by every command
type rootOptions struct {
	configPath string
	debug      bool
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "forcegraph",
		Short: "Interactive force-directed graphs",
		Long: Brand.Sprint("forcegraph") + " lays out weighted graphs with a force simulation\n" +
			Subtle.Sprint("Serve them as a live page, or render converged SVG, ASCII and JSON snapshots"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logFormat, opts.debug)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			opts.logger = logger

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.SetVersionTemplate("forcegraph {{ .Version }}\n")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a TOML config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(
		serveCmd(opts),
		layoutCmd(opts),
		validateCmd(opts),
		configCmd(opts),
	)
	return root
}

// Execute runs the command tree
func Execute() error {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		Bad.Fprintf(os.Stderr, "forcegraph: %v\n", err)
		return err
	}
	return nil
}

func newLogger(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}
}
