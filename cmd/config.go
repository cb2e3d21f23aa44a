package cmd

import "github.com/spf13/cobra"

func configCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.cfg.Write(cmd.OutOrStdout())
		},
	}
}
