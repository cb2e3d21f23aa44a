package cmd

import (
	"fmt"
	"sort"

	"github.com/TFMV/forcegraph/ingest"
	"github.com/spf13/cobra"
)

func validateCmd(root *rootOptions) *cobra.Command {
	var inputFormat string

	cmd := &cobra.Command{
		Use:   "validate <payload>",
		Short: "Check that a payload loads and print its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			payload, err := ingest.ProcessFile(args[0], inputFormat)
			if err != nil {
				Bad.Fprintf(out, "  ✗ %s\n", args[0])
				return err
			}
			g, err := payload.Graph()
			if err != nil {
				return err
			}

			groups := map[int]int{}
			isolated, selfLoops, maxDegree := 0, 0, 0
			for i, n := range g.Nodes {
				groups[n.Group]++
				d := g.Degree(i)
				if d == 0 {
					isolated++
				}
				if d > maxDegree {
					maxDegree = d
				}
			}
			for i := range g.Links {
				if g.Links[i].SelfLoop() {
					selfLoops++
				}
			}
			keys := make([]int, 0, len(groups))
			for k := range groups {
				keys = append(keys, k)
			}
			sort.Ints(keys)

			Good.Fprintf(out, "  ✓ %s\n", args[0])
			fmt.Fprintf(out, "    nodes       %d\n", g.Len())
			fmt.Fprintf(out, "    links       %d\n", len(g.Links))
			fmt.Fprintf(out, "    groups      %d\n", len(groups))
			fmt.Fprintf(out, "    max degree  %d\n", maxDegree)
			if isolated > 0 {
				Warn.Fprintf(out, "    isolated    %d\n", isolated)
			}
			if selfLoops > 0 {
				Warn.Fprintf(out, "    self-loops  %d\n", selfLoops)
			}
			for _, k := range keys {
				Subtle.Fprintf(out, "    group %-5d %d nodes\n", k, groups[k])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Payload format (default from extension)")
	return cmd
}
