package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	clInput inputFlags
	clFit   fitFlags
	clAxis  string
)

var clustersCmd = &cobra.Command{
	Use:   "clusters <file>",
	Short: "Fit a table and print its column and row clusters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showCols, showRows := false, false
		switch clAxis {
		case "columns", "cols":
			showCols = true
		case "rows":
			showRows = true
		case "both", "":
			showCols, showRows = true, true
		default:
			return fmt.Errorf("unsupported --axis: %s (use columns|rows|both)", clAxis)
		}
		t, err := clInput.load(args[0])
		if err != nil {
			return err
		}
		s, err := clFit.session(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := s.engine.Fit(cmd.Context(), t, clFit.params(cmd))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if showCols {
			cc, err := s.engine.ColumnClusters(m, t)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Column clusters:")
			for _, l := range sortedKeys(cc) {
				fmt.Fprintf(out, "- %d: %s\n", l, strings.Join(cc[l], ", "))
			}
		}
		if showRows {
			rc, err := s.engine.RowClusters(m)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Row clusters:")
			for _, l := range sortedKeys(rc) {
				ids := make([]string, len(rc[l]))
				for i, id := range rc[l] {
					ids[i] = fmt.Sprint(id)
				}
				fmt.Fprintf(out, "- %d (%d rows): %s\n", l, len(ids), strings.Join(ids, ", "))
			}
		}
		for _, w := range m.Warnings() {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v\n", w)
		}
		return nil
	},
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(clustersCmd)
	clInput.register(clustersCmd)
	clFit.register(clustersCmd)
	clustersCmd.Flags().StringVar(&clAxis, "axis", "both", "which clusters to print: columns|rows|both")
}
