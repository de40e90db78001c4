package cmd

import (
	"fmt"

	"github.com/KaramelBytes/mixclust/internal/runstore"
	"github.com/spf13/cobra"
)

var runsShowFormat string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List or show saved runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := runstore.New(effectiveConfig().RunsDir).List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		for _, r := range runs {
			blocks, shape := 0, "?"
			if r.Result != nil {
				blocks = len(r.Result.Blocks)
				shape = fmt.Sprintf("%dx%d", r.Result.Rows, r.Result.Cols)
			}
			fmt.Fprintf(out, "- %s: %s (%s, %d blocks, %s)\n",
				r.ShortID(), r.Name, shape, blocks, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved run by id or unique id prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(runsShowFormat); err != nil {
			return err
		}
		r, err := runstore.New(effectiveConfig().RunsDir).Load(args[0])
		if err != nil {
			return err
		}
		if r.Result == nil {
			return fmt.Errorf("run %s has no result", r.ShortID())
		}
		body, err := renderResult(r.Result, runsShowFormat)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s (%s) from %s\n\n%s\n", r.ID, r.Name, r.Source, body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsShowCmd.Flags().StringVarP(&runsShowFormat, "format", "f", "markdown", "output format: json|yaml|markdown")
}
