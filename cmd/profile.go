package cmd

import (
	"fmt"

	"github.com/KaramelBytes/mixclust/internal/profile"
	"github.com/KaramelBytes/mixclust/internal/utils"
	"github.com/spf13/cobra"
)

var (
	prInput  inputFlags
	prOutput string
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Summarize column kinds, missing values and spread of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := prInput.load(args[0])
		if err != nil {
			return err
		}
		sum, err := profile.Summarize(t)
		if err != nil {
			return err
		}
		md := sum.Markdown()
		if prOutput != "" {
			if err := utils.SafeWriteFile(prOutput, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", prOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	prInput.register(profileCmd)
	profileCmd.Flags().StringVarP(&prOutput, "output", "o", "", "optional path to write the profile (Markdown)")
}
