package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/mixclust/internal/config"
	"github.com/KaramelBytes/mixclust/internal/hcluster"
	"github.com/KaramelBytes/mixclust/internal/logging"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set mixclust configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "row_clusters: %d\n", cfg.RowClusters)
		fmt.Fprintf(out, "col_clusters: %d\n", cfg.ColClusters)
		fmt.Fprintf(out, "consider_missing_patterns: %t\n", cfg.ConsiderMissingPatterns)
		fmt.Fprintf(out, "linkage: %s\n", cfg.Linkage)
		fmt.Fprintf(out, "workers: %d\n", cfg.Workers)
		fmt.Fprintf(out, "normalize_blocks: %t\n", cfg.NormalizeBlocks)
		fmt.Fprintf(out, "max_rows: %d\n", cfg.MaxRows)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		if cfg.LogDir != "" {
			fmt.Fprintf(out, "log_dir: %s\n", cfg.LogDir)
		}
		fmt.Fprintf(out, "runs_dir: %s\n", cfg.RunsDir)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "row_clusters", "col_clusters":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for %s: %v (must be >= 1)", key, val)
			}
			if key == "row_clusters" {
				cfg.RowClusters = i
			} else {
				cfg.ColClusters = i
			}
		case "consider_missing_patterns", "normalize_blocks":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for %s: %w", key, err)
			}
			if key == "consider_missing_patterns" {
				cfg.ConsiderMissingPatterns = b
			} else {
				cfg.NormalizeBlocks = b
			}
		case "linkage":
			m, err := hcluster.ParseMethod(val)
			if err != nil {
				return err
			}
			cfg.Linkage = m.String()
		case "workers", "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			if key == "workers" {
				cfg.Workers = i
			} else {
				cfg.MaxRows = i
			}
		case "log_level":
			lvl, err := logging.ParseLevel(val)
			if err != nil {
				return err
			}
			cfg.LogLevel = strings.ToLower(lvl.String())
		case "log_format":
			switch strings.ToLower(val) {
			case "text", "json":
				cfg.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		case "log_dir":
			cfg.LogDir = val
		case "runs_dir":
			cfg.RunsDir = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
