package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/mixclust/internal/bicluster"
	"github.com/KaramelBytes/mixclust/internal/runstore"
	"github.com/KaramelBytes/mixclust/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	bcInput      inputFlags
	bcFit        fitFlags
	bcFormat     string
	bcOutput     string
	bcSave       bool
	bcName       string
	bcMetrics    string
	bcCompare    bool
	bcCompareMax int
)

var biclusterCmd = &cobra.Command{
	Use:   "bicluster <file>",
	Short: "Fit a CSV/TSV/XLSX table and emit its globally ordered mixed-type blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if err := checkFormat(bcFormat); err != nil {
			return err
		}
		t, err := bcInput.load(path)
		if err != nil {
			return err
		}
		s, err := bcFit.session(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		a, err := s.engine.Analyze(cmd.Context(), t, bcFit.params(cmd))
		if err != nil {
			return err
		}
		res := a.Result()
		out, err := renderResult(res, bcFormat)
		if err != nil {
			return err
		}
		if bcCompare {
			out = strings.TrimRight(out, "\n") + "\n\n" + a.CompareMarkdown(bcCompareMax)
		}

		if bcOutput != "" {
			if err := utils.SafeWriteFile(bcOutput, []byte(out)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote result to %s\n", bcOutput)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		if bcSave {
			run, err := saveRun(bcName, path, res)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved run %s\n", run.ShortID())
		}
		if bcMetrics != "" {
			if err := s.rec.WriteTextfile(bcMetrics); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}
		return nil
	},
}

func checkFormat(f string) error {
	switch f {
	case "json", "yaml", "markdown", "md":
		return nil
	}
	return fmt.Errorf("unsupported --format: %s (use json|yaml|markdown)", f)
}

func renderResult(res *bicluster.Result, format string) (string, error) {
	switch format {
	case "json":
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "yaml":
		b, err := yaml.Marshal(res)
		if err != nil {
			return "", fmt.Errorf("marshal yaml: %w", err)
		}
		return string(b), nil
	default:
		return res.Markdown(), nil
	}
}

func saveRun(name, source string, res *bicluster.Result) (*runstore.Run, error) {
	if name == "" {
		name = utils.BaseName(source)
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	run := runstore.NewRun(name, abs, res)
	if err := runstore.New(effectiveConfig().RunsDir).Save(run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

func init() {
	rootCmd.AddCommand(biclusterCmd)
	bcInput.register(biclusterCmd)
	bcFit.register(biclusterCmd)
	f := biclusterCmd.Flags()
	f.StringVarP(&bcFormat, "format", "f", "markdown", "output format: json|yaml|markdown")
	f.StringVarP(&bcOutput, "output", "o", "", "optional path to write the result")
	f.BoolVar(&bcSave, "save", false, "persist the result as a run (see 'runs list')")
	f.StringVar(&bcName, "name", "", "run name when saving (default: file base name)")
	f.StringVar(&bcMetrics, "metrics-file", "", "write Prometheus metrics in textfile format to this path")
	f.BoolVar(&bcCompare, "compare", false, "append each block before and after global sorting (Markdown)")
	f.IntVar(&bcCompareMax, "compare-rows", 10, "maximum rows per block in --compare tables (0 = all)")
}
