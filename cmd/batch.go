package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/KaramelBytes/mixclust/internal/bicluster"
	"github.com/KaramelBytes/mixclust/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	btInput   inputFlags
	btFit     fitFlags
	btFormat  string
	btOutDir  string
	btSave    bool
	btJobs    int
	btMetrics string
	btQuiet   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <files...>",
	Short: "Fit multiple CSV/TSV/XLSX files with progress and optional saved runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(btFormat); err != nil {
			return err
		}
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		if btOutDir != "" {
			if err := utils.EnsureDir(btOutDir); err != nil {
				return err
			}
		}
		s, err := btFit.session(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		params := btFit.params(cmd)
		out := cmd.OutOrStdout()

		results := make([]*bicluster.Result, len(files))
		jobs := btJobs
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		for i, path := range files {
			g.Go(func() error {
				t, err := btInput.load(path)
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				a, err := s.engine.Analyze(ctx, t, params)
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				results[i] = a.Result()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		total := len(files)
		for i, path := range files {
			res := results[i]
			if !btQuiet {
				fmt.Fprintf(out, "[%d/%d] %s: %d blocks\n", i+1, total, filepath.Base(path), len(res.Blocks))
			}
			if btOutDir != "" {
				body, err := renderResult(res, btFormat)
				if err != nil {
					return err
				}
				dst := uniquePath(filepath.Join(btOutDir, utils.BaseName(path)+"."+formatExt(btFormat)))
				if err := utils.SafeWriteFile(dst, []byte(body)); err != nil {
					return fmt.Errorf("write %s: %w", dst, err)
				}
				if !btQuiet {
					fmt.Fprintf(out, "✓ Wrote %s\n", dst)
				}
			}
			if btSave {
				run, err := saveRun("", path, res)
				if err != nil {
					return err
				}
				if !btQuiet {
					fmt.Fprintf(out, "✓ Saved run %s\n", run.ShortID())
				}
			}
		}
		if btMetrics != "" {
			if err := s.rec.WriteTextfile(btMetrics); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, dedupes and sorts.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// uniquePath appends __2, __3, ... before the extension until path is free.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	for idx := 2; ; idx++ {
		cand := fmt.Sprintf("%s__%d%s", stem, idx, ext)
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func formatExt(format string) string {
	switch format {
	case "json":
		return "json"
	case "yaml":
		return "yaml"
	default:
		return "md"
	}
}

func init() {
	rootCmd.AddCommand(batchCmd)
	btInput.register(batchCmd)
	btFit.register(batchCmd)
	f := batchCmd.Flags()
	f.StringVarP(&btFormat, "format", "f", "json", "output format for --out-dir files: json|yaml|markdown")
	f.StringVar(&btOutDir, "out-dir", "", "write one result file per input into this directory")
	f.BoolVar(&btSave, "save", false, "persist every result as a run")
	f.IntVarP(&btJobs, "jobs", "j", 0, "files fitted concurrently (0 = GOMAXPROCS)")
	f.StringVar(&btMetrics, "metrics-file", "", "write Prometheus metrics in textfile format to this path")
	f.BoolVar(&btQuiet, "quiet", false, "suppress progress and non-essential output")
}
