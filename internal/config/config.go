package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultMaxRows caps loaded rows. Row linkage holds an n×n float64 matrix
// and rescans it on every merge, so larger inputs need an explicit max_rows.
const DefaultMaxRows = 5000

// Global configuration structure.
type Global struct {
	// Fit defaults
	RowClusters             int    `mapstructure:"row_clusters" yaml:"row_clusters"`
	ColClusters             int    `mapstructure:"col_clusters" yaml:"col_clusters"`
	ConsiderMissingPatterns bool   `mapstructure:"consider_missing_patterns" yaml:"consider_missing_patterns"`
	Linkage                 string `mapstructure:"linkage" yaml:"linkage"`
	Workers                 int    `mapstructure:"workers" yaml:"workers"`
	NormalizeBlocks         bool   `mapstructure:"normalize_blocks" yaml:"normalize_blocks"`

	// Input
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogDir    string `mapstructure:"log_dir" yaml:"log_dir"`

	RunsDir string `mapstructure:"runs_dir" yaml:"runs_dir"`
}

// Dir returns ~/.mixclust.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".mixclust"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.mixclust/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("MIXCLUST")
	v.AutomaticEnv()

	v.SetDefault("row_clusters", 3)
	v.SetDefault("col_clusters", 3)
	v.SetDefault("consider_missing_patterns", false)
	v.SetDefault("linkage", "ward")
	v.SetDefault("workers", 0)
	v.SetDefault("normalize_blocks", false)
	v.SetDefault("max_rows", DefaultMaxRows)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_dir", "")
	v.SetDefault("runs_dir", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve runs_dir default: ~/.mixclust/runs
	if c.RunsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.RunsDir = filepath.Join(dir, "runs")
	}
	return &c, nil
}
