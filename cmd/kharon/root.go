package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/kharon/errors"
	"github.com/wippyai/kharon/marshal"
)

// config is the optional YAML file passed with --config. Unset fields keep
// their defaults.
type config struct {
	BaseWalk     *bool             `yaml:"base_walk"`
	ContextExpr  string            `yaml:"context_expr"`
	Spellings    marshal.Spellings `yaml:"spellings"`
	MaxBaseDepth int               `yaml:"max_base_depth"`
}

func loadConfig(path string) (marshal.Options, error) {
	opts := marshal.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read config")
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return opts, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decode config")
	}
	if cfg.MaxBaseDepth < 0 {
		return opts, errors.InvalidInput(errors.PhaseConfig, "max_base_depth must not be negative")
	}

	if cfg.BaseWalk != nil {
		opts.DisableBaseWalk = !*cfg.BaseWalk
	}
	if cfg.ContextExpr != "" {
		opts.ContextExpr = cfg.ContextExpr
	}
	if cfg.MaxBaseDepth > 0 {
		opts.MaxBaseDepth = cfg.MaxBaseDepth
	}
	opts.Spellings = mergeSpellings(opts.Spellings, cfg.Spellings)
	return opts, nil
}

func mergeSpellings(dst, src marshal.Spellings) marshal.Spellings {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Context, src.Context)
	set(&dst.StdString, src.StdString)
	set(&dst.FlexibleString, src.FlexibleString)
	set(&dst.StringView, src.StringView)
	set(&dst.IntrusiveList, src.IntrusiveList)
	set(&dst.ArrayView, src.ArrayView)
	return dst
}

// cli holds state shared by the subcommands once flags are parsed.
type cli struct {
	opts    marshal.Options
	log     *zap.Logger
	cfgPath string
	verbose bool
}

func (c *cli) setup() error {
	opts, err := loadConfig(c.cfgPath)
	if err != nil {
		return err
	}

	c.log = zap.NewNop()
	if c.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		c.log = l
	}
	marshal.SetLogger(c.log)
	opts.Logger = c.log
	c.opts = opts
	return nil
}

func newCLI() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "kharon",
		Short: "Inspect C++ marshaling strategies",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.log.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log resolution details to stderr")
	rootCmd.PersistentFlags().StringVar(&c.cfgPath, "config", "", "YAML file overriding resolution options")

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(
		newTrieCmd(),
		newResolveCmd(c),
		newIndexCmd(c),
		newBrowseCmd(c),
	)

	return rootCmd
}
