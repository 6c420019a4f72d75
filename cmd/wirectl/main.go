package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danmuck/blockwire/internal/config"
	"github.com/danmuck/blockwire/internal/observability"
	"github.com/danmuck/blockwire/internal/protocol/codec"
	"github.com/danmuck/blockwire/internal/protocol/schema"
)

type globalFlags struct {
	Config       string
	Schema       string
	Format       string
	PoolCapacity int
	BufferSize   int
	Metrics      bool
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	flags  globalFlags
	cfg    config.ToolConfig
	logger zerolog.Logger
}

func main() {
	logger := observability.InitLogger("wirectl")
	if err := newRootCmd(logger).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wirectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	a := &app{logger: logger}
	root := &cobra.Command{
		Use:           "wirectl",
		Short:         "Decode, create and inspect schema-driven binary messages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Metrics {
				return nil
			}
			return observability.WriteMetrics(cmd.ErrOrStderr(), prometheus.DefaultGatherer)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.Config, "config", "c", "", "wirectl config file (TOML)")
	pf.StringVarP(&a.flags.Schema, "schema", "s", "", "schema document (.toml, .yaml)")
	pf.StringVarP(&a.flags.Format, "format", "o", config.DefaultFormat, "output format: json|cbor")
	pf.IntVar(&a.flags.PoolCapacity, "pool-capacity", 0, "instance pool capacity")
	pf.IntVar(&a.flags.BufferSize, "buffer-size", 0, "buffer capacity for create")
	pf.BoolVar(&a.flags.Metrics, "metrics", false, "dump codec metrics to stderr after the command")

	root.AddCommand(
		a.decodeCmd(),
		a.createCmd(),
		a.schemaCmd(),
		a.configCmd(),
	)
	return root
}

// loadConfig reads the config file when one is given and lets flags the
// user set win over it.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg := config.DefaultToolConfig()
	if a.flags.Config != "" {
		loaded, err := config.LoadToolConfig(a.flags.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("schema") {
		cfg.Schema = a.flags.Schema
	}
	if flags.Changed("format") {
		cfg.Format = a.flags.Format
	}
	if flags.Changed("pool-capacity") {
		cfg.PoolCapacity = a.flags.PoolCapacity
	}
	if flags.Changed("buffer-size") {
		cfg.BufferSize = a.flags.BufferSize
	}
	if flags.Changed("metrics") {
		cfg.Metrics = a.flags.Metrics
	}
	if err := config.ValidateToolConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) engine() (*codec.Engine, error) {
	if a.cfg.Schema == "" {
		return nil, fmt.Errorf("no schema: pass --schema or set schema in the config file")
	}
	bundle, err := schema.Load(a.cfg.Schema)
	if err != nil {
		return nil, err
	}
	return codec.NewEngine(bundle, a.cfg.EngineConfig()), nil
}
