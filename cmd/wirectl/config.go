package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/blockwire/internal/config"
	"github.com/danmuck/blockwire/internal/protocol/schema"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or validate wirectl and schema files",
	}

	var (
		kind   string
		output string
		force  bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config (--kind tool) or schema (--kind schema)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := output
			if target == "" {
				target = defaultTarget(kind)
			}
			if err := config.WriteTemplate(target, kind, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s template to %s\n", kind, target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&kind, "kind", "tool", "template kind: tool|schema")
	initCmd.Flags().StringVar(&output, "output", "", "output path (defaults per kind)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	var validateKind string
	validateCmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Load a config or schema file and report problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch validateKind {
			case "tool":
				if _, err := config.LoadToolConfig(args[0]); err != nil {
					return err
				}
			case "schema":
				if _, err := schema.Load(args[0]); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown kind: %s", validateKind)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "validated %s file %s\n", validateKind, args[0])
			return nil
		},
	}
	validateCmd.Flags().StringVar(&validateKind, "kind", "tool", "file kind: tool|schema")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

func defaultTarget(kind string) string {
	if kind == "schema" {
		return "schema.toml"
	}
	return "wirectl.toml"
}
