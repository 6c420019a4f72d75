package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danmuck/blockwire/internal/observability"
	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/schema"
)

func (a *app) schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [document]",
		Short: "Build a schema document and print its layout",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.RunE = observability.CommandLogger(a.logger, "schema", func(cmd *cobra.Command, args []string) error {
		path := a.cfg.Schema
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no schema: pass a document or --schema")
		}
		b, err := schema.Load(path)
		if err != nil {
			return err
		}
		return printLayout(cmd.OutOrStdout(), b)
	})
	return cmd
}

func printLayout(w io.Writer, b *schema.Bundle) error {
	if _, err := fmt.Fprintf(w, "schema %s id=%d version=%d order=%s header=%d group=%d varlen=%d\n",
		b.Name, b.SchemaID, b.Version, b.Order, b.MessageHeader.Size(), b.GroupHeader.Size(), b.VarLength.Size()); err != nil {
		return err
	}
	for _, id := range b.Templates() {
		def, _ := b.Message(id)
		if _, err := fmt.Fprintf(w, "template %d %s block=%d empty=%d\n", id, def.Name(), def.BlockSize(), def.EmptyRowSize()); err != nil {
			return err
		}
		if err := printFields(w, def, 1); err != nil {
			return err
		}
	}
	return nil
}

func printFields(w io.Writer, parent *field.Definition, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, f := range parent.Children() {
		var err error
		switch kind := f.Kind(); {
		case kind == field.Group:
			_, err = fmt.Fprintf(w, "%s%d %s group block=%d\n", indent, f.ID(), f.Name(), f.BlockSize())
		case kind == field.Raw:
			_, err = fmt.Fprintf(w, "%s%d %s raw\n", indent, f.ID(), f.Name())
		case kind == field.Constant:
			_, err = fmt.Fprintf(w, "%s%d %s constant %s=%x\n", indent, f.ID(), f.Name(), f.ConstKind(), f.ConstValue())
		default:
			_, err = fmt.Fprintf(w, "%s%d %s %s[%d] @%d size=%d\n", indent, f.ID(), f.Name(), kind, f.ArrayLength(), f.Offset(), f.Size())
		}
		if err != nil {
			return err
		}
		if len(f.Children()) > 0 {
			if err := printFields(w, f, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
