package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danmuck/blockwire/internal/observability"
	"github.com/danmuck/blockwire/internal/protocol/codec"
	"github.com/danmuck/blockwire/internal/protocol/field"
	"github.com/danmuck/blockwire/internal/protocol/instance"
	"github.com/danmuck/blockwire/internal/protocol/schema"
	"github.com/danmuck/blockwire/internal/render"
)

type createOptions struct {
	out  string
	sets []string
	rows []string
	raws []string
}

func (a *app) createCmd() *cobra.Command {
	var opts createOptions
	cmd := &cobra.Command{
		Use:   "create <template id|name>",
		Short: "Write an empty message, optionally with rows and values filled in",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = observability.CommandLogger(a.logger, "create", func(cmd *cobra.Command, args []string) error {
		e, err := a.engine()
		if err != nil {
			return err
		}
		buf := make([]byte, a.cfg.BufferSize)
		m, size, err := createMessage(e, buf, args[0], opts)
		if err != nil {
			return err
		}
		if opts.out == "" {
			return render.Encode(cmd.OutOrStdout(), a.cfg.Format, m)
		}
		if err := writeCapture(opts.out, buf[:size]); err != nil {
			return err
		}
		a.logger.Info().Str("out", opts.out).Int("bytes", size).Str("template", m.Name).Msg("create")
		return nil
	})
	f := cmd.Flags()
	f.StringVar(&opts.out, "out", "", "write message bytes here instead of rendering (.zst and .lz4 compress)")
	f.StringArrayVar(&opts.sets, "set", nil, "name=value for a top-level fixed field (composites as a.b)")
	f.StringArrayVar(&opts.rows, "rows", nil, "group=N appends N empty rows to a top-level group")
	f.StringArrayVar(&opts.raws, "raw", nil, "name=text fills a top-level raw field")
	return cmd
}

// createMessage writes the message into buf and returns its rendering and
// byte size.
func createMessage(e *codec.Engine, buf []byte, template string, opts createOptions) (*render.Message, int, error) {
	def, err := resolveTemplate(e.Bundle(), template)
	if err != nil {
		return nil, 0, err
	}
	root, err := e.CreateEmpty(def.ID(), buf, 0)
	if err != nil {
		return nil, 0, err
	}
	v, err := e.View(root, 0)
	if err != nil {
		return nil, 0, err
	}

	for _, kv := range opts.sets {
		name, value, err := splitAssign(kv)
		if err != nil {
			return nil, 0, err
		}
		f, ok := def.Lookup(strings.Split(name, ".")...)
		if !ok {
			return nil, 0, fmt.Errorf("%s has no field %q", def.Name(), name)
		}
		if err := setField(v, f, value); err != nil {
			return nil, 0, fmt.Errorf("set %s: %w", name, err)
		}
	}

	for _, kv := range opts.rows {
		name, value, err := splitAssign(kv)
		if err != nil {
			return nil, 0, err
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, 0, fmt.Errorf("rows %s: invalid count %q", name, value)
		}
		group, err := variableChild(v, def, name)
		if err != nil {
			return nil, 0, err
		}
		for i := 0; i < n; i++ {
			_, err := e.AddRow(group)
			observability.RecordEdit("add_row", err == nil)
			if err != nil {
				return nil, 0, fmt.Errorf("rows %s: %w", name, err)
			}
		}
	}

	for _, kv := range opts.raws {
		name, value, err := splitAssign(kv)
		if err != nil {
			return nil, 0, err
		}
		raw, err := variableChild(v, def, name)
		if err != nil {
			return nil, 0, err
		}
		err = e.SetRaw(raw, []byte(value))
		observability.RecordEdit("set_raw", err == nil)
		if err != nil {
			return nil, 0, fmt.Errorf("raw %s: %w", name, err)
		}
	}

	m, err := render.Tree(root)
	if err != nil {
		return nil, 0, err
	}
	return m, codec.MessageSize(root), nil
}

func resolveTemplate(b *schema.Bundle, raw string) (*field.Definition, error) {
	if id, err := strconv.Atoi(raw); err == nil {
		if def, ok := b.Message(id); ok {
			return def, nil
		}
		return nil, fmt.Errorf("%w: %d", codec.ErrUnknownTemplate, id)
	}
	if def, ok := b.MessageByName(raw); ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %q", codec.ErrUnknownTemplate, raw)
}

func variableChild(v codec.View, def *field.Definition, name string) (*instance.Array, error) {
	f, ok := def.ChildByName(name)
	if !ok {
		return nil, fmt.Errorf("%s has no field %q", def.Name(), name)
	}
	return v.Child(f)
}

func splitAssign(kv string) (string, string, error) {
	name, value, ok := strings.Cut(kv, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", kv)
	}
	return strings.TrimSpace(name), value, nil
}

// setField parses value according to the field kind and stores it.
func setField(v codec.View, f *field.Definition, value string) error {
	switch kind := f.Kind(); {
	case kind.IsInteger():
		n, err := strconv.ParseInt(strings.TrimSpace(value), 0, 64)
		if err != nil {
			return err
		}
		return v.SetInt(f, n)
	case kind == field.Float:
		x, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
		if err != nil {
			return err
		}
		return v.SetFloat(f, float32(x))
	case kind == field.Double:
		x, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return err
		}
		return v.SetDouble(f, x)
	case kind == field.Char:
		return v.SetString(f, value)
	case kind == field.Byte:
		return v.SetBytes(f, []byte(value))
	case kind == field.Constant:
		return codec.ErrReadOnly
	default:
		return fmt.Errorf("%w: cannot set a %s from the command line", codec.ErrKindMismatch, kind)
	}
}
