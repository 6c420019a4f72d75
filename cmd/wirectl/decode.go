package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/blockwire/internal/observability"
	"github.com/danmuck/blockwire/internal/protocol/codec"
	"github.com/danmuck/blockwire/internal/protocol/header"
	"github.com/danmuck/blockwire/internal/protocol/instance"
	"github.com/danmuck/blockwire/internal/render"
)

func (a *app) decodeCmd() *cobra.Command {
	var (
		offset   int
		template int
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "decode <capture>",
		Short: "Decode back-to-back messages from a capture file (.zst and .lz4 are inflated)",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = observability.CommandLogger(a.logger, "decode", func(cmd *cobra.Command, args []string) error {
		e, err := a.engine()
		if err != nil {
			return err
		}
		buf, err := readCapture(args[0])
		if err != nil {
			return err
		}
		n, err := decodeAll(e, buf, offset, template, limit, func(m *render.Message) error {
			return render.Encode(cmd.OutOrStdout(), a.cfg.Format, m)
		})
		a.logger.Info().Int("messages", n).Int("bytes", len(buf)).Msg("decode")
		return err
	})
	cmd.Flags().IntVar(&offset, "offset", 0, "byte offset of the first message")
	cmd.Flags().IntVar(&template, "template", -1, "only accept this template id")
	cmd.Flags().IntVar(&limit, "max", 0, "stop after this many messages (0 = all)")
	return cmd
}

// decodeAll walks messages until the buffer is used up, limit is reached or a
// message is not recognized, and hands each rendered message to emit.
func decodeAll(e *codec.Engine, buf []byte, offset, template, limit int, emit func(*render.Message) error) (int, error) {
	count := 0
	for offset < len(buf) && (limit == 0 || count < limit) {
		var (
			root *instance.Array
			ok   bool
			err  error
		)
		if template >= 0 {
			root, ok, err = e.DecodeTemplate(template, buf, offset)
		} else {
			root, ok, err = e.Decode(buf, offset)
		}
		if err != nil {
			observability.RecordDecode(headerTemplate(e, buf, offset, template), observability.DecodeError, 0)
			return count, fmt.Errorf("message %d at offset %d: %w", count, offset, err)
		}
		if !ok {
			observability.RecordDecode(headerTemplate(e, buf, offset, template), observability.DecodeUnrecognized, 0)
			return count, fmt.Errorf("message %d at offset %d: not recognized by schema %d", count, offset, e.Bundle().SchemaID)
		}
		size := codec.MessageSize(root)
		observability.RecordDecode(root.Def().ID(), observability.DecodeOK, size)

		m, err := render.Tree(root)
		if err != nil {
			return count, err
		}
		if err := emit(m); err != nil {
			return count, err
		}
		offset += size
		count++
	}
	return count, nil
}

// headerTemplate reads the template id from the message header at offset,
// falling back when the header itself is cut short.
func headerTemplate(e *codec.Engine, buf []byte, offset, fallback int) int {
	b := e.Bundle()
	id, err := b.MessageHeader.Read(buf, b.Order, offset, header.MessageTemplateID)
	if err != nil {
		return fallback
	}
	return id
}
