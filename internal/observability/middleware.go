package observability

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// RunE is the signature of a cobra command body.
type RunE func(cmd *cobra.Command, args []string) error

// CommandLogger wraps a command body so every run is logged and timed.
func CommandLogger(logger zerolog.Logger, name string, next RunE) RunE {
	return func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		err := next(cmd, args)
		elapsed := time.Since(start)
		RecordCommand(name, elapsed, err == nil)

		event := logger.Info()
		if err != nil {
			event = logger.Error().Err(err)
		}
		event.
			Str("command", name).
			Strs("args", args).
			Dur("duration", elapsed).
			Msg("command")
		return err
	}
}
