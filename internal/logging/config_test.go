package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestResolveProfiles(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogTimestamp, "")
	if cfg := Resolve(ProfileRuntime); cfg.Level != zerolog.InfoLevel || !cfg.Timestamp {
		t.Fatalf("unexpected runtime profile: %+v", cfg)
	}
	if cfg := Resolve(ProfileTest); cfg.Level != zerolog.DebugLevel || cfg.Timestamp {
		t.Fatalf("unexpected test profile: %+v", cfg)
	}
}

func TestResolveEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, " WARNING ")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "1")
	t.Setenv(EnvLogBypass, "not-a-bool")
	cfg := Resolve(ProfileRuntime)
	if cfg.Level != zerolog.WarnLevel || cfg.Timestamp || !cfg.NoColor || cfg.Bypass {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	t.Setenv(EnvLogLevel, "off")
	if cfg := Resolve(ProfileTest); cfg.Level != zerolog.Disabled {
		t.Fatalf("expected disabled level, got %v", cfg.Level)
	}
}

func TestApplyBypassWritesJSON(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var out bytes.Buffer
	Apply(Config{Level: zerolog.InfoLevel, Bypass: true}, &out)
	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("shown")
	got := out.String()
	if strings.Contains(got, "hidden") {
		t.Fatalf("debug line should be filtered: %q", got)
	}
	if !strings.Contains(got, `"k":"v"`) || !strings.Contains(got, `"message":"shown"`) {
		t.Fatalf("expected raw json line, got %q", got)
	}
}
