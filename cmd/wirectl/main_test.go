package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danmuck/blockwire/internal/config"
	"github.com/danmuck/blockwire/internal/observability"
	"github.com/danmuck/blockwire/internal/protocol/codec"
	"github.com/danmuck/blockwire/internal/protocol/schema"
	"github.com/danmuck/blockwire/internal/render"
	"github.com/danmuck/blockwire/internal/testutil/testlog"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(zerolog.Nop())
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("wirectl %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func starterSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.toml")
	if err := config.WriteTemplate(path, "schema", false); err != nil {
		t.Fatalf("write schema template: %v", err)
	}
	return path
}

func TestCreateThenDecodeCompressedCapture(t *testing.T) {
	testlog.Start(t)
	schemaPath := starterSchema(t)
	capture := filepath.Join(t.TempDir(), "car.bin.zst")

	run(t, "--schema", schemaPath, "create", "car",
		"--set", "speed=40",
		"--rows", "fuelFigures=2",
		"--out", capture,
	)
	out := run(t, "--schema", schemaPath, "decode", capture)
	if !strings.Contains(out, `"speed": 40`) || !strings.Contains(out, `"name": "car"`) {
		t.Fatalf("unexpected decode output:\n%s", out)
	}
	if strings.Count(out, `"usageDescription": ""`) != 2 {
		t.Fatalf("expected two empty fuel figure rows:\n%s", out)
	}
}

func TestCreateRendersWithoutOut(t *testing.T) {
	testlog.Start(t)
	schemaPath := starterSchema(t)
	out := run(t, "--schema", schemaPath, "create", "1", "--set", "speed=7")
	if !strings.Contains(out, `"size": 14`) || !strings.Contains(out, `"speed": 7`) {
		t.Fatalf("unexpected create output:\n%s", out)
	}
}

func TestSchemaCommandPrintsLayout(t *testing.T) {
	testlog.Start(t)
	out := run(t, "schema", starterSchema(t))
	for _, want := range []string{
		"schema cars id=7 version=2",
		"template 1 car block=2 empty=6",
		"2 fuelFigures group block=6",
		"3 usageDescription raw",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "wirectl.toml")
	run(t, "config", "init", "--output", path)
	out := run(t, "config", "validate", path)
	if !strings.Contains(out, "validated tool file") {
		t.Fatalf("unexpected validate output: %s", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config written: %v", err)
	}
}

func TestCaptureCompressionByExtension(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	payload := bytes.Repeat([]byte{0x02, 0x00, 0x01, 0x00}, 32)
	for _, name := range []string{"plain.bin", "capture.bin.zst", "capture.bin.lz4"} {
		path := filepath.Join(dir, name)
		if err := writeCapture(path, payload); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		got, err := readCapture(path)
		if err != nil {
			t.Fatalf("%s: read: %v", name, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("%s: payload mismatch", name)
		}
	}
	if _, err := readCapture(filepath.Join(dir, "missing.bin")); err == nil {
		t.Fatalf("expected missing capture to fail")
	}
}

func TestDecodeAllWalksBackToBackMessages(t *testing.T) {
	testlog.Start(t)
	bundle, err := schema.Load(starterSchema(t))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	e := codec.NewEngine(bundle, codec.DefaultConfig())

	var capture []byte
	for _, opts := range []createOptions{
		{sets: []string{"speed=1"}},
		{sets: []string{"speed=2"}, rows: []string{"fuelFigures=1"}},
	} {
		buf := make([]byte, 64)
		_, size, err := createMessage(e, buf, "car", opts)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		capture = append(capture, buf[:size]...)
	}

	var speeds []int64
	n, err := decodeAll(e, capture, 0, -1, 0, func(m *render.Message) error {
		speeds = append(speeds, m.Body["speed"].(int64))
		return nil
	})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 messages, got n=%d err=%v", n, err)
	}
	if speeds[0] != 1 || speeds[1] != 2 {
		t.Fatalf("unexpected speeds: %v", speeds)
	}

	n, err = decodeAll(e, capture, 0, -1, 1, func(*render.Message) error { return nil })
	if err != nil || n != 1 {
		t.Fatalf("expected max to stop after 1, got n=%d err=%v", n, err)
	}

	bad := append(append([]byte(nil), capture...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	if _, err := decodeAll(e, bad, 0, -1, 0, func(*render.Message) error { return nil }); err == nil {
		t.Fatalf("expected trailing foreign bytes to fail")
	}
	if id := headerTemplate(e, bad, len(capture), -1); id != 0xffff {
		t.Fatalf("expected header template 65535, got %d", id)
	}
	if id := headerTemplate(e, bad, len(bad)-2, -1); id != -1 {
		t.Fatalf("expected fallback for a cut header, got %d", id)
	}
	var dump bytes.Buffer
	if err := observability.WriteMetrics(&dump, nil); err != nil {
		t.Fatalf("write metrics: %v", err)
	}
	if !strings.Contains(dump.String(), `wirectl_codec_decodes_total{result="unrecognized",template="65535"}`) {
		t.Fatalf("expected unrecognized decode labelled by header template:\n%s", dump.String())
	}
}

func TestCreateRejectsUnknownInputs(t *testing.T) {
	testlog.Start(t)
	bundle, err := schema.Load(starterSchema(t))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	e := codec.NewEngine(bundle, codec.DefaultConfig())
	buf := make([]byte, 64)
	for name, tc := range map[string]struct {
		template string
		opts     createOptions
	}{
		"template":     {"truck", createOptions{}},
		"field":        {"car", createOptions{sets: []string{"colour=red"}}},
		"assignment":   {"car", createOptions{sets: []string{"speed"}}},
		"range":        {"car", createOptions{sets: []string{"speed=70000"}}},
		"row count":    {"car", createOptions{rows: []string{"fuelFigures=x"}}},
		"raw on group": {"car", createOptions{raws: []string{"fuelFigures=x"}}},
	} {
		if _, _, err := createMessage(e, buf, tc.template, tc.opts); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
