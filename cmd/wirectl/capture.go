package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// readCapture loads a message capture, inflating .zst and .lz4 files.
func readCapture(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	switch filepath.Ext(path) {
	case ".zst":
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("inflate %s: %w", path, err)
		}
		return out, nil
	case ".lz4":
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("inflate %s: %w", path, err)
		}
		return out, nil
	}
	return data, nil
}

// writeCapture stores message bytes, compressing by extension.
func writeCapture(path string, data []byte) error {
	switch filepath.Ext(path) {
	case ".zst":
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
	case ".lz4":
		var out bytes.Buffer
		zw := lz4.NewWriter(&out)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("lz4 writer: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("lz4 writer: %w", err)
		}
		data = out.Bytes()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	return nil
}
