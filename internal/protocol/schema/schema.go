package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("schema: unknown document format")
	ErrNoMessages    = errors.New("schema: document declares no messages")
	ErrByteOrder     = errors.New("schema: invalid byte order")
	ErrHeaderWidth   = errors.New("schema: invalid header sub-field type")
	ErrConstant      = errors.New("schema: invalid constant value")
	ErrNestedFields  = errors.New("schema: fields on a kind without children")
)

// Document is a schema file as written by hand. TOML and YAML documents
// decode into the same structure.
type Document struct {
	Name      string       `toml:"name" yaml:"name"`
	SchemaID  int          `toml:"schema_id" yaml:"schema_id"`
	Version   int          `toml:"version" yaml:"version"`
	ByteOrder string       `toml:"byte_order" yaml:"byte_order"`
	Headers   HeadersDoc   `toml:"headers" yaml:"headers"`
	Messages  []MessageDoc `toml:"messages" yaml:"messages"`
}

// HeadersDoc names the sub-field type of every header sub-field, e.g. "u16"
// or "i8". Empty entries keep the default unsigned 16-bit width.
type HeadersDoc struct {
	Message   MessageHeaderDoc `toml:"message" yaml:"message"`
	Group     GroupHeaderDoc   `toml:"group" yaml:"group"`
	VarLength VarLengthDoc     `toml:"var_length" yaml:"var_length"`
}

type MessageHeaderDoc struct {
	BlockLength string `toml:"block_length" yaml:"block_length"`
	TemplateID  string `toml:"template_id" yaml:"template_id"`
	SchemaID    string `toml:"schema_id" yaml:"schema_id"`
	Version     string `toml:"version" yaml:"version"`
}

type GroupHeaderDoc struct {
	BlockLength string `toml:"block_length" yaml:"block_length"`
	NumInGroup  string `toml:"num_in_group" yaml:"num_in_group"`
}

type VarLengthDoc struct {
	Length string `toml:"length" yaml:"length"`
}

type MessageDoc struct {
	ID     int        `toml:"id" yaml:"id"`
	Name   string     `toml:"name" yaml:"name"`
	Fields []FieldDoc `toml:"fields" yaml:"fields"`
}

// FieldDoc describes one field. Length defaults to 1. Constants carry
// ConstType and Value; groups and composites carry Fields.
type FieldDoc struct {
	ID        int        `toml:"id" yaml:"id"`
	Name      string     `toml:"name" yaml:"name"`
	Type      string     `toml:"type" yaml:"type"`
	Length    int        `toml:"length" yaml:"length"`
	ConstType string     `toml:"const_type" yaml:"const_type"`
	Value     any        `toml:"value" yaml:"value"`
	Fields    []FieldDoc `toml:"fields" yaml:"fields"`
}

// DocumentError reports the message and field a document failed on.
type DocumentError struct {
	Message string
	Field   string
	Err     error
}

func (e *DocumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: message=%s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("schema: message=%s field=%s: %v", e.Message, e.Field, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Load reads a schema document, choosing the decoder by file extension, and
// builds its bundle.
func Load(path string) (*Bundle, error) {
	var (
		doc *Document
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		doc, err = LoadTOML(path)
	case ".yaml", ".yml":
		doc, err = LoadYAML(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, err
	}
	b, err := Build(doc)
	if err != nil {
		return nil, fmt.Errorf("build schema %s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("schema", b.Name).Int("templates", len(b.Templates())).Msg("schema.Load")
	return b, nil
}

func LoadTOML(path string) (*Document, error) {
	var doc Document
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	noteTOML(path, meta)
	return &doc, nil
}

// ParseTOML decodes a TOML document held in memory.
func ParseTOML(data []byte) (*Document, error) {
	var doc Document
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	noteTOML("<memory>", meta)
	return &doc, nil
}

func noteTOML(path string, meta toml.MetaData) {
	if !meta.IsDefined("byte_order") {
		log.Debug().Str("path", path).Msg("schema: byte_order not set, using little endian")
	}
	for _, key := range meta.Undecoded() {
		log.Warn().Str("path", path).Str("key", key.String()).Msg("schema: ignoring unknown key")
	}
}

func LoadYAML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	doc, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	return doc, nil
}

// ParseYAML decodes a YAML document held in memory.
func ParseYAML(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &doc, nil
}
