package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "tool", "wirectl":
		return toolTemplate, nil
	case "schema":
		return schemaTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const toolTemplate = `schema = "schema.toml"
pool_capacity = 64
format = "json"
buffer_size = 4096
metrics = false
`

const schemaTemplate = `name = "cars"
schema_id = 7
version = 2
byte_order = "little"

[headers.message]
block_length = "u16"
template_id = "u16"
schema_id = "u16"
version = "u16"

[headers.group]
block_length = "u16"
num_in_group = "u16"

[headers.var_length]
length = "u16"

[[messages]]
id = 1
name = "car"

  [[messages.fields]]
  id = 1
  name = "speed"
  type = "uint16"

  [[messages.fields]]
  id = 2
  name = "fuelFigures"
  type = "group"

    [[messages.fields.fields]]
    id = 1
    name = "speed"
    type = "uint16"

    [[messages.fields.fields]]
    id = 2
    name = "mpg"
    type = "float"

    [[messages.fields.fields]]
    id = 3
    name = "usageDescription"
    type = "raw"
`
