// Command generate-schema writes the JSON schema of the DittoVFS
// configuration file.
//
// Usage:
//
//	generate-schema [-o config.schema.json]
//
// An output of "-" writes to stdout.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/marmos91/dittovfs/pkg/config"
	flag "github.com/spf13/pflag"
)

func main() {
	output := flag.StringP("output", "o", "config.schema.json", "schema file to write, - for stdout")
	flag.Parse()

	data, err := generateSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := writeSchema(*output, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// generateSchema reflects config.Config into an indented JSON schema whose
// property names are the configuration file keys.
func generateSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "mapstructure",
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "DittoVFS Configuration"
	schema.Description = "Configuration of a DittoVFS device: quota, owner, import source and fixture"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}

func writeSchema(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "JSON schema written to %s\n", path)
	return nil
}
