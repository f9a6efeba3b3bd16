package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func (a *app) print(w io.Writer, v any) error {
	return writeOutput(w, a.opts.output, v)
}

// writeOutput renders v as indented JSON or as YAML, leaving HTML characters unescaped.
// Indentation reformats nested raw values; export --file writes spaces unformatted.
func writeOutput(w io.Writer, format string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if format == outputJSON {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	out := buf.Bytes()
	if format == outputYAML {
		y, err := yaml.JSONToYAML(out)
		if err != nil {
			return fmt.Errorf("failed to convert output to yaml: %w", err)
		}
		out = y
	}
	_, err := w.Write(out)
	return err
}
