package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// render writes v to w in the format selected by --output
func render(cmd *cobra.Command, w io.Writer, v interface{}) error {
	format, _ := cmd.Flags().GetString("output")
	return write(w, format, v)
}

func write(w io.Writer, format string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	switch format {
	case formatJSON, "":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		out, err := jsonToYAML(data)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unsupported output format %q: use json or yaml", format)
	}
}

// jsonToYAML re-encodes JSON as block-style YAML, keeping the JSON field
// names and their order
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("converting output to yaml: %w", err)
	}
	clearStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return out, nil
}

// clearStyle drops the flow and quoting styles the JSON input carried
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}
