package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var errEmptyDocument = errors.New("empty document")

// readDocument returns the JSON text of path. YAML files are converted with
// mapping order preserved.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", path, err)
		}

		return converted, nil
	default:
		return data, nil
	}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var document yaml.Node
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if document.Kind == 0 || len(document.Content) == 0 {
		return nil, errEmptyDocument
	}

	var buf bytes.Buffer
	if err := writeNode(&buf, document.Content[0]); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.AliasNode:
		return writeNode(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')

		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeJSON(buf, node.Content[i].Value); err != nil {
				return err
			}

			buf.WriteByte(':')

			if err := writeNode(buf, node.Content[i+1]); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')

		for i, item := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeNode(buf, item); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	default:
		var value any
		if err := node.Decode(&value); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}

		return writeJSON(buf, value)
	}

	return nil
}

func writeJSON(buf *bytes.Buffer, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}

	buf.Write(encoded)

	return nil
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}
