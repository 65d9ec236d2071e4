package metadata

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Encode writes the manifest as "json" or "yaml"
func Encode(w io.Writer, m *Manifest, format string) error {
	return EncodeValue(w, m, format)
}

// EncodeValue writes any part of a manifest, such as a single
// EntityMetadata, as "json" or "yaml"
func EncodeValue(w io.Writer, v any, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q (supported: json, yaml)", format)
	}
}
