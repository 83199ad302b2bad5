package configdoc

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseJSON decodes a document and fills optional fields with empty defaults.
func ParseJSON(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("configdoc: parse json: %w", err)
	}
	d.Normalize()
	return d, nil
}

// ParseYAML decodes a YAML-authored document.
func ParseYAML(r io.Reader) (Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Document{}, fmt.Errorf("configdoc: parse yaml: %w", err)
	}
	d.Normalize()
	return d, nil
}

// LoadFile reads a .json, .yaml or .yml document from disk.
func LoadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("configdoc: open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f)
	case ".json":
		data, err := io.ReadAll(f)
		if err != nil {
			return Document{}, fmt.Errorf("configdoc: read %s: %w", path, err)
		}
		return ParseJSON(data)
	}
	return Document{}, fmt.Errorf("configdoc: unsupported file type %q", filepath.Ext(path))
}
