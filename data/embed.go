package data

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/localnerve/jam-build-configurator/internal/configdoc"
)

//go:embed presets/*.yaml
var presetFiles embed.FS

// Presets parses the built-in model configurations, ordered by file name.
func Presets() ([]configdoc.Document, error) {
	entries, err := fs.ReadDir(presetFiles, "presets")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]configdoc.Document, 0, len(names))
	for _, name := range names {
		f, err := presetFiles.Open(path.Join("presets", name))
		if err != nil {
			return nil, err
		}
		doc, err := configdoc.ParseYAML(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Preset returns the built-in configuration for a model name.
func Preset(model string) (configdoc.Document, bool, error) {
	docs, err := Presets()
	if err != nil {
		return configdoc.Document{}, false, err
	}
	for _, d := range docs {
		if strings.EqualFold(d.Name, model) {
			return d, true, nil
		}
	}
	return configdoc.Document{}, false, nil
}
