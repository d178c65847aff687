package gazetteer

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

//go:embed global.yaml
var globalYAML []byte

type gazetteerFile struct {
	Entries []models.GazetteerEntry `yaml:"entries"`
}

// LoadGlobal parses the curated global gazetteer shipped with the binary
func LoadGlobal() (*Gazetteer, error) {
	return Parse(globalYAML)
}

// LoadFile parses a gazetteer YAML file from disk
func LoadFile(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "gazetteer: read %s", path)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "gazetteer: load %s", path)
	}
	return g, nil
}

// Parse builds a gazetteer from YAML of the form {entries: [{name, category, aliases, confidence}]}
func Parse(data []byte) (*Gazetteer, error) {
	var file gazetteerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "gazetteer: parse yaml")
	}
	if len(file.Entries) == 0 {
		return nil, eris.New("gazetteer: no entries")
	}
	return New(file.Entries), nil
}
