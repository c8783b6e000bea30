package evaluation

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Case is a single labelled image.
type Case struct {
	Image    string `yaml:"image"`
	Expected string `yaml:"expected"`
}

// Manifest lists the cases of an evaluation run.
type Manifest struct {
	Threshold float64 `yaml:"threshold,omitempty"`
	Cases     []Case  `yaml:"cases"`
}

var ErrEmptyManifest = errors.New("manifest has no cases")

// LoadManifest reads a YAML manifest from path. Relative image paths are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range m.Cases {
		if !filepath.IsAbs(m.Cases[i].Image) {
			m.Cases[i].Image = filepath.Join(dir, m.Cases[i].Image)
		}
	}
	return m, nil
}

func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyManifest
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if len(m.Cases) == 0 {
		return nil, ErrEmptyManifest
	}
	for i, c := range m.Cases {
		if c.Image == "" {
			return nil, fmt.Errorf("case %d: image is required", i)
		}
		if compact(c.Expected) == "" {
			return nil, fmt.Errorf("case %d (%s): expected is required", i, c.Image)
		}
	}
	if m.Threshold < 0 {
		return nil, fmt.Errorf("threshold must be positive, got %v", m.Threshold)
	}
	return &m, nil
}
