package document

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// specialtyTableFile is the on-disk shape of data/specialty.yaml: a map of
// specialty name to weighted phrase list. Mirrors the load-if-present,
// fall back to hardcoded defaults contract used by
// NineSunsInc/citadel's ml.ScorerConfig and this module's scorer/tables.
type specialtyTableFile struct {
	Specialties map[string][]struct {
		Phrase string  `yaml:"phrase"`
		Weight float64 `yaml:"weight"`
	} `yaml:"specialties"`
}

// LoadSpecialtyTable reads a specialty weight table from path. A missing
// file is not an error — it returns (nil, nil) so callers fall back to
// the hardcoded defaults (spec.md §7's ConfigurationError contract: missing
// file → treat as empty).
func LoadSpecialtyTable(path string) (map[Specialty][]specialtyPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("document: read specialty table: %w", err)
	}
	var file specialtyTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("document: parse specialty table: %w", err)
	}
	out := make(map[Specialty][]specialtyPattern, len(file.Specialties))
	for name, entries := range file.Specialties {
		patterns := make([]specialtyPattern, 0, len(entries))
		for _, e := range entries {
			patterns = append(patterns, specialtyPattern{phrase: e.Phrase, weight: e.Weight})
		}
		out[Specialty(name)] = patterns
	}
	return out, nil
}
