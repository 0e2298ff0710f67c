package scorer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DocHatty/vulpes-celare/internal/phicat"
)

// keywordTableFile is the on-disk shape of data/keywords.yaml: a map of
// category name to its neighborhood keyword list, mirroring the shape
// internal/document.LoadSpecialtyTable uses for data/specialty.yaml.
type keywordTableFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadKeywordTable reads a category keyword-neighborhood table from path.
// A missing file is not an error — it returns (nil, nil) so callers fall
// back to the hardcoded categoryKeywords default (spec.md §7's
// ConfigurationError contract: missing file → treat as empty).
func LoadKeywordTable(path string) (map[phicat.Category][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scorer: read keyword table: %w", err)
	}
	var file keywordTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("scorer: parse keyword table: %w", err)
	}
	out := make(map[phicat.Category][]string, len(file.Categories))
	for name, keywords := range file.Categories {
		out[phicat.Category(name)] = keywords
	}
	return out, nil
}
