package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
)

func TestDefaultEnablesEveryCategory(t *testing.T) {
	p := config.Default()
	for _, c := range phicat.All {
		assert.True(t, p.Enabled(c), "%s should default to enabled", c)
	}
	assert.Equal(t, config.PurposeTreatment, p.PurposeOfUse)
	assert.Equal(t, config.StyleBracket, p.PlaceholderStyle)
	assert.True(t, p.PreserveVocabulary)
}

func TestEnabledDefaultsTrueForAbsentCategory(t *testing.T) {
	p := config.Policy{}
	assert.True(t, p.Enabled(phicat.Name))

	p.Identifiers = map[phicat.Category]bool{phicat.Name: false}
	assert.False(t, p.Enabled(phicat.Name))
	assert.True(t, p.Enabled(phicat.SSN))
}

func TestNormalizeUnknownPurposeOfUse(t *testing.T) {
	p := config.Default()
	p.PurposeOfUse = "NOT_A_PURPOSE"
	out, warnings := p.Normalize()
	assert.Equal(t, config.PurposeTreatment, out.PurposeOfUse)
	require.Len(t, warnings, 1)
}

func TestNormalizeUnknownPlaceholderStyle(t *testing.T) {
	p := config.Default()
	p.PlaceholderStyle = "weird"
	out, warnings := p.Normalize()
	assert.Equal(t, config.StyleBracket, out.PlaceholderStyle)
	require.Len(t, warnings, 1)
}

func TestNormalizeClampsMinConfidence(t *testing.T) {
	p := config.Default()
	p.MinConfidence = -1
	out, warnings := p.Normalize()
	assert.Equal(t, 0.0, out.MinConfidence)
	require.NotEmpty(t, warnings)

	p.MinConfidence = 2
	out, warnings = p.Normalize()
	assert.Equal(t, 1.0, out.MinConfidence)
	require.NotEmpty(t, warnings)
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	p, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), p)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	contents := `
purposeOfUse: RESEARCH
placeholderStyle: "{{CATEGORY}}"
minConfidence: 0.5
preserveVocabulary: false
preserveLength: true
identifiers:
  NAME: false
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	p, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.PurposeResearch, p.PurposeOfUse)
	assert.Equal(t, config.StyleDoubleBrace, p.PlaceholderStyle)
	assert.Equal(t, 0.5, p.MinConfidence)
	assert.False(t, p.PreserveVocabulary)
	assert.True(t, p.PreserveLength)
	assert.False(t, p.Enabled(phicat.Name))
	assert.True(t, p.Enabled(phicat.SSN))
}
