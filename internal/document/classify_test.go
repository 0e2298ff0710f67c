package document_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DocHatty/vulpes-celare/internal/document"
)

func TestClassifyDocumentTypeFirstMatchByOffset(t *testing.T) {
	c := document.New()
	cls := c.Classify("Some preamble.\nDISCHARGE SUMMARY\nOPERATIVE REPORT follows.")
	assert.Equal(t, document.TypeDischargeSummary, cls.DocumentType)
}

func TestClassifyDocumentTypeUnknownWithNoSignature(t *testing.T) {
	c := document.New()
	cls := c.Classify("Just some plain text with no headers at all.")
	assert.Equal(t, document.TypeUnknown, cls.DocumentType)
}

func TestClassifySpecialtyCardiology(t *testing.T) {
	c := document.New()
	text := "Patient presented with STEMI, elevated troponin, history of AFib and CHF. EKG performed."
	cls := c.Classify(text)
	assert.Equal(t, document.SpecialtyCardiology, cls.Specialty)
	assert.Greater(t, cls.SpecialtyConfidence, 0.0)
}

func TestClassifySpecialtyUnknownBelowThreshold(t *testing.T) {
	c := document.New()
	cls := c.Classify("The patient is doing fine today.")
	assert.Equal(t, document.SpecialtyUnknown, cls.Specialty)
	assert.Equal(t, 0.0, cls.SpecialtyConfidence)
}

func TestDetectOCRRequiresTwoIndicators(t *testing.T) {
	c := document.New()
	// Only one indicator (multiple consecutive spaces) -> not OCR.
	cls := c.Classify("Patient  has  normal  vitals and no other signs at all here.")
	assert.False(t, cls.IsOCR)

	// Multi-space plus O/0/I/1 confusion runs -> two indicators, OCR.
	cls = c.Classify("DOB:  O4/22/l978  ref  0OlI  and  more  spacing  here  too")
	assert.True(t, cls.IsOCR)
}

func TestClassifyContextStrength(t *testing.T) {
	c := document.New()

	strong := c.Classify("DISCHARGE SUMMARY\nSTEMI, troponin elevated, EKG abnormal.")
	assert.Equal(t, document.ContextStrong, strong.ContextStrength)

	moderate := c.Classify("DISCHARGE SUMMARY\nPatient is recovering well.")
	assert.Equal(t, document.ContextModerate, moderate.ContextStrength)

	weak := c.Classify("Just some unrelated prose with nothing recognizable in it.")
	assert.Equal(t, document.ContextWeak, weak.ContextStrength)

	none := c.Classify("   ")
	assert.Equal(t, document.ContextNone, none.ContextStrength)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := document.New()
	text := "RADIOLOGY REPORT\nMRI with contrast shows no acute abnormality. CT scan pending."
	a := c.Classify(text)
	b := c.Classify(text)
	assert.Equal(t, a, b)
}

func TestClassifyLengthIsRuneCount(t *testing.T) {
	c := document.New()
	cls := c.Classify("café") // café, 4 runes, 5 bytes
	assert.Equal(t, 4, cls.Length)
}

func TestLoadSpecialtyTableMissingFileReturnsNil(t *testing.T) {
	table, err := document.LoadSpecialtyTable(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Nil(t, table)
}

func TestLoadSpecialtyTableParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "specialty.yaml")
	contents := `
specialties:
  CARDIOLOGY:
    - phrase: "cardio"
      weight: 2
    - phrase: "ekg"
      weight: 3
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	table, err := document.LoadSpecialtyTable(path)
	require.NoError(t, err)
	require.Contains(t, table, document.SpecialtyCardiology)
	assert.Len(t, table[document.SpecialtyCardiology], 2)

	c := document.NewFromTables(table)
	cls := c.Classify("cardio cardio ekg")
	assert.Equal(t, document.SpecialtyCardiology, cls.Specialty)
}

func TestNewFromTablesEmptyFallsBackToDefault(t *testing.T) {
	c := document.NewFromTables(nil)
	cls := c.Classify("STEMI troponin AFib CHF")
	assert.Equal(t, document.SpecialtyCardiology, cls.Specialty)
}
