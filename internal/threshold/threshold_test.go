package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/document"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
)

func TestThresholdStaysWithinClampBounds(t *testing.T) {
	s := New()
	tau := s.Threshold(Context{
		DocumentType:     document.TypeUnknown,
		ContextStrength:  document.ContextNone,
		Specialty:        document.SpecialtyOncology,
		PurposeOfUse:     config.PurposeMarketing,
		Category:         phicat.ZipCode,
		IsOCR:            false,
		FeedbackModifier: 1.2,
	})
	assert.GreaterOrEqual(t, tau, clampLow)
	assert.LessOrEqual(t, tau, clampHigh)
}

func TestStrongContextAndTreatmentLowersThreshold(t *testing.T) {
	s := New()
	strong := s.Threshold(Context{
		DocumentType:    document.TypeDischargeSummary,
		ContextStrength: document.ContextStrong,
		PurposeOfUse:    config.PurposeTreatment,
		Category:        phicat.SSN,
	})
	weak := s.Threshold(Context{
		DocumentType:    document.TypeUnknown,
		ContextStrength: document.ContextNone,
		PurposeOfUse:    config.PurposeTreatment,
		Category:        phicat.SSN,
	})
	assert.Less(t, strong, weak)
}

func TestMissingFeedbackModifierDefaultsToOne(t *testing.T) {
	s := New()
	withZero := s.Threshold(Context{Category: phicat.Email})
	withOne := s.Threshold(Context{Category: phicat.Email, FeedbackModifier: 1.0})
	assert.InDelta(t, withOne, withZero, 1e-9)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	s, err := Load("/nonexistent/thresholds.yaml")
	assert.NoError(t, err)
	assert.NotNil(t, s)
}
