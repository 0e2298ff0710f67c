package scorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DocHatty/vulpes-celare/internal/document"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
	"github.com/DocHatty/vulpes-celare/internal/vocabulary"
)

func TestVocabularyVetoSuppressesClinicalTerms(t *testing.T) {
	s := New(vocabulary.New())
	text := "Diagnosis: Diagnosis confirmed."
	runes := []rune(text)

	candidate := span.Candidate{
		Start: 11, End: 20, Category: phicat.Name,
		SurfaceText: "Diagnosis", FilterID: "name", RawScore: 0.5,
	}
	scored := s.Score(candidate, runes, document.Classification{})
	assert.Equal(t, 0.0, scored.Confidence)
	require.Len(t, scored.ContextSignals, 1)
	assert.Equal(t, "vocabulary_veto", scored.ContextSignals[0].Name)
}

func TestStructuralBoostAppliesForRecognizedLabel(t *testing.T) {
	s := New(nil)
	text := "SSN: 123-45-6789 on file."
	runes := []rune(text)

	candidate := span.Candidate{
		Start: 5, End: 16, Category: phicat.SSN,
		SurfaceText: "123-45-6789", FilterID: "ssn", RawScore: 0.7,
	}
	scored := s.Score(candidate, runes, document.Classification{})
	// structural boost (+0.15) plus the SSN keyword-neighborhood match on
	// the "SSN:" label itself (+0.05): 0.7 + 0.15 + 0.05 = 0.9.
	assert.InDelta(t, 0.9, scored.Confidence, 1e-9)
}

func TestOCRAllowanceOnlyAppliesBelowCeiling(t *testing.T) {
	s := New(nil)
	text := "123-45-6789"
	runes := []rune(text)
	candidate := span.Candidate{Start: 0, End: 11, Category: phicat.SSN, SurfaceText: text, FilterID: "ssn", RawScore: 0.6}

	scored := s.Score(candidate, runes, document.Classification{IsOCR: true})
	assert.InDelta(t, 0.65, scored.Confidence, 1e-9)

	highConfidence := candidate
	highConfidence.RawScore = 0.9
	scoredHigh := s.Score(highConfidence, runes, document.Classification{IsOCR: true})
	assert.InDelta(t, 0.9, scoredHigh.Confidence, 1e-9)
}

func TestScoreAllPreservesOrderUnderConcurrency(t *testing.T) {
	s := New(nil)
	text := "123-45-6789 987-65-4321 555-55-5555"
	runes := []rune(text)
	candidates := []span.Candidate{
		{Start: 0, End: 11, Category: phicat.SSN, SurfaceText: "123-45-6789", FilterID: "ssn", RawScore: 0.5},
		{Start: 12, End: 23, Category: phicat.SSN, SurfaceText: "987-65-4321", FilterID: "ssn", RawScore: 0.6},
		{Start: 24, End: 35, Category: phicat.SSN, SurfaceText: "555-55-5555", FilterID: "ssn", RawScore: 0.7},
	}

	results, err := s.ScoreAll(context.Background(), candidates, runes, document.Classification{}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, c := range candidates {
		assert.Equal(t, c.SurfaceText, results[i].SurfaceText)
	}
}
