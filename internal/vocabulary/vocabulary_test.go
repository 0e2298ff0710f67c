package vocabulary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSetRecognizesClinicalTerms(t *testing.T) {
	s := New()
	assert.True(t, s.HasWord("Diagnosis"))
	assert.True(t, s.HasWord("mrn"))
	assert.False(t, s.HasWord("invoice"))
}

func TestDefaultSetRecognizesBigrams(t *testing.T) {
	s := New()
	assert.True(t, s.HasBigram("Medical Record"))
	assert.False(t, s.HasBigram("bank account"))
}

func TestContainsAnyScansWhitespaceTokens(t *testing.T) {
	s := New()
	assert.True(t, s.ContainsAny("The patient's chart notes acute symptoms."))
	assert.False(t, s.ContainsAny("The quarterly invoice is overdue."))
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	s, err := Load("/nonexistent/vocabulary.yaml")
	assert.NoError(t, err)
	assert.True(t, s.HasWord("patient"))
}
