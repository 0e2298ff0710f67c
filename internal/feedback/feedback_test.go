package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DocHatty/vulpes-celare/internal/document"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
)

func testKey() ContextKey {
	return ContextKey{
		DocumentType:    document.TypeDischargeSummary,
		Specialty:       document.SpecialtyOncology,
		ContextStrength: document.ContextStrong,
		Category:        phicat.SSN,
	}
}

func TestLookupAbsentKeyDefaultsToOne(t *testing.T) {
	s := OpenInMemory()
	assert.Equal(t, 1.0, s.Lookup(testKey()))
}

func TestRecordBelowMinSamplesDoesNotRecompute(t *testing.T) {
	s := OpenInMemory(WithMinSamples(50))
	key := testKey()
	for i := 0; i < 10; i++ {
		s.Record(Observation{ContextKey: key, Outcome: OutcomeFalseNegative})
	}
	assert.Equal(t, 1.0, s.Lookup(key))
}

func TestLowSensitivityLowersModifier(t *testing.T) {
	s := OpenInMemory(WithMinSamples(10))
	key := testKey()
	for i := 0; i < 2; i++ {
		s.Record(Observation{ContextKey: key, Outcome: OutcomeTruePositive})
	}
	for i := 0; i < 8; i++ {
		s.Record(Observation{ContextKey: key, Outcome: OutcomeFalseNegative})
	}
	assert.Less(t, s.Lookup(key), 1.0)
}

func TestLowSpecificityRaisesModifier(t *testing.T) {
	s := OpenInMemory(WithMinSamples(10))
	key := testKey()
	for i := 0; i < 2; i++ {
		s.Record(Observation{ContextKey: key, Outcome: OutcomeTrueNegative})
	}
	for i := 0; i < 8; i++ {
		s.Record(Observation{ContextKey: key, Outcome: OutcomeFalsePositive})
	}
	assert.Greater(t, s.Lookup(key), 1.0)
}

func TestModifierStaysWithinClampBounds(t *testing.T) {
	s := OpenInMemory(WithMinSamples(5))
	key := testKey()
	for i := 0; i < 100; i++ {
		s.Record(Observation{ContextKey: key, Outcome: OutcomeFalsePositive})
	}
	m := s.Lookup(key)
	assert.GreaterOrEqual(t, m, modifierClampLow)
	assert.LessOrEqual(t, m, modifierClampHigh)
}

func TestSnapshotReflectsRecordedKeys(t *testing.T) {
	s := OpenInMemory()
	key := testKey()
	s.Record(Observation{ContextKey: key, Outcome: OutcomeTruePositive})
	snap := s.Snapshot()
	rec, ok := snap[key.String()]
	assert.True(t, ok)
	assert.Equal(t, 1, rec.TruePositives)
}

func TestOpenMissingDBPathFallsBackToUsableStore(t *testing.T) {
	s, err := Open("/nonexistent/dir/does/not/exist/feedback.db")
	assert.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, 1.0, s.Lookup(testKey()))
}
