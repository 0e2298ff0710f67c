package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

func TestSSNFilterDetectsHyphenatedAndBareForms(t *testing.T) {
	f := NewSSNFilter()
	policy := config.Default()

	candidates, err := f.Detect("Patient SSN: 123-45-6789, alt id 987654321.", policy)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "123-45-6789", candidates[0].SurfaceText)
	assert.Equal(t, phicat.SSN, candidates[0].Category)
}

func TestEmailFilterRespectsDisabledPolicy(t *testing.T) {
	f := NewEmailFilter()
	policy := config.Default()
	policy.Identifiers[phicat.Email] = false

	candidates, err := f.Detect("contact jane.doe@example.com for records", policy)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestAge90PlusFilterOnlyFlagsQualifyingAges(t *testing.T) {
	f := NewAge90PlusFilter()
	policy := config.Default()

	candidates, err := f.Detect("Patient is 42 years old. Grandmother is 91 years old.", policy)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Contains(t, candidates[0].SurfaceText, "91")
}

func TestRegexFilterOffsetsAreCodePointAligned(t *testing.T) {
	f := NewPhoneFilter()
	policy := config.Default()
	text := "Dr. Müller called 555-123-4567 yesterday."

	candidates, err := f.Detect(text, policy)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	runes := []rune(text)
	c := candidates[0]
	require.LessOrEqual(t, c.End, len(runes))
	assert.Equal(t, c.SurfaceText, string(runes[c.Start:c.End]))
}

func TestDispatcherRunsFiltersConcurrentlyAndRecoversPanics(t *testing.T) {
	reg := NewRegistry(NewSSNFilter(), NewEmailFilter(), panicFilter{})
	d := NewDispatcher(reg, 2)

	results, err := d.Run(context.Background(), "ssn 123-45-6789 email a@b.com", config.Default())
	require.NoError(t, err)
	require.Len(t, results, 3)

	var sawPanicErr bool
	for _, r := range results {
		if r.FilterID == "panics" {
			sawPanicErr = r.Err != nil
		}
	}
	assert.True(t, sawPanicErr, "panicking filter must surface as a recovered error, not crash the dispatch")
}

func TestDispatcherSkipsFiltersWithNoEnabledCategory(t *testing.T) {
	policy := config.Default()
	policy.Identifiers[phicat.SSN] = false
	reg := NewRegistry(NewSSNFilter())
	d := NewDispatcher(reg, 1)

	results, err := d.Run(context.Background(), "123-45-6789", policy)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Candidates)
	assert.NoError(t, results[0].Err)
}

// panicFilter exists only to exercise the dispatcher's panic recovery.
type panicFilter struct{}

func (panicFilter) ID() string                    { return "panics" }
func (panicFilter) Categories() []phicat.Category { return []phicat.Category{phicat.Other} }
func (panicFilter) Kind() Kind                     { return KindTextSpan }
func (panicFilter) Detect(string, config.Policy) ([]span.Candidate, error) {
	panic("boom")
}
