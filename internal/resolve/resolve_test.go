package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

func scoredSpan(start, end int, category phicat.Category, confidence float64, filterID string) span.Scored {
	return span.Scored{
		Candidate: span.Candidate{
			Start: start, End: end, Category: category, FilterID: filterID,
		},
		Confidence: confidence,
		Threshold:  0.5,
	}
}

func TestResolveKeepsHigherConfidenceOnOverlap(t *testing.T) {
	a := scoredSpan(0, 10, phicat.Name, 0.9, "name")
	b := scoredSpan(5, 15, phicat.Date, 0.6, "date")

	out := Resolve([]span.Scored{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, phicat.Name, out[0].Category)
}

func TestResolveStructuredCategoryDominatesWithinTolerance(t *testing.T) {
	name := scoredSpan(0, 11, phicat.Name, 0.80, "name")
	ssn := scoredSpan(0, 11, phicat.SSN, 0.82, "ssn")

	out := Resolve([]span.Scored{name, ssn})
	require.Len(t, out, 1)
	assert.Equal(t, phicat.SSN, out[0].Category)
}

func TestResolveContainmentPrefersOuterSpan(t *testing.T) {
	outer := scoredSpan(0, 30, phicat.Name, 0.7, "name")
	inner := scoredSpan(5, 9, phicat.Date, 0.7, "date")

	out := Resolve([]span.Scored{outer, inner})
	require.Len(t, out, 1)
	assert.Equal(t, phicat.Name, out[0].Category)
}

func TestResolveContainmentYieldsToDominantInnerCategory(t *testing.T) {
	outer := scoredSpan(0, 30, phicat.Name, 0.70, "name")
	inner := scoredSpan(5, 16, phicat.SSN, 0.72, "ssn")

	out := Resolve([]span.Scored{outer, inner})
	require.Len(t, out, 1)
	assert.Equal(t, phicat.SSN, out[0].Category)
}

func TestResolveNonOverlappingSpansBothSurvive(t *testing.T) {
	a := scoredSpan(0, 5, phicat.SSN, 0.9, "ssn")
	b := scoredSpan(10, 15, phicat.Email, 0.9, "email")

	out := Resolve([]span.Scored{b, a})
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].Start)
	assert.Equal(t, 10, out[1].Start)
}

func TestResolveIsDeterministicAcrossInputOrder(t *testing.T) {
	spans := []span.Scored{
		scoredSpan(0, 10, phicat.Name, 0.8, "name"),
		scoredSpan(3, 8, phicat.Date, 0.8, "date"),
		scoredSpan(20, 25, phicat.Email, 0.9, "email"),
	}
	reversed := []span.Scored{spans[2], spans[1], spans[0]}

	out1 := Resolve(spans)
	out2 := Resolve(reversed)
	require.Equal(t, len(out1), len(out2))
	for i := range out1 {
		assert.Equal(t, out1[i].Category, out2[i].Category)
		assert.Equal(t, out1[i].Start, out2[i].Start)
	}
}
