package span_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

func TestCandidateValidate(t *testing.T) {
	doc := []rune("Patient: John Smith")
	ok := span.Candidate{Start: 9, End: 19, Category: phicat.Name, SurfaceText: "John Smith", FilterID: "name", RawScore: 0.8}
	require.NoError(t, ok.Validate(doc))

	badRange := ok
	badRange.End = 100
	assert.Error(t, badRange.Validate(doc))

	badOrder := ok
	badOrder.Start, badOrder.End = badOrder.End, badOrder.Start
	assert.Error(t, badOrder.Validate(doc))

	badSurface := ok
	badSurface.SurfaceText = "Wrong"
	assert.Error(t, badSurface.Validate(doc))

	badScore := ok
	badScore.RawScore = 1.5
	assert.Error(t, badScore.Validate(doc))
}

func TestPoolDedupAndFreeze(t *testing.T) {
	p := span.NewPool()
	c := span.Candidate{Start: 0, End: 4, Category: phicat.Name, SurfaceText: "John", FilterID: "name", RawScore: 0.5}
	p.Add(c)
	p.Add(c) // duplicate, same key
	assert.Equal(t, 1, p.Len())

	c2 := c
	c2.RawScore = 0.9
	p.Add(c2) // same key, updated value
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 0.9, p.Candidates()[0].RawScore)

	other := span.Candidate{Start: 5, End: 9, Category: phicat.Date, SurfaceText: "1234", FilterID: "date", RawScore: 0.5}
	p.Add(other)
	assert.Equal(t, 2, p.Len())

	p.Freeze()
	assert.Panics(t, func() { p.Add(other) })
}

func TestPoolPreservesInsertionOrder(t *testing.T) {
	p := span.NewPool()
	p.Add(span.Candidate{Start: 5, End: 9, Category: phicat.Date, SurfaceText: "abcd", FilterID: "date", RawScore: 0.5})
	p.Add(span.Candidate{Start: 0, End: 4, Category: phicat.Name, SurfaceText: "John", FilterID: "name", RawScore: 0.5})
	got := p.Candidates()
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].Start)
	assert.Equal(t, 0, got[1].Start)
}

func TestScoredValidateAndPasses(t *testing.T) {
	s := span.Scored{
		Candidate:  span.Candidate{Start: 0, End: 4, Category: phicat.Name},
		Confidence: 0.8,
		Threshold:  0.7,
	}
	require.NoError(t, s.Validate())
	assert.True(t, s.Passes(0))
	assert.False(t, s.Passes(0.9))

	bad := s
	bad.Threshold = 0.1
	assert.Error(t, bad.Validate())

	bad2 := s
	bad2.Confidence = 1.5
	assert.Error(t, bad2.Validate())
}

func TestRedactionOverlaps(t *testing.T) {
	a := span.Redaction{Start: 0, End: 5}
	b := span.Redaction{Start: 4, End: 10}
	c := span.Redaction{Start: 5, End: 10}
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
}
