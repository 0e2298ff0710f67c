// Package span defines the candidate/scored span data model of spec.md §3
// and the append-only candidate pool of spec.md §4.C.
package span

import (
	"fmt"

	"github.com/DocHatty/vulpes-celare/internal/phicat"
)

// Candidate is a filter's raw, unscored output: a half-open code-point
// range the filter believes might be PHI (spec.md §3 CandidateSpan).
type Candidate struct {
	Start       int
	End         int
	Category    phicat.Category
	SurfaceText string
	FilterID    string
	RawScore    float64
}

// Validate enforces the CandidateSpan invariants of spec.md §3:
// 0 ≤ start < end ≤ length, surfaceText == document[start:end].
func (c Candidate) Validate(document []rune) error {
	if c.Start < 0 || c.Start >= c.End || c.End > len(document) {
		return fmt.Errorf("span: invalid range [%d,%d) for document of length %d", c.Start, c.End, len(document))
	}
	if got := string(document[c.Start:c.End]); got != c.SurfaceText {
		return fmt.Errorf("span: surface text mismatch at [%d,%d): want %q, got %q", c.Start, c.End, c.SurfaceText, got)
	}
	if c.RawScore < 0 || c.RawScore > 1 {
		return fmt.Errorf("span: rawScore %v out of [0,1] for filter %q", c.RawScore, c.FilterID)
	}
	return nil
}

// Len reports the number of code points the candidate covers.
func (c Candidate) Len() int { return c.End - c.Start }

// key identifies a candidate for pool deduplication: spec.md §4.B says
// duplicates are identical on (start, end, category, filterId).
type key struct {
	start, end int
	category   phicat.Category
	filterID   string
}

// Pool is the append-only accumulator of spec.md §4.C: candidates from
// every dispatched filter land here, deduplicated by (start, end,
// category, filterId), then the pool is frozen for the scoring phase.
type Pool struct {
	byKey   map[key]Candidate
	order   []key // preserves first-insertion order for deterministic iteration
	frozen  bool
}

// NewPool creates an empty, writable candidate pool.
func NewPool() *Pool {
	return &Pool{byKey: make(map[key]Candidate)}
}

// Add inserts a candidate, merging with any existing identical
// (start, end, category, filterId) entry. Add panics if called after
// Freeze — the pool is exclusively owned by the dispatching call for the
// duration of one process() invocation (spec.md §3 Ownership) and is never
// mutated concurrently with scoring.
func (p *Pool) Add(c Candidate) {
	if p.frozen {
		panic("span: Add called on frozen pool")
	}
	k := key{c.Start, c.End, c.Category, c.FilterID}
	if _, exists := p.byKey[k]; !exists {
		p.order = append(p.order, k)
	}
	p.byKey[k] = c
}

// Freeze marks the pool read-only. Subsequent Add calls panic.
func (p *Pool) Freeze() { p.frozen = true }

// Candidates returns the deduplicated candidates in first-insertion order.
// The returned slice is owned by the caller; the pool never disposes it.
func (p *Pool) Candidates() []Candidate {
	out := make([]Candidate, 0, len(p.order))
	for _, k := range p.order {
		out = append(out, p.byKey[k])
	}
	return out
}

// Len reports the number of distinct candidates currently held.
func (p *Pool) Len() int { return len(p.byKey) }

// Signal records one adjustment the context scorer applied to a
// candidate's confidence, for diagnostic output (spec.md §4.D: "The
// scorer records every adjustment").
type Signal struct {
	Name       string
	Adjustment float64
	Detail     string
}

// Scored is a Candidate plus the confidence/threshold/diagnostics spec.md
// §3 defines as ScoredSpan.
type Scored struct {
	Candidate
	Confidence     float64
	Threshold      float64
	ContextSignals []Signal
}

// Validate enforces the ScoredSpan invariants: confidence and threshold
// both lie in their documented ranges.
func (s Scored) Validate() error {
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("span: confidence %v out of [0,1]", s.Confidence)
	}
	if s.Threshold < 0.3 || s.Threshold > 0.99 {
		return fmt.Errorf("span: threshold %v out of [0.3,0.99]", s.Threshold)
	}
	return nil
}

// Passes reports whether the scored span survives thresholding: confidence
// must meet both the adaptive threshold and any absolute policy floor.
func (s Scored) Passes(minConfidence float64) bool {
	return s.Confidence >= s.Threshold && s.Confidence >= minConfidence
}

// Redaction is the final, non-overlapping output of the conflict resolver
// (spec.md §3 Redaction / §4.F).
type Redaction struct {
	Start         int
	End           int
	Category      phicat.Category
	Replacement   string
	OriginalLength int
	Confidence    float64
}

// Overlaps reports whether r and o's half-open ranges intersect.
func (r Redaction) Overlaps(o Redaction) bool {
	return r.Start < o.End && o.Start < r.End
}
