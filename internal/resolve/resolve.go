// Package resolve implements the §4.F Conflict Resolver: given a set of
// thresholded ScoredSpans, returns a non-overlapping subset maximizing a
// deterministic five-level priority order.
//
// Nothing in the teacher or example repos implements span-conflict
// resolution (none of them produce overlapping candidate spans to begin
// with — risk.RiskEngine's regexes run independently with no
// deduplication step), so this package is grounded directly in spec.md
// §4.F's own algorithm description rather than an adapted teacher file;
// it follows the teacher's general code shape (small, single-purpose
// package, sorted slice plus a straightforward sweep rather than a
// generic interval-tree dependency) since nothing in the retrieval pack
// reaches for an external interval/segment-tree library for this kind of
// problem.
package resolve

import (
	"sort"

	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

// Resolve returns a non-overlapping subset of scored, sorted by Start,
// per the priority order and containment rule of spec.md §4.F. The input
// slice is not mutated.
func Resolve(scored []span.Scored) []span.Scored {
	if len(scored) == 0 {
		return nil
	}

	sorted := make([]span.Scored, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	// active holds the spans currently accepted that might still overlap
	// a span not yet visited in the left-to-right sweep. Because spans
	// are sorted by (start, -end), once the sweep's current position
	// passes a span's End, that span can never again be displaced and is
	// final.
	var active []span.Scored

	for _, candidate := range sorted {
		accept := true
		var survivors []span.Scored
		for _, a := range active {
			if !overlaps(a, candidate) {
				survivors = append(survivors, a)
				continue
			}
			switch winner(a, candidate) {
			case winnerExisting:
				accept = false
				survivors = append(survivors, a)
			case winnerNew:
				// a is displaced; dropped from survivors.
			case winnerBothKept:
				survivors = append(survivors, a)
			}
		}
		active = survivors
		if accept {
			active = append(active, candidate)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Start < active[j].Start
	})
	return active
}

type winnerKind int

const (
	winnerNew winnerKind = iota
	winnerExisting
	winnerBothKept
)

// winner applies spec.md §4.F's priority order and containment rule to
// decide between two overlapping scored spans, a (already active) and b
// (the newly encountered candidate).
func winner(a, b span.Scored) winnerKind {
	// Containment rule: the broader span wins by default, unless the
	// narrower one structurally dominates it (rule 2), preventing nested
	// double-tagging like "[NAME] [NAME]".
	if contains(a, b) {
		if categoryDominates(b, a) {
			return winnerNew
		}
		return winnerExisting
	}
	if contains(b, a) {
		if categoryDominates(a, b) {
			return winnerExisting
		}
		return winnerNew
	}

	// Partial (non-containing) overlap: apply the five-level
	// lexicographic priority. Rule 2 fires whenever confidence is within
	// 0.05 (categoryDominates encodes that tolerance check itself), so it
	// is evaluated before the plain confidence comparison — a narrow
	// confidence edge should not override a structured identifier's
	// specificity, only a clear one should.
	if categoryDominates(a, b) && !categoryDominates(b, a) {
		return winnerExisting
	}
	if categoryDominates(b, a) && !categoryDominates(a, b) {
		return winnerNew
	}
	if a.Confidence != b.Confidence {
		if a.Confidence > b.Confidence {
			return winnerExisting
		}
		return winnerNew
	}
	if a.Len() != b.Len() {
		if a.Len() > b.Len() {
			return winnerExisting
		}
		return winnerNew
	}
	if a.Start != b.Start {
		if a.Start < b.Start {
			return winnerExisting
		}
		return winnerNew
	}
	if a.FilterID <= b.FilterID {
		return winnerExisting
	}
	return winnerNew
}

// categoryDominates reports whether x's category structurally dominates
// y's under rule 2, and only when x and y are within 0.05 confidence of
// each other.
func categoryDominates(x, y span.Scored) bool {
	if abs(x.Confidence-y.Confidence) > 0.05 {
		return false
	}
	return phicat.IsStructured(x.Category) && !phicat.IsStructured(y.Category)
}

func contains(outer, inner span.Scored) bool {
	return outer.Start <= inner.Start && outer.End >= inner.End && !(outer.Start == inner.Start && outer.End == inner.End)
}

func overlaps(a, b span.Scored) bool {
	return a.Start < b.End && b.Start < a.End
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
