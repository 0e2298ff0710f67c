// Package filter implements the §4.B Filter Registry & Dispatcher: a set
// of independent, pure, thread-safe span-producing filters run
// concurrently over one document, plus the reference text-span filters
// spec.md §6 leaves as an external collaborator contract.
//
// The reference filters here are a direct generalization of the teacher's
// risk.RiskEngine regex set (hipaa-app/internal/risk/engine.go): that
// engine compiled one regexp per HIPAA identifier and scanned line-by-line
// with ad hoc point scoring. This package keeps the same "one compiled
// regexp per identifier" shape but turns each into a Filter that emits
// CandidateSpans with a raw confidence instead of an accumulated int
// score, and operates over the whole document (code-point offsets) rather
// than per line.
package filter

import (
	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

// Kind hints the dispatcher how to schedule a filter (spec.md §9: "a
// small enum of filter-kind hints ... not via inheritance").
type Kind int

const (
	// KindTextSpan filters scan the raw document text directly.
	KindTextSpan Kind = iota
	// KindStructured filters consume a parsed structured-data stream
	// (e.g. DICOM elements) rather than text; see internal/dicomiface.
	KindStructured
)

// Filter is the uniform interface every span-producing filter
// implements, per spec.md §6's plug-in contract: pure, thread-safe,
// deterministic, returns candidate spans with start < end, UTF-8
// code-point aligned.
type Filter interface {
	// ID returns the filter's stable identifier, used in CandidateSpan
	// and in deterministic tiebreaks (spec.md §4.F rule 5).
	ID() string
	// Categories lists every phicat.Category this filter may emit.
	Categories() []phicat.Category
	// Kind reports the filter's scheduling hint.
	Kind() Kind
	// Detect scans text under policy and returns candidate spans. It
	// must not mutate text or policy and must be safe to call
	// concurrently with itself and other filters.
	Detect(text string, policy config.Policy) ([]span.Candidate, error)
}
