// Package scorer implements the §4.D Context Scorer: turns a filter's
// raw, unscored span.Candidate into a span.Scored with a confidence in
// [0,1] and a recorded trail of every adjustment applied.
//
// The scoring rules (vocabulary veto, structural-label boost, keyword
// neighborhood, specialty affinity, OCR allowance) are new to this
// module — the teacher's risk.RiskEngine never scored a span's
// confidence, only accumulated a document-level point total — but the
// "keyword table with additive bonuses" shape is grounded directly in
// risk.Classifier's weighted keyword/bigram scoring
// (hipaa-app/internal/risk/classifier.go), generalized from a
// document-level classifier score to a per-span confidence adjustment.
package scorer

import (
	"strings"

	"github.com/DocHatty/vulpes-celare/internal/document"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
	"github.com/DocHatty/vulpes-celare/internal/vocabulary"
)

// WindowSize is the number of code points examined on each side of a
// candidate for structural and keyword-neighborhood scoring (spec.md
// §4.D: "a small window of surrounding text (default 40 code points on
// each side)").
const WindowSize = 40

const (
	structuralBoost  = 0.15
	keywordStep      = 0.05
	keywordCap       = 0.20
	specialtyAdjust  = 0.05
	ocrAllowance     = 0.05
	ocrAllowanceCeil = 0.7
)

// fieldLabels are the structural labels rule 2 recognizes, matched
// case-insensitively immediately before the candidate with up to 3
// whitespace characters in between.
var fieldLabels = []string{
	"Patient:", "DOB:", "SSN:", "MRN:", "Phone:", "Email:", "Address:",
	"ZIP:", "Attending:", "Surgeon:", "Prescriber:", "Ordering Physician:",
	"Emergency Contact:",
}

// categoryKeywords is the category-specific neighborhood keyword table of
// rule 3.
var categoryKeywords = map[phicat.Category][]string{
	phicat.Name:  {"dr.", "mr.", "mrs.", "ms.", "md", "rn", "np", "pa-c", "do"},
	phicat.Date:  {"dob", "admission", "discharge", "born", "admitted", "discharged"},
	phicat.Phone: {"phone", "call", "contact", "tel"},
	phicat.Fax:   {"fax"},
	phicat.Email: {"email", "e-mail", "contact"},
	phicat.MRN:   {"mrn", "record", "chart"},
	phicat.SSN:   {"ssn", "social security"},
}

// specialtyAffinity adds a small signed adjustment for categories known
// to be over- or under-produced in a detected specialty (spec.md §4.D
// rule 4's illustrative example: ONCOLOGY raises the bar for eponymous
// diagnoses that look like names, i.e. lowers NAME confidence there).
var specialtyAffinity = map[document.Specialty]map[phicat.Category]float64{
	document.SpecialtyOncology: {
		phicat.Name: -specialtyAdjust,
	},
	document.SpecialtyPsychiatry: {
		phicat.Name: -specialtyAdjust,
	},
	document.SpecialtyRadiology: {
		phicat.Date: specialtyAdjust,
	},
}

// Scorer turns candidates into scored spans using a shared, read-only
// medical vocabulary (spec.md §4.D: "loaded at engine start and is
// read-only"). A single Scorer is safe to use concurrently from the
// bounded worker pool spec.md §5 calls for in this phase.
type Scorer struct {
	vocab    *vocabulary.Set
	keywords map[phicat.Category][]string
}

// New builds a Scorer over vocab using the hardcoded default keyword
// neighborhood table. A nil vocab disables the vocabulary veto (rule 1
// never fires) without being an error, matching the "configuration
// disabled → degrade, don't fail" posture spec.md §7 applies throughout.
func New(vocab *vocabulary.Set) *Scorer {
	return &Scorer{vocab: vocab, keywords: categoryKeywords}
}

// NewFromTables builds a Scorer over vocab using an externally loaded
// keyword table (see LoadKeywordTable), falling back to the hardcoded
// defaults for any category absent from the supplied map.
func NewFromTables(vocab *vocabulary.Set, keywords map[phicat.Category][]string) *Scorer {
	if len(keywords) == 0 {
		return New(vocab)
	}
	merged := make(map[phicat.Category][]string, len(categoryKeywords))
	for k, v := range categoryKeywords {
		merged[k] = v
	}
	for k, v := range keywords {
		merged[k] = v
	}
	return &Scorer{vocab: vocab, keywords: merged}
}

// Score applies all five scoring rules to candidate and returns a
// span.Scored. document is the full rune slice of the text the candidate
// was found in; classification is the document-level Classification from
// §4.A.
func (s *Scorer) Score(candidate span.Candidate, document_ []rune, classification document.Classification) span.Scored {
	confidence := candidate.RawScore
	var signals []span.Signal

	before, after := window(document_, candidate.Start, candidate.End, WindowSize)

	if veto, detail := s.vocabularyVeto(candidate); veto {
		signals = append(signals, span.Signal{Name: "vocabulary_veto", Adjustment: -confidence, Detail: detail})
		confidence = 0
		return buildScored(candidate, confidence, signals)
	}

	if adj, detail, ok := structuralBoostFor(before); ok {
		confidence += adj
		signals = append(signals, span.Signal{Name: "structural_boost", Adjustment: adj, Detail: detail})
	}

	if adj, detail, ok := s.keywordNeighborhoodFor(candidate.Category, before, after); ok {
		confidence += adj
		signals = append(signals, span.Signal{Name: "keyword_neighborhood", Adjustment: adj, Detail: detail})
	}

	if adj, detail, ok := specialtyAffinityFor(classification.Specialty, candidate.Category); ok {
		confidence += adj
		signals = append(signals, span.Signal{Name: "specialty_affinity", Adjustment: adj, Detail: detail})
	}

	if classification.IsOCR && candidate.RawScore < ocrAllowanceCeil {
		confidence += ocrAllowance
		signals = append(signals, span.Signal{Name: "ocr_allowance", Adjustment: ocrAllowance, Detail: "isOCR and rawScore below 0.7"})
	}

	confidence = clamp(confidence, 0, 1)
	return buildScored(candidate, confidence, signals)
}

func buildScored(candidate span.Candidate, confidence float64, signals []span.Signal) span.Scored {
	return span.Scored{
		Candidate:      candidate,
		Confidence:     confidence,
		ContextSignals: signals,
	}
}

// vocabularyVeto implements rule 1: a NAME or OTHER candidate whose
// surface text is itself a recognized clinical vocabulary word or bigram
// is suppressed outright.
func (s *Scorer) vocabularyVeto(candidate span.Candidate) (bool, string) {
	if s.vocab == nil {
		return false, ""
	}
	if candidate.Category != phicat.Name && candidate.Category != phicat.Other {
		return false, ""
	}
	surface := strings.TrimSpace(candidate.SurfaceText)
	if s.vocab.HasWord(surface) {
		return true, "surface text is a recognized clinical vocabulary word"
	}
	if s.vocab.HasBigram(surface) {
		return true, "surface text is a recognized clinical vocabulary phrase"
	}
	return false, ""
}

// structuralBoostFor implements rule 2, checking the text immediately
// before the candidate for a recognized field label with up to 3
// whitespace characters of separation.
func structuralBoostFor(before string) (float64, string, bool) {
	trimmedRight := strings.TrimRight(before, " \t")
	gap := len(before) - len(trimmedRight)
	if gap > 3 {
		return 0, "", false
	}
	lower := strings.ToLower(trimmedRight)
	for _, label := range fieldLabels {
		if strings.HasSuffix(lower, strings.ToLower(label)) {
			return structuralBoost, "preceded by label " + label, true
		}
	}
	return 0, "", false
}

// keywordNeighborhoodFor implements rule 3: counts category-specific
// keyword matches in the ±40 code-point window, each worth +0.05, capped
// at +0.20.
func (s *Scorer) keywordNeighborhoodFor(category phicat.Category, before, after string) (float64, string, bool) {
	keywords, ok := s.keywords[category]
	if !ok {
		return 0, "", false
	}
	neighborhood := strings.ToLower(before + " " + after)
	matches := 0
	var hit []string
	for _, kw := range keywords {
		if strings.Contains(neighborhood, kw) {
			matches++
			hit = append(hit, kw)
		}
	}
	if matches == 0 {
		return 0, "", false
	}
	adj := float64(matches) * keywordStep
	if adj > keywordCap {
		adj = keywordCap
	}
	return adj, "matched keywords: " + strings.Join(hit, ","), true
}

// specialtyAffinityFor implements rule 4.
func specialtyAffinityFor(specialty document.Specialty, category phicat.Category) (float64, string, bool) {
	table, ok := specialtyAffinity[specialty]
	if !ok {
		return 0, "", false
	}
	adj, ok := table[category]
	if !ok {
		return 0, "", false
	}
	return adj, "specialty affinity for " + string(specialty), true
}

// window returns the code points immediately before and after
// [start,end) in document, each clipped to size runes.
func window(document []rune, start, end, size int) (before, after string) {
	bStart := start - size
	if bStart < 0 {
		bStart = 0
	}
	aEnd := end + size
	if aEnd > len(document) {
		aEnd = len(document)
	}
	return string(document[bStart:start]), string(document[end:aEnd])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
