// Package dicomiface defines the narrow DICOM structured-data collaborator
// contract spec.md §6 describes: "consumes a parsed element stream and
// emits anonymization actions {tag, action ∈ {REMOVE, REPLACE, HASH}}."
//
// No DICOM byte-level parser lives here — spec.md §1 places "DICOM
// byte-level parsing" out of scope for the core, and SPEC_FULL.md's domain
// stack section keeps it that way. This package only defines the
// interface and the action enum a real parser would implement against,
// plus a combinator that merges a collaborator's actions alongside the
// text engine's Redaction set for documents with both a text body and a
// DICOM element stream (e.g. a radiology report exported with its header).
//
// The {tag, action} table shape is grounded in
// other_examples/codeninja55-go-radx__dicom-anonymize's table-driven
// action profile (ActionDummy/ActionEmpty/ActionRemove), generalized from
// that package's fixed per-tag table to an arbitrary collaborator-supplied
// stream.
package dicomiface

import "github.com/DocHatty/vulpes-celare/internal/span"

// Tag identifies one DICOM data element, e.g. "(0010,0010)" for
// PatientName. This module treats it as an opaque string; a real
// collaborator owns the DICOM dictionary.
type Tag string

// Action is the anonymization action a collaborator assigns to one
// element.
type Action string

const (
	// ActionRemove deletes the element entirely.
	ActionRemove Action = "REMOVE"
	// ActionReplace substitutes the element's value with a fixed
	// placeholder (analogous to the text engine's category placeholder).
	ActionReplace Action = "REPLACE"
	// ActionHash replaces the element's value with a one-way digest,
	// subject to the same "no reversible pseudonymization" non-goal
	// spec.md §1 states for the text core.
	ActionHash Action = "HASH"
)

// ElementAction is one collaborator decision over a single DICOM element.
type ElementAction struct {
	Tag    Tag
	Action Action
	// Reason is an optional human-readable note (e.g. which Safe Harbor
	// category the tag maps to), surfaced in diagnostics only.
	Reason string
}

// Element is the minimal parsed-element shape a collaborator stream
// produces; this module never constructs one, only consumes a slice of
// them via StructuredFilter.
type Element struct {
	Tag   Tag
	Value string
}

// StructuredFilter is the external collaborator contract: given a parsed
// element stream (not raw bytes — byte-level parsing is explicitly out of
// scope), return the anonymization action for every element that needs
// one. Elements absent from the returned slice are left untouched.
type StructuredFilter interface {
	// ID returns the collaborator's stable identifier, for diagnostics.
	ID() string
	AnonymizeElements(elements []Element) ([]ElementAction, error)
}

// CombinedReport merges a StructuredFilter's element actions alongside the
// text engine's span.Redaction set for one source document that carries
// both a text body (e.g. a report's free-text impression) and a DICOM
// element stream (e.g. its header). The two redaction spaces never
// overlap — one is code-point offsets into the text body, the other is
// DICOM tags — so this is a concatenation with provenance, not a conflict
// resolution (spec.md §4.F's resolver is specific to the text pipeline).
type CombinedReport struct {
	TextRedactions      []span.Redaction
	StructuredActions   []ElementAction
	StructuredFilterID  string
}

// Combine builds a CombinedReport from the text engine's redaction report
// and a structured collaborator's element actions. It performs no
// resolution between the two spaces; it exists so a caller with both kinds
// of source data can hand a single report to downstream audit tooling.
func Combine(textRedactions []span.Redaction, collaborator StructuredFilter, elements []Element) (CombinedReport, error) {
	report := CombinedReport{TextRedactions: textRedactions}
	if collaborator == nil {
		return report, nil
	}
	actions, err := collaborator.AnonymizeElements(elements)
	if err != nil {
		return report, err
	}
	report.StructuredActions = actions
	report.StructuredFilterID = collaborator.ID()
	return report, nil
}
