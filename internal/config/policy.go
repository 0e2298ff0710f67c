// Package config owns Policy (de)serialization (spec.md §3 Policy) and the
// YAML loading contract shared by the engine's data-driven tables: load if
// present, fall back to documented defaults, never fail construction
// because a file is missing (spec.md §7 ConfigurationError: "missing file
// → treat as empty").
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DocHatty/vulpes-celare/internal/phicat"
)

// PurposeOfUse is the intended downstream use of the redacted document; it
// is one axis of the Adaptive Threshold Service (spec.md §4.E).
type PurposeOfUse string

const (
	PurposeTreatment    PurposeOfUse = "TREATMENT"
	PurposePayment      PurposeOfUse = "PAYMENT"
	PurposeOperations   PurposeOfUse = "OPERATIONS"
	PurposeResearch     PurposeOfUse = "RESEARCH"
	PurposePublicHealth PurposeOfUse = "PUBLIC_HEALTH"
	PurposeMarketing    PurposeOfUse = "MARKETING"
)

// PlaceholderStyle selects how a redacted span is rewritten (spec.md §6).
type PlaceholderStyle string

const (
	StyleBracket    PlaceholderStyle = "[CATEGORY]"
	StyleDoubleBrace PlaceholderStyle = "{{CATEGORY}}"
	StyleRedacted   PlaceholderStyle = "***REDACTED***"
)

// Policy is the per-call configuration spec.md §3 defines. A zero-value
// Policy is invalid; use Default() to obtain documented defaults, then
// override fields as needed.
type Policy struct {
	// Identifiers maps each phicat.Category to whether that category's
	// filters/scoring should run at all. Categories absent from the map
	// default to enabled (spec.md §7: unknown/missing → use default).
	Identifiers map[phicat.Category]bool

	PurposeOfUse PurposeOfUse

	PlaceholderStyle PlaceholderStyle

	// PreserveLength, when true, pads bracket/brace placeholders to the
	// original span's rune length, filling the padding with a per-value hex
	// tag (see redact.PlaceholderForValue). spec.md §9
	// leaves the default to the implementer; this module defaults to
	// false (placeholders do not preserve length) because a
	// length-preserving placeholder leaks the redacted value's
	// approximate size, which is itself a soft PHI signal in narrow
	// documents (e.g. distinguishing "Jo" from "Alexander").
	PreserveLength bool

	// MinConfidence is an absolute floor that overrides the adaptive
	// threshold if higher (spec.md §3 Policy.minConfidence).
	MinConfidence float64

	// PreserveVocabulary is the medical-vocabulary guard setting
	// (spec.md §4.D rule 1), loaded from YAML and defaulting to true. The
	// engine does not read it: the scorer's vocabulary veto runs whenever
	// the scorer has a vocabulary, whatever this field holds.
	PreserveVocabulary bool
}

// Default returns the documented default Policy: every identifier
// enabled, TREATMENT purpose, bracket placeholders, vocabulary guard
// active, no absolute confidence floor beyond the adaptive threshold.
func Default() Policy {
	ids := make(map[phicat.Category]bool, len(phicat.All))
	for _, c := range phicat.All {
		ids[c] = true
	}
	return Policy{
		Identifiers:        ids,
		PurposeOfUse:       PurposeTreatment,
		PlaceholderStyle:   StyleBracket,
		PreserveVocabulary: true,
		MinConfidence:      0,
	}
}

// Enabled reports whether category c is active under p. Categories absent
// from p.Identifiers default to enabled.
func (p Policy) Enabled(c phicat.Category) bool {
	if p.Identifiers == nil {
		return true
	}
	v, ok := p.Identifiers[c]
	if !ok {
		return true
	}
	return v
}

// Normalize applies spec.md §7's ConfigurationError rules: unknown enum
// values fall back to the default, contradictory settings take the
// stricter option. It never errors; it returns a corrected copy plus the
// list of corrections made, for inclusion in the caller's warnings.
func (p Policy) Normalize() (Policy, []string) {
	var warnings []string
	out := p

	switch out.PurposeOfUse {
	case PurposeTreatment, PurposePayment, PurposeOperations, PurposeResearch, PurposePublicHealth, PurposeMarketing:
	default:
		warnings = append(warnings, fmt.Sprintf("unknown purposeOfUse %q, defaulting to TREATMENT", out.PurposeOfUse))
		out.PurposeOfUse = PurposeTreatment
	}

	switch out.PlaceholderStyle {
	case StyleBracket, StyleDoubleBrace, StyleRedacted:
	default:
		warnings = append(warnings, fmt.Sprintf("unknown placeholderStyle %q, defaulting to %s", out.PlaceholderStyle, StyleBracket))
		out.PlaceholderStyle = StyleBracket
	}

	if out.MinConfidence < 0 {
		warnings = append(warnings, "negative minConfidence clamped to 0 (stricter option: 0 is the permissive floor)")
		out.MinConfidence = 0
	}
	if out.MinConfidence > 1 {
		warnings = append(warnings, "minConfidence above 1 clamped to 1 (stricter option wins)")
		out.MinConfidence = 1
	}

	return out, warnings
}

// Load reads a Policy from a YAML file at path, normalizing it before
// returning. A missing file yields Default() with no error, per the
// ConfigurationError contract.
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Policy{}, fmt.Errorf("config: read policy: %w", err)
	}
	var raw struct {
		Identifiers        map[string]bool `yaml:"identifiers"`
		PurposeOfUse       string          `yaml:"purposeOfUse"`
		PlaceholderStyle   string          `yaml:"placeholderStyle"`
		MinConfidence      float64         `yaml:"minConfidence"`
		PreserveVocabulary *bool           `yaml:"preserveVocabulary"`
		PreserveLength     bool            `yaml:"preserveLength"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Policy{}, fmt.Errorf("config: parse policy: %w", err)
	}

	p := Default()
	if raw.PurposeOfUse != "" {
		p.PurposeOfUse = PurposeOfUse(raw.PurposeOfUse)
	}
	if raw.PlaceholderStyle != "" {
		p.PlaceholderStyle = PlaceholderStyle(raw.PlaceholderStyle)
	}
	p.MinConfidence = raw.MinConfidence
	p.PreserveLength = raw.PreserveLength
	if raw.PreserveVocabulary != nil {
		p.PreserveVocabulary = *raw.PreserveVocabulary
	}
	if len(raw.Identifiers) > 0 {
		for k, v := range raw.Identifiers {
			p.Identifiers[phicat.Category(k)] = v
		}
	}

	normalized, _ := p.Normalize()
	return normalized, nil
}
