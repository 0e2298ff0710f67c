package filter

import (
	"regexp"
	"strconv"

	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

// The filters in this file cover the Safe Harbor categories SPEC_FULL.md
// adds beyond the teacher's RiskEngine set (NPI, DEA, HEALTH_PLAN_ID,
// DEVICE_ID, BIOMETRIC, AGE_90_PLUS, NAME, ADDRESS). They keep the
// teacher's "one compiled pattern per identifier, label-or-bare
// alternation" shape (clearest in mrnRegex) and the confidence-scored
// pattern design from the anonymizer reference
// (other_examples/.../anonymizer.go, which attaches a starting
// confidence per pattern rather than a flat per-match score).

// NewNPIFilter detects a labeled National Provider Identifier: a 10-digit
// number is only distinctive enough to act on when an NPI label anchors
// it, unlike MRN's teacher pattern which also accepts a bare form.
func NewNPIFilter() Filter {
	return regexFilter{
		id:             "npi",
		category:       phicat.NPI,
		re:             regexp.MustCompile(`(?i)\bNPI[:\s#]*\d{10}\b`),
		baseConfidence: 0.75,
	}
}

// NewDEAFilter detects a DEA registration number: two letters followed by
// seven digits, preceded by a "DEA" label. The label is required and is
// part of the matched span; a bare two-letters-seven-digits form is not
// detected by this filter.
func NewDEAFilter() Filter {
	return regexFilter{
		id:             "dea",
		category:       phicat.DEA,
		re:             regexp.MustCompile(`(?i)\bDEA[:\s#]*[A-Z]{2}\d{7}\b`),
		baseConfidence: 0.8,
	}
}

// NewHealthPlanIDFilter detects insurance/health-plan member identifiers
// behind one of their common labels.
func NewHealthPlanIDFilter() Filter {
	return regexFilter{
		id:             "health_plan_id",
		category:       phicat.HealthPlanID,
		re:             regexp.MustCompile(`(?i)\b(?:Health Plan ID|Member ID|Plan ID|Insurance ID|Policy Number)\s*#?:?\s*[A-Z0-9-]{6,15}\b`),
		baseConfidence: 0.6,
	}
}

// NewDeviceIDFilter detects implant/device serial numbers behind one of
// their common labels.
func NewDeviceIDFilter() Filter {
	return regexFilter{
		id:             "device_id",
		category:       phicat.DeviceID,
		re:             regexp.MustCompile(`(?i)\b(?:Device ID|Device Serial|Serial Number|Implant ID)\s*#?:?\s*[A-Z0-9-]{6,20}\b`),
		baseConfidence: 0.55,
	}
}

// NewBiometricFilter flags mentions of a biometric identifier by name,
// plus any adjacent identifier token. Unlike SSN or VIN, biometric data
// has no single wire shape, so the anchor is the label itself.
func NewBiometricFilter() Filter {
	return regexFilter{
		id:             "biometric",
		category:       phicat.Biometric,
		re:             regexp.MustCompile(`(?i)\b(?:fingerprint|retina scan|iris scan|voiceprint|biometric identifier|biometric id)\b(?:\s*[:#]\s*[A-Za-z0-9-]{4,20})?`),
		baseConfidence: 0.5,
	}
}

// NewAddressFilter detects US street addresses: a leading house number,
// one to four capitalized words, and a recognized street-type suffix.
func NewAddressFilter() Filter {
	return regexFilter{
		id:             "address",
		category:       phicat.Address,
		re: regexp.MustCompile(`\b\d{1,5}\s+[A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*){0,3}\s+` +
			`(?:Street|St\.?|Avenue|Ave\.?|Road|Rd\.?|Boulevard|Blvd\.?|Lane|Ln\.?|Drive|Dr\.?|Court|Ct\.?|Way|Place|Pl\.?)\b`),
		baseConfidence: 0.5,
	}
}

// ageFilter is a custom Filter for AGE_90_PLUS: unlike the other
// reference filters it must inspect the captured number (not just match
// the pattern) since only ages of 90 or above are themselves a Safe
// Harbor identifier (spec.md glossary: "Age 90+").
type ageFilter struct {
	re *regexp.Regexp
}

// NewAge90PlusFilter detects an explicit age mention of 90 or above.
func NewAge90PlusFilter() Filter {
	return ageFilter{
		re: regexp.MustCompile(`(?i)\b(?:Age|DOB age)?\s*:?\s*(\d{2,3})\s*(?:years?[\s-]old|y/?o\b|yo\b)|\bAge\s*:?\s*(\d{2,3})\b`),
	}
}

func (f ageFilter) ID() string                    { return "age_90_plus" }
func (f ageFilter) Categories() []phicat.Category { return []phicat.Category{phicat.Age90Plus} }
func (f ageFilter) Kind() Kind                     { return KindTextSpan }

func (f ageFilter) Detect(text string, policy config.Policy) ([]span.Candidate, error) {
	if !policy.Enabled(phicat.Age90Plus) {
		return nil, nil
	}
	matches := f.re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}
	runeIdx := byteToRuneIndex(text)
	var candidates []span.Candidate
	for _, m := range matches {
		ageStr := ""
		switch {
		case m[2] >= 0:
			ageStr = text[m[2]:m[3]]
		case len(m) > 4 && m[4] >= 0:
			ageStr = text[m[4]:m[5]]
		}
		age, err := strconv.Atoi(ageStr)
		if err != nil || age < 90 || age > 130 {
			continue
		}
		start, end := runeIdx[m[0]], runeIdx[m[1]]
		if start >= end {
			continue
		}
		candidates = append(candidates, span.Candidate{
			Start:       start,
			End:         end,
			Category:    phicat.Age90Plus,
			SurfaceText: text[m[0]:m[1]],
			FilterID:    f.ID(),
			RawScore:    0.7,
		})
	}
	return candidates, nil
}

// nameFilter anchors on a structural label (Patient, Name, or an
// honorific) and captures the proper-noun run that follows it, rather
// than matching capitalized words in isolation the way a bare NER
// heuristic would — this mirrors the teacher's label-anchored MRN/date
// patterns, generalized to person names since no fixed wire shape exists
// for NAME the way it does for SSN or VIN.
//
// Three alternatives, each its own capture group, since the honorific and
// bare-label forms disagree on whether the label itself belongs in the
// redacted span, and the bare-label form needs a separate ALL-CAPS
// token shape (spec.md §8 scenario 5, "JOHNSON, MARY ELIZABETH") that
// would otherwise swallow trailing all-uppercase labels like "DEA" or
// "NPI" if the ordinary Title-Case alternative's token class were just
// loosened to accept any case:
//  1. an honorific (Dr., Mr., Mrs., Ms., Pt.) followed by a Title-Case
//     name — group 1 captures the name only; Detect uses the full match
//     (m[0]) so the honorific itself is included in the redacted span.
//  2. "Patient"/"Name" followed by an ALL-CAPS name, optionally
//     "LAST, FIRST MIDDLE" — group 2.
//  3. "Patient"/"Name" followed by an ordinary Title-Case name — group 3.
//
// Labels are matched case-insensitively via scoped (?i:...) groups so
// the name-token classes themselves stay case-sensitive where it matters
// (the Title-Case alternatives still require a literal uppercase-then-
// lowercase shape, which is exactly what keeps them from matching
// "DEA"/"MD"/"NPI"-style acronyms that follow a captured name).
type nameFilter struct {
	re *regexp.Regexp
}

// NewNameFilter builds the reference NAME filter.
func NewNameFilter() Filter {
	const titleCaseName = `[A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+[A-Z][a-z]+){0,2}`
	const allCapsName = `[A-Z]{2,}(?:,\s*[A-Z]{2,})?(?:[ \t]+[A-Z]{2,}){0,2}`
	return nameFilter{
		re: regexp.MustCompile(
			`\b(?:` +
				`(?i:Mr\.|Mrs\.|Ms\.|Dr\.|Pt\.?)\s*:?\s+(` + titleCaseName + `)` +
				`|(?i:Patient|Name)\s*:?\s+(` + allCapsName + `)` +
				`|(?i:Patient|Name)\s*:?\s+(` + titleCaseName + `)` +
				`)`),
	}
}

func (f nameFilter) ID() string                    { return "name" }
func (f nameFilter) Categories() []phicat.Category { return []phicat.Category{phicat.Name} }
func (f nameFilter) Kind() Kind                     { return KindTextSpan }

func (f nameFilter) Detect(text string, policy config.Policy) ([]span.Candidate, error) {
	if !policy.Enabled(phicat.Name) {
		return nil, nil
	}
	matches := f.re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}
	runeIdx := byteToRuneIndex(text)
	candidates := make([]span.Candidate, 0, len(matches))
	for _, m := range matches {
		var bs, be int
		switch {
		case m[2] >= 0:
			// Honorific-anchored match: redact the honorific along with
			// the name (spec.md §8 scenario 4 expects "Dr. Robert
			// Williams", not just "Robert Williams"), so use the full
			// match rather than the inner capture.
			bs, be = m[0], m[1]
		case len(m) > 4 && m[4] >= 0:
			// Bare "Patient:"/"Name:" label, ALL-CAPS name: the
			// structural label itself is not part of the span.
			bs, be = m[4], m[5]
		case len(m) > 6 && m[6] >= 0:
			// Bare "Patient:"/"Name:" label, Title-Case name.
			bs, be = m[6], m[7]
		default:
			continue
		}
		start, end := runeIdx[bs], runeIdx[be]
		if start >= end {
			continue
		}
		candidates = append(candidates, span.Candidate{
			Start:       start,
			End:         end,
			Category:    phicat.Name,
			SurfaceText: text[bs:be],
			FilterID:    f.ID(),
			// Higher than a bare pattern match's typical starting point:
			// this filter only ever proposes a candidate when anchored by
			// an unambiguous structural label or honorific, which is
			// itself stronger evidence than an isolated capitalized-word
			// heuristic would give.
			RawScore: 0.55,
		})
	}
	return candidates, nil
}
