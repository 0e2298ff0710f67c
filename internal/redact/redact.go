// Package redact implements the §4.G Replacement Applier: a single-pass
// substitution of accepted spans with policy-selected placeholders,
// alongside an unmodified parallel span report.
//
// This generalizes the teacher's RiskEngine.RedactContent
// (hipaa-app/internal/risk/engine.go), which ran twelve sequential
// regexp.ReplaceAllString passes (one per identifier, fixed
// "[REDACTED-X]" placeholders, byte-based, and non-idempotent against
// its own output in edge cases since later passes could match earlier
// placeholders' brackets). This package keeps the teacher's
// "[CATEGORY]"-shaped placeholder convention but replaces repeated
// whole-text scanning with the one-pass, pre-resolved-span walk spec.md
// §4.G requires, and operates on code points throughout.
package redact

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/engerr"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

// processSalt is generated once per process and held only in memory: never
// logged, persisted, or derivable from the binary. spec.md's Non-goals rule
// out any reversible or cryptographic identifier-to-token ledger, so this
// salt backs nothing but the within-run distinctness of length-preserving
// placeholders (see distinctToken) — it is not, and must never become, a
// mapping back to the original value.
var processSalt = newProcessSalt()

func newProcessSalt() []byte {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		// crypto/rand failing indicates a broken host entropy source, not a
		// condition this package can recover from meaningfully; fall back to
		// a fixed salt so placeholder rendering keeps working rather than
		// panicking mid-redaction (tags then repeat across processes).
		return []byte("vulpes-celare-static-fallback-salt")
	}
	return salt
}

// distinctToken derives a short, non-reversible hex tag from the process
// salt and a redacted value's own surface text, so two distinct source
// values redacted under a length-preserving style render as visibly
// different placeholders instead of identical hyphen runs. The salt keeps
// the tag from being a stable fingerprint across process restarts, and MD5
// is used here purely as a fast digest, not for any security property.
func distinctToken(surfaceText string) string {
	h := md5.New()
	h.Write(processSalt)
	h.Write([]byte(surfaceText))
	return hex.EncodeToString(h.Sum(nil))
}

// Result is the output of Apply: the redacted text and a report of every
// applied redaction at its pre-application offsets.
type Result struct {
	Text   string
	Report []span.Redaction
}

// Apply walks document once, emitting unchanged runs of text interleaved
// with a placeholder for each redaction, into a buffer pre-sized to the
// original length plus eight code points per redaction; placeholders
// wider than that grow the buffer beyond its first allocation.
// redactions must already be sorted by Start and non-overlapping (the
// resolver's postcondition); a violation surfaces as an invariant error
// rather than silently mis-redacting (spec.md §4.G's stated failure
// mode).
func Apply(document []rune, redactions []span.Redaction, policy config.Policy) (Result, error) {
	if err := validateNonOverlapping(redactions); err != nil {
		return Result{}, err
	}

	out := make([]rune, 0, len(document)+len(redactions)*8)
	report := make([]span.Redaction, 0, len(redactions))
	cursor := 0

	for _, r := range redactions {
		if r.Start < cursor || r.End > len(document) {
			return Result{}, engerr.NewInvariant("redaction bounds", fmt.Errorf("redaction [%d,%d) out of order or out of bounds at cursor %d, document length %d", r.Start, r.End, cursor, len(document)))
		}
		out = append(out, document[cursor:r.Start]...)

		surfaceText := string(document[r.Start:r.End])
		placeholder := PlaceholderForValue(r.Category, policy, r.End-r.Start, surfaceText)
		out = append(out, []rune(placeholder)...)

		report = append(report, span.Redaction{
			Start:          r.Start,
			End:            r.End,
			Category:       r.Category,
			Replacement:    placeholder,
			OriginalLength: r.End - r.Start,
			Confidence:     r.Confidence,
		})

		cursor = r.End
	}
	out = append(out, document[cursor:]...)

	return Result{Text: string(out), Report: report}, nil
}

// Placeholder renders the replacement text for category under policy's
// selected style. When policy.PreserveLength is set, bracket and
// double-brace styles are padded with trailing hyphens to originalLength
// code points (never truncated below the unpadded placeholder's own
// length, since a truncated category tag would be ambiguous).
func Placeholder(category phicat.Category, policy config.Policy, originalLength int) string {
	base := placeholderBase(category, policy)
	if !policy.PreserveLength || policy.PlaceholderStyle == config.StyleRedacted {
		return base
	}
	baseLen := len([]rune(base))
	if originalLength <= baseLen {
		return base
	}
	return base + strings.Repeat("-", originalLength-baseLen)
}

// PlaceholderForValue renders the same placeholder Placeholder does, except
// that a length-preserving bracket or double-brace style fills its padding
// with a per-value distinctToken suffix instead of plain hyphens. This is
// what Apply uses: two different SSNs redacted in the same document under
// PreserveLength still produce two different-looking placeholders, without
// either one being reversible back to the original text.
func PlaceholderForValue(category phicat.Category, policy config.Policy, originalLength int, surfaceText string) string {
	base := placeholderBase(category, policy)
	if !policy.PreserveLength || policy.PlaceholderStyle == config.StyleRedacted {
		return base
	}
	baseLen := len([]rune(base))
	pad := originalLength - baseLen
	if pad <= 0 {
		return base
	}
	token := []rune(distinctToken(surfaceText))
	if len(token) > pad {
		token = token[:pad]
	}
	filler := pad - len(token)
	return base + strings.Repeat("-", filler) + string(token)
}

func placeholderBase(category phicat.Category, policy config.Policy) string {
	switch policy.PlaceholderStyle {
	case config.StyleDoubleBrace:
		return "{{" + string(category) + "}}"
	case config.StyleRedacted:
		return "***REDACTED***"
	default:
		return "[" + string(category) + "]"
	}
}

func validateNonOverlapping(redactions []span.Redaction) error {
	for i := 1; i < len(redactions); i++ {
		if redactions[i].Start < redactions[i-1].End {
			return engerr.NewInvariant("non-overlapping redactions", fmt.Errorf("redaction %d [%d,%d) overlaps prior redaction ending at %d", i, redactions[i].Start, redactions[i].End, redactions[i-1].End))
		}
	}
	return nil
}
