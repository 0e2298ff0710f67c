// Package vocabulary implements the medical-vocabulary veto of spec.md
// §4.D rule 1: a read-only, constant-time-membership set of clinical
// terms the scorer uses to suppress spans that only look like PHI
// because they share shape with a legitimate clinical term (e.g. a
// capitalized diagnosis word captured as a NAME candidate; the veto
// applies only to NAME and OTHER candidates).
//
// The set itself is grounded in the teacher's risk.Classifier medical
// keyword/bigram lists (hipaa-app/internal/risk/classifier.go), which
// enumerate exactly this kind of clinical-vocabulary signal, though the
// teacher uses them for document-level TF-IDF classification rather than
// span-level veto. This package keeps the same term lists but drops the
// TF-IDF weighting (a veto is boolean, not scored) and adds the
// load-if-present / fall back to defaults contract shared by
// internal/document's specialty table.
package vocabulary

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is a read-only membership set of clinical vocabulary terms and
// bigrams, safe for concurrent use by multiple scorer goroutines since it
// is never mutated after construction.
type Set struct {
	words   map[string]struct{}
	bigrams map[string]struct{}
}

// New builds a Set from the hardcoded default clinical vocabulary,
// generalized from the teacher's medical keyword/bigram lists.
func New() *Set {
	return build(defaultWords, defaultBigrams)
}

// NewFromTerms builds a Set from explicit word and bigram lists, for
// callers that loaded a custom table via Load.
func NewFromTerms(words, bigrams []string) *Set {
	return build(words, bigrams)
}

func build(words, bigrams []string) *Set {
	s := &Set{
		words:   make(map[string]struct{}, len(words)),
		bigrams: make(map[string]struct{}, len(bigrams)),
	}
	for _, w := range words {
		s.words[strings.ToLower(w)] = struct{}{}
	}
	for _, b := range bigrams {
		s.bigrams[strings.ToLower(b)] = struct{}{}
	}
	return s
}

// HasWord reports whether term (case-insensitive) is a known clinical
// vocabulary word.
func (s *Set) HasWord(term string) bool {
	_, ok := s.words[strings.ToLower(term)]
	return ok
}

// HasBigram reports whether phrase (case-insensitive, whitespace as
// written) is a known two-word clinical phrase.
func (s *Set) HasBigram(phrase string) bool {
	_, ok := s.bigrams[strings.ToLower(phrase)]
	return ok
}

// ContainsAny reports whether any whitespace-delimited token of text is a
// known vocabulary word, testing a window of text in one call. The scorer
// does not call it; its veto uses HasWord and HasBigram.
func (s *Set) ContainsAny(text string) bool {
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, "!?()[]{}'\".,;:")
		if _, ok := s.words[tok]; ok {
			return true
		}
	}
	return false
}

// tableFile is the on-disk shape of data/vocabulary.yaml.
type tableFile struct {
	Words   []string `yaml:"words"`
	Bigrams []string `yaml:"bigrams"`
}

// Load reads a vocabulary table from path. A missing file is not an
// error: it returns New(), the hardcoded default set, per the
// ConfigurationError contract (spec.md §7: missing file → treat as
// empty, which here means "fall back to the documented default").
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("vocabulary: read table: %w", err)
	}
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("vocabulary: parse table: %w", err)
	}
	if len(file.Words) == 0 && len(file.Bigrams) == 0 {
		return New(), nil
	}
	return build(file.Words, file.Bigrams), nil
}

// defaultWords generalizes risk.Classifier's medicalHigh/medicalMed
// keyword lists into a single flat veto vocabulary; the TF-IDF weight
// tiers the teacher used to separate them don't apply to a boolean veto.
var defaultWords = []string{
	"patient", "diagnosis", "prescription", "physician", "hospital",
	"surgical", "pathology", "radiology", "oncology", "cardiology",
	"hipaa", "phi", "mrn", "medication", "procedure",
	"medical", "clinic", "treatment", "symptoms", "doctor", "nurse",
	"surgery", "anesthesia", "pediatric", "admitted", "discharged",
	"history", "rx", "insurance", "policy", "claim",
	"biopsy", "chronic", "acute", "lesion", "tumor", "malignant",
	"benign", "dosage", "allergy", "vitals", "referral", "discharge",
	"inpatient", "outpatient", "triage", "specimen", "diagnostic",
}

// defaultBigrams generalizes risk.Classifier's medicalBigrams list.
var defaultBigrams = []string{
	"medical record", "patient history", "health information",
	"protected health", "medical history", "clinical notes",
	"prescription drug", "patient name", "date birth",
	"social security", "insurance number", "medical condition",
	"follow up", "discharge summary", "chief complaint",
	"physical exam", "lab results", "treatment plan",
}
