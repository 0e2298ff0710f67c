// Package threshold implements the §4.E Adaptive Threshold Service: a
// pure function from a scoring context to a confidence threshold τ, built
// as a product of independent multiplicative modifiers over a
// category-independent base.
//
// The modifier tables here are new to this module — the teacher never
// had an adaptive threshold, only a fixed point-score cutoff in
// risk.RiskEngine.AnalyzeFileRisk's scoring bands (50/100) — but the
// "small lookup table keyed by an enum, YAML-overridable" shape is
// grounded in the same load-if-present contract used by
// internal/document's specialty table and internal/vocabulary's word
// list, itself grounded in NineSunsInc/citadel's ml.ScorerConfig pattern.
package threshold

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/document"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
)

const (
	// Minimum is the category-independent base τ is composed from
	// (spec.md §4.E: "MINIMUM=0.65").
	Minimum = 0.65
	// Low, Medium, High are documented reference bands, exposed for
	// callers/tests that want to compare an observed τ against them; the
	// composition itself always starts from Minimum.
	Low    = 0.70
	Medium = 0.80
	High   = 0.90

	clampLow  = 0.3
	clampHigh = 0.99
)

// Context is every input the threshold composition needs (spec.md §4.E:
// "context = {documentType, specialty, contextStrength, purposeOfUse,
// category, isOCR}"), plus the learned feedback modifier which is looked
// up by the caller (internal/feedback) rather than computed here.
type Context struct {
	DocumentType     document.Type
	Specialty        document.Specialty
	ContextStrength  document.ContextStrength
	PurposeOfUse     config.PurposeOfUse
	Category         phicat.Category
	IsOCR            bool
	FeedbackModifier float64 // 1.0 if absent from the feedback store
}

// Tables holds every multiplicative modifier table, overridable via Load
// and falling back to the hardcoded defaults below for any axis/key the
// loaded file omits.
type Tables struct {
	DocumentType    map[document.Type]float64
	ContextStrength map[document.ContextStrength]float64
	Specialty       map[document.Specialty]float64
	PurposeOfUse    map[config.PurposeOfUse]float64
	Category        map[phicat.Category]float64
}

// Default returns the hardcoded modifier tables of spec.md §4.E's
// representative-modifiers table.
func Default() Tables {
	return Tables{
		DocumentType: map[document.Type]float64{
			document.TypeDischargeSummary:  0.95,
			document.TypeOperativeReport:   0.95,
			document.TypeProgressNote:      0.97,
			document.TypeLaboratoryReport:  0.97,
			document.TypeRadiologyReport:   0.97,
			document.TypePrescription:      0.95,
			document.TypeEmergencyDeptNote: 0.95,
			document.TypeNursingAdmission:  0.97,
			document.TypeConsultationNote:  0.97,
			document.TypeUnknown:           1.05,
		},
		ContextStrength: map[document.ContextStrength]float64{
			document.ContextStrong:   0.92,
			document.ContextModerate: 0.96,
			document.ContextWeak:     1.00,
			document.ContextNone:     1.05,
		},
		Specialty: map[document.Specialty]float64{
			document.SpecialtyOncology:    1.03,
			document.SpecialtyRadiology:   1.02,
			document.SpecialtyPediatrics:  0.98,
			document.SpecialtyEmergency:   0.95,
			document.SpecialtyCardiology:  1.00,
			document.SpecialtyPsychiatry:  1.02,
			document.SpecialtyOrthopedics: 1.00,
			document.SpecialtyUnknown:     1.00,
		},
		PurposeOfUse: map[config.PurposeOfUse]float64{
			config.PurposeTreatment:    1.00,
			config.PurposePayment:      0.97,
			config.PurposeOperations:   0.95,
			config.PurposeResearch:     0.90,
			config.PurposePublicHealth: 0.92,
			config.PurposeMarketing:    0.85,
		},
		Category: map[phicat.Category]float64{
			phicat.SSN:       0.90,
			phicat.Age90Plus: 1.08,
			phicat.ZipCode:   1.10,
			phicat.Biometric: 0.92,
		},
	}
}

// Service computes τ from a Context, using Tables (falling back to
// Default() entries for any key Tables omits).
type Service struct {
	tables Tables
}

// New builds a Service from the hardcoded default tables.
func New() *Service {
	return &Service{tables: Default()}
}

// NewFromTables builds a Service from externally loaded tables, merged
// over the hardcoded defaults so a partial override file still produces
// a usable table for every axis.
func NewFromTables(t Tables) *Service {
	merged := Default()
	for k, v := range t.DocumentType {
		merged.DocumentType[k] = v
	}
	for k, v := range t.ContextStrength {
		merged.ContextStrength[k] = v
	}
	for k, v := range t.Specialty {
		merged.Specialty[k] = v
	}
	for k, v := range t.PurposeOfUse {
		merged.PurposeOfUse[k] = v
	}
	for k, v := range t.Category {
		merged.Category[k] = v
	}
	return &Service{tables: merged}
}

// Threshold computes τ = clamp(MINIMUM · m_dt · m_cs · m_sp · m_po ·
// m_cat · m_ocr · m_fb, 0.3, 0.99). Modifiers absent from every table
// default to 1.0 (no adjustment), satisfying spec.md §7's "disabled
// configuration → return the base minimum" failure mode when Tables is
// entirely empty.
func (s *Service) Threshold(ctx Context) float64 {
	tau := Minimum
	tau *= lookup(s.tables.DocumentType, ctx.DocumentType, 1.0)
	tau *= lookup(s.tables.ContextStrength, ctx.ContextStrength, 1.0)
	tau *= lookup(s.tables.Specialty, ctx.Specialty, 1.0)
	tau *= lookup(s.tables.PurposeOfUse, ctx.PurposeOfUse, 1.0)
	tau *= lookup(s.tables.Category, ctx.Category, 1.0)
	if ctx.IsOCR {
		tau *= 0.95
	}
	fb := ctx.FeedbackModifier
	if fb == 0 {
		fb = 1.0
	}
	fb = clampFloat(fb, 0.8, 1.2)
	tau *= fb
	return clampFloat(tau, clampLow, clampHigh)
}

func lookup[K comparable](table map[K]float64, key K, fallback float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return fallback
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// tablesFile is the on-disk shape of data/thresholds.yaml.
type tablesFile struct {
	DocumentType    map[string]float64 `yaml:"documentType"`
	ContextStrength map[string]float64 `yaml:"contextStrength"`
	Specialty       map[string]float64 `yaml:"specialty"`
	PurposeOfUse    map[string]float64 `yaml:"purposeOfUse"`
	Category        map[string]float64 `yaml:"category"`
}

// Load reads modifier tables from path, merging over the hardcoded
// defaults. A missing file yields New() with no error (spec.md §7:
// missing file → treat as empty → every modifier falls back to its
// default).
func Load(path string) (*Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("threshold: read tables: %w", err)
	}
	var file tablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("threshold: parse tables: %w", err)
	}
	t := Tables{
		DocumentType:    make(map[document.Type]float64, len(file.DocumentType)),
		ContextStrength: make(map[document.ContextStrength]float64, len(file.ContextStrength)),
		Specialty:       make(map[document.Specialty]float64, len(file.Specialty)),
		PurposeOfUse:    make(map[config.PurposeOfUse]float64, len(file.PurposeOfUse)),
		Category:        make(map[phicat.Category]float64, len(file.Category)),
	}
	for k, v := range file.DocumentType {
		t.DocumentType[document.Type(k)] = v
	}
	for k, v := range file.ContextStrength {
		t.ContextStrength[document.ContextStrength(k)] = v
	}
	for k, v := range file.Specialty {
		t.Specialty[document.Specialty(k)] = v
	}
	for k, v := range file.PurposeOfUse {
		t.PurposeOfUse[config.PurposeOfUse(k)] = v
	}
	for k, v := range file.Category {
		t.Category[phicat.Category(k)] = v
	}
	return NewFromTables(t), nil
}
