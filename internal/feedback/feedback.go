// Package feedback implements the §4.H Feedback Store: a process-wide,
// SQLite-backed table of per-context-key performance counters that feeds
// the §4.E Adaptive Threshold Service's learned modifier.
//
// The persistence shape is grounded in the teacher's internal/storage.Store
// (hipaa-app/internal/storage/store.go): a single *sql.DB opened against a
// file under the user's config directory, schema created with
// CREATE TABLE IF NOT EXISTS, one row per logical key. This package keeps
// that shape — modernc.org/sqlite, idempotent schema init, load-at-start —
// but replaces the teacher's single ScheduleConfig row with one row per
// ContextKey (spec.md §3), and adds the single-writer/multi-reader
// in-memory cache spec.md §5 requires so lookup() never blocks on disk I/O.
package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DocHatty/vulpes-celare/internal/document"
	"github.com/DocHatty/vulpes-celare/internal/engerr"
	"github.com/DocHatty/vulpes-celare/internal/phicat"
	"go.uber.org/zap"
)

// ContextKey is the tuple spec.md §3 defines as the feedback-store lookup
// key: (documentType, specialty, contextStrength, category).
type ContextKey struct {
	DocumentType    document.Type
	Specialty       document.Specialty
	ContextStrength document.ContextStrength
	Category        phicat.Category
}

// String renders the key as the stable, human-diffable identifier used as
// the SQLite primary key and as the serialized map key in the persisted
// file (spec.md §6: "a mapping contextKey → modifier").
func (k ContextKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.DocumentType, k.Specialty, k.ContextStrength, k.Category)
}

// Outcome classifies one scored span's eventual disposition against
// ground truth. spec.md §4.H's observation shape only names
// wasTruePositive/wasFalsePositive/wasFalseNegative, but the modifier
// formula (sensitivity = TP/(TP+FN), specificity = TN/(TN+FP)) needs a
// true-negative count too; this module adds OutcomeTrueNegative as the
// fourth value under spec.md §9's "decide and record" posture for
// unresolved ambiguities (recorded in DESIGN.md).
type Outcome int

const (
	OutcomeTruePositive Outcome = iota
	OutcomeTrueNegative
	OutcomeFalsePositive
	OutcomeFalseNegative
)

// Observation is one scored span's outcome, reported by a caller who knows
// (or estimates, e.g. via human review or corpus ground truth) whether a
// candidate was correctly or incorrectly redacted/suppressed.
type Observation struct {
	ContextKey       ContextKey
	Confidence       float64
	AppliedThreshold float64
	Outcome          Outcome
}

// Record is the persisted performance tally for one ContextKey (spec.md §3
// FeedbackRecord).
type Record struct {
	ContextKey      ContextKey
	TruePositives   int
	TrueNegatives   int
	FalsePositives  int
	FalseNegatives  int
	LastUpdated     time.Time
	LearnedModifier float64
}

// sampleCount is the total observation count backing one Record; the
// modifier is recomputed once this crosses MinSamples (spec.md §4.H:
// "Modifier recomputation is triggered once the sample count for a key
// reaches a minimum (default 50); thereafter recomputed on every
// observation").
func (r Record) sampleCount() int {
	return r.TruePositives + r.TrueNegatives + r.FalsePositives + r.FalseNegatives
}

// Defaults for the modifier formula (spec.md §4.H).
const (
	DefaultMinSamples         = 50
	DefaultTargetSensitivity  = 0.98
	DefaultTargetSpecificity  = 0.95
	DefaultMaxAdjustment      = 0.15
	modifierClampLow          = 0.8
	modifierClampHigh         = 1.2
)

// Store is the process-wide feedback store: single-writer, multi-reader
// over an in-memory cache backed by SQLite (spec.md §5: "Writers acquire
// an exclusive lock for the duration of one observation+modifier update;
// readers use a consistent snapshot").
type Store struct {
	mu     sync.RWMutex
	cache  map[string]Record
	db     *sql.DB
	log    *zap.Logger
	closed bool

	minSamples        int
	targetSensitivity float64
	targetSpecificity float64
	maxAdjustment     float64
}

// Option configures a Store at construction.
type Option func(*Store)

// WithMinSamples overrides DefaultMinSamples.
func WithMinSamples(n int) Option { return func(s *Store) { s.minSamples = n } }

// WithTargets overrides the default target sensitivity/specificity/maxAdj.
func WithTargets(sensitivity, specificity, maxAdj float64) Option {
	return func(s *Store) {
		s.targetSensitivity = sensitivity
		s.targetSpecificity = specificity
		s.maxAdjustment = maxAdj
	}
}

// WithLogger attaches a logger; defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// Open opens (creating if necessary) a SQLite-backed Store at dbPath and
// loads every persisted record into the in-memory cache. A missing or
// corrupt file is non-fatal per spec.md §7 PersistenceError: it logs a
// warning and starts from an empty store rather than failing construction.
func Open(dbPath string, opts ...Option) (*Store, error) {
	s := &Store{
		cache:             make(map[string]Record),
		log:               zap.NewNop(),
		minSamples:        DefaultMinSamples,
		targetSensitivity: DefaultTargetSensitivity,
		targetSpecificity: DefaultTargetSpecificity,
		maxAdjustment:     DefaultMaxAdjustment,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		s.log.Warn("feedback: opening store failed, continuing with empty in-memory store", zap.Error(err))
		return s, nil
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		s.log.Warn("feedback: schema init failed, continuing with empty in-memory store", zap.Error(err))
		db.Close()
		return s, nil
	}
	s.db = db

	if err := s.load(); err != nil {
		s.log.Warn("feedback: load failed, continuing with empty in-memory store", zap.Error(err))
	}
	return s, nil
}

// OpenInMemory builds a Store with no backing file, for tests and callers
// that only need the in-process learning behavior.
func OpenInMemory(opts ...Option) *Store {
	s := &Store{
		cache:             make(map[string]Record),
		log:               zap.NewNop(),
		minSamples:        DefaultMinSamples,
		targetSensitivity: DefaultTargetSensitivity,
		targetSpecificity: DefaultTargetSpecificity,
		maxAdjustment:     DefaultMaxAdjustment,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS feedback_records (
	context_key      TEXT PRIMARY KEY,
	true_positives   INTEGER NOT NULL DEFAULT 0,
	true_negatives   INTEGER NOT NULL DEFAULT 0,
	false_positives  INTEGER NOT NULL DEFAULT 0,
	false_negatives  INTEGER NOT NULL DEFAULT 0,
	last_updated     TEXT NOT NULL,
	learned_modifier REAL NOT NULL DEFAULT 1.0
);
`

func (s *Store) load() error {
	if s.db == nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT context_key, true_positives, true_negatives, false_positives, false_negatives, last_updated, learned_modifier FROM feedback_records`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, lastUpdated string
		var rec Record
		if err := rows.Scan(&key, &rec.TruePositives, &rec.TrueNegatives, &rec.FalsePositives, &rec.FalseNegatives, &lastUpdated, &rec.LearnedModifier); err != nil {
			continue
		}
		rec.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
		s.cache[key] = rec
	}
	return rows.Err()
}

// Lookup returns the learned modifier for contextKey, or 1.0 if the key
// has no recorded feedback yet (spec.md §4.E: "absence → 1.0").
func (s *Store) Lookup(contextKey ContextKey) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.cache[contextKey.String()]
	if !ok || rec.LearnedModifier == 0 {
		return 1.0
	}
	return rec.LearnedModifier
}

// Record applies one observation to its context key's tally, recomputing
// the learned modifier once the sample count crosses minSamples (spec.md
// §4.H). The in-memory cache update is synchronous and holds the
// single-writer lock only for the duration of this call; the SQLite flush
// happens in a background goroutine off the critical path (spec.md §5:
// "Persistence writes to the feedback store happen off the critical path
// and do not block process return").
func (s *Store) Record(obs Observation) {
	s.mu.Lock()
	key := obs.ContextKey.String()
	rec := s.cache[key]
	rec.ContextKey = obs.ContextKey

	switch obs.Outcome {
	case OutcomeTruePositive:
		rec.TruePositives++
	case OutcomeTrueNegative:
		rec.TrueNegatives++
	case OutcomeFalsePositive:
		rec.FalsePositives++
	case OutcomeFalseNegative:
		rec.FalseNegatives++
	}
	rec.LastUpdated = time.Now()

	if rec.sampleCount() >= s.minSamples {
		rec.LearnedModifier = s.computeModifier(rec)
	} else if rec.LearnedModifier == 0 {
		rec.LearnedModifier = 1.0
	}
	s.cache[key] = rec
	s.mu.Unlock()

	go s.flush(key, rec)
}

// computeModifier implements spec.md §4.H's modifier formula:
//
//	sensitivity = TP/(TP+FN), specificity = TN/(TN+FP), sentinel 1.0 when
//	the denominator is 0. Starting from m = 1.0: if sensitivity below
//	target, multiply by (1 − min(gap, maxAdj)); if specificity below
//	target, multiply by (1 + min(gap, maxAdj)). Clamp to [0.8, 1.2].
func (s *Store) computeModifier(rec Record) float64 {
	sensitivity := ratio(rec.TruePositives, rec.TruePositives+rec.FalseNegatives)
	specificity := ratio(rec.TrueNegatives, rec.TrueNegatives+rec.FalsePositives)

	m := 1.0
	if sensitivity < s.targetSensitivity {
		gap := s.targetSensitivity - sensitivity
		m *= 1 - minFloat(gap, s.maxAdjustment)
	}
	if specificity < s.targetSpecificity {
		gap := s.targetSpecificity - specificity
		m *= 1 + minFloat(gap, s.maxAdjustment)
	}
	return clampFloat(m, modifierClampLow, modifierClampHigh)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 1.0
	}
	return float64(num) / float64(den)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
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

// flush persists one record's current state. Failures are logged, never
// propagated: spec.md §7 PersistenceError is non-fatal, "in-memory
// feedback continues."
func (s *Store) flush(key string, rec Record) {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return
	}
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO feedback_records (context_key, true_positives, true_negatives, false_positives, false_negatives, last_updated, learned_modifier)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(context_key) DO UPDATE SET
			true_positives=excluded.true_positives,
			true_negatives=excluded.true_negatives,
			false_positives=excluded.false_positives,
			false_negatives=excluded.false_negatives,
			last_updated=excluded.last_updated,
			learned_modifier=excluded.learned_modifier
	`, key, rec.TruePositives, rec.TrueNegatives, rec.FalsePositives, rec.FalseNegatives,
		rec.LastUpdated.Format(time.RFC3339), rec.LearnedModifier)
	if err != nil {
		s.log.Warn("feedback: flush failed", zap.String("key", key), zap.Error(engerr.NewPersistence("flush", err)))
	}
}

// Snapshot returns a copy of every record currently cached, for
// diagnostics and tests. Callers must not rely on map iteration order.
func (s *Store) Snapshot() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out
}

// Close releases the underlying SQLite handle, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.db == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	return s.db.Close()
}
