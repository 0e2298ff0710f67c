// Package obslog constructs the zap loggers used across the engine.
//
// The teacher logs with bare fmt.Printf/fmt.Println, each call site
// hand-tagged with a bracketed component name ("[Scheduler] ..."). That is
// workable for a single-file desktop app but loses structure the moment
// several goroutines are scoring spans concurrently. Two sibling repos in
// the retrieval pack (Tributary-ai-services/aether-be, jordigilh/kubernaut)
// both standardize on go.uber.org/zap; this module adopts zap for every
// engine-internal log line, keeping the teacher's bracketed-component-name
// convention as the logger's Named() scope instead of a printf prefix.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the base engine logger. debug controls verbosity: false
// selects zap's production config (JSON, info level and above), true
// selects a human-readable development config at debug level.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

// Nop returns a logger that discards everything, for callers (tests,
// library consumers that haven't wired logging yet) that want the obslog
// contract without a real sink.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Component names scope log lines (audit and schedule pass them to
// Named(); the engine attaches ComponentEngine as a "component" field),
// matching
// the teacher's bracketed prefixes ("[Scheduler] ...", "[Guardian] ...")
// one-for-one so a reader of old teacher logs recognizes the same scopes.
const (
	ComponentDispatcher = "dispatcher"
	ComponentScorer     = "scorer"
	ComponentThreshold  = "threshold"
	ComponentResolver   = "resolver"
	ComponentRedactor   = "redactor"
	ComponentFeedback   = "feedback"
	ComponentEngine     = "engine"
	ComponentScheduler  = "scheduler"
	ComponentAudit      = "audit"
)
