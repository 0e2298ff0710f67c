// Command guardian-redact is the minimal CLI entrypoint demonstrating
// engine.Engine.Process end to end, the generalized descendant of the
// teacher's Wails-bound App.go methods (ScanFile, previewRedaction, etc.)
// with the desktop shell stripped away: this reads from stdin or a file
// argument, runs the full redaction pipeline, and writes the redacted text
// to stdout and, with -stats, a JSON stats summary to stderr.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/document"
	"github.com/DocHatty/vulpes-celare/internal/engine"
	"github.com/DocHatty/vulpes-celare/internal/feedback"
	"github.com/DocHatty/vulpes-celare/internal/obslog"
	"github.com/DocHatty/vulpes-celare/internal/scorer"
	"github.com/DocHatty/vulpes-celare/internal/threshold"
	"github.com/DocHatty/vulpes-celare/internal/vocabulary"
)

func main() {
	var (
		inputPath    = flag.String("in", "", "path to the document to redact (default: stdin)")
		configPath   = flag.String("policy", "", "path to a policy YAML file (default: built-in defaults)")
		specialtyTab = flag.String("specialty-table", "data/specialty.yaml", "path to the specialty keyword table")
		vocabPath    = flag.String("vocabulary", "data/vocabulary.yaml", "path to the medical vocabulary list")
		keywordTab   = flag.String("keywords", "data/keywords.yaml", "path to the scorer keyword-neighborhood table")
		thresholdTab = flag.String("thresholds", "data/thresholds.yaml", "path to the threshold modifier tables")
		feedbackDB   = flag.String("feedback-db", "", "path to the feedback store SQLite file (default: in-memory)")
		debugLog     = flag.Bool("debug", false, "enable human-readable debug logging")
		statsOut     = flag.Bool("stats", false, "print a JSON stats summary to stderr")
	)
	flag.Parse()

	if err := run(*inputPath, *configPath, *specialtyTab, *vocabPath, *keywordTab, *thresholdTab, *feedbackDB, *debugLog, *statsOut); err != nil {
		fmt.Fprintln(os.Stderr, "guardian-redact:", err)
		os.Exit(1)
	}
}

func run(inputPath, configPath, specialtyTab, vocabPath, keywordTab, thresholdTab, feedbackDB string, debugLog, statsOut bool) error {
	log, err := obslog.New(debugLog)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	policy := config.Default()
	if configPath != "" {
		policy, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load policy: %w", err)
		}
	}

	classifier := document.New()
	if specialtyTab != "" {
		if table, err := document.LoadSpecialtyTable(specialtyTab); err == nil {
			classifier = document.NewFromTables(table)
		}
	}

	vocab := vocabulary.New()
	if vocabPath != "" {
		if loaded, err := vocabulary.Load(vocabPath); err == nil {
			vocab = loaded
		}
	}

	scorerInstance := scorer.New(vocab)
	if keywordTab != "" {
		if table, err := scorer.LoadKeywordTable(keywordTab); err == nil {
			scorerInstance = scorer.NewFromTables(vocab, table)
		}
	}

	thresholdService := threshold.New()
	if thresholdTab != "" {
		if loaded, err := threshold.Load(thresholdTab); err == nil {
			thresholdService = loaded
		}
	}

	feedbackStore, err := feedback.Open(feedbackDB, feedback.WithLogger(log))
	if err != nil {
		return fmt.Errorf("open feedback store: %w", err)
	}
	defer feedbackStore.Close()

	eng := engine.New(
		engine.WithLogger(log),
		engine.WithClassifier(classifier),
		engine.WithScorer(scorerInstance),
		engine.WithThresholdService(thresholdService),
		engine.WithFeedbackStore(feedbackStore),
	)

	var input []byte
	if inputPath == "" {
		input, err = io.ReadAll(os.Stdin)
	} else {
		input, err = os.ReadFile(inputPath)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	result, err := eng.Process(context.Background(), string(input), policy)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	fmt.Println(result.Text)

	if statsOut {
		encoded, err := json.MarshalIndent(result.Stats, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}
		fmt.Fprintln(os.Stderr, string(encoded))
	}
	return nil
}
