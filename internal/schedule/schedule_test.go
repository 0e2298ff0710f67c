package schedule_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DocHatty/vulpes-celare/internal/audit"
	"github.com/DocHatty/vulpes-celare/internal/config"
	"github.com/DocHatty/vulpes-celare/internal/engine"
	"github.com/DocHatty/vulpes-celare/internal/schedule"
)

func TestRunNowExecutesScanOnManualTrigger(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte(
		"Patient: John Smith\nSSN: 456-78-9012",
	), 0o644))

	eng := engine.New()
	a := audit.New(eng, "")
	defer a.Close()

	s := schedule.New(a, config.Default(), schedule.Config{
		Enabled:   false, // ticker paused; only manual triggers run
		ScanPaths: []string{dir},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	s.RunNow()

	select {
	case ev := <-s.Events():
		assert.Equal(t, "start", ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for start event")
	}

	var gotComplete bool
	for i := 0; i < 5 && !gotComplete; i++ {
		select {
		case ev := <-s.Events():
			if ev.Kind == "complete" {
				gotComplete = true
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for complete event")
		}
	}
	assert.True(t, gotComplete)
}

func TestRunNowNoopWithEmptyScanPaths(t *testing.T) {
	eng := engine.New()
	a := audit.New(eng, "")
	defer a.Close()

	s := schedule.New(a, config.Default(), schedule.Config{Enabled: false})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	s.RunNow()

	select {
	case ev := <-s.Events():
		t.Fatalf("expected no event for empty scan paths, got %+v", ev)
	case <-time.After(300 * time.Millisecond):
		// expected: executeScan returns early for empty paths.
	}
}

func TestCancelScanIsSafeWithNoActiveScan(t *testing.T) {
	eng := engine.New()
	a := audit.New(eng, "")
	defer a.Close()

	s := schedule.New(a, config.Default(), schedule.Config{Enabled: false})
	assert.NotPanics(t, func() { s.CancelScan() })
}
