package audit_test

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
)

func TestScanDirectoryCountsAndSkipsNonTextFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clean.txt"), []byte("The weather is nice today."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte(
		"Patient: John Smith\nSSN: 456-78-9012\nMRN: 7834921\nDOB: 04/22/1978",
	), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("not actually scanned"), 0o644))

	eng := engine.New()
	a := audit.New(eng, "")
	defer a.Close()

	report, err := a.ScanDirectory(context.Background(), dir, config.Default())
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalFiles) // image.png excluded
	assert.Equal(t, 2, report.TotalScanned)
	assert.GreaterOrEqual(t, report.TotalRedacted, 1)
}

func TestScanDirectoryEmptyDir(t *testing.T) {
	dir := t.TempDir()
	eng := engine.New()
	a := audit.New(eng, "")
	defer a.Close()

	report, err := a.ScanDirectory(context.Background(), dir, config.Default())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalFiles)
	assert.Empty(t, report.TopOffenders)
}

func TestRecordAndHistory(t *testing.T) {
	eng := engine.New()
	a := audit.New(eng, "") // in-memory store still initializes schema
	defer a.Close()

	a.RecordEntry(audit.Entry{
		Timestamp:     time.Now(),
		Host:          "test-host",
		TotalFiles:    3,
		TotalRedacted: 2,
		CriticalCount: 0,
		Status:        "PASSED",
	})

	entries := a.History(10)
	require.Len(t, entries, 1)
	assert.Equal(t, "test-host", entries[0].Host)
	assert.Equal(t, 3, entries[0].TotalFiles)
	assert.Equal(t, "PASSED", entries[0].Status)
}

func TestHistoryEmptyWhenNoEntries(t *testing.T) {
	eng := engine.New()
	a := audit.New(eng, "")
	defer a.Close()
	assert.Empty(t, a.History(5))
}
