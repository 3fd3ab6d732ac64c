package batch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/acquire"
	"github.com/jarnaud/docfields/internal/engine"
)

const invoiceFixture = `ACME CONSEIL
SIRET 123 456 789 00012
Facture N° FA-2024-0042
Date : 05/03/2024

Total HT : 1 000,00 €
TVA 20 %
Total TTC : 1 200,00 €
`

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return engine.New(acquire.New(acquire.Config{}, nil, nil, logger), logger)
}

func writeFixtures(t *testing.T, dir string, n int) []string {
	t.Helper()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, "facture-"+string(rune('a'+i))+".txt")
		require.NoError(t, os.WriteFile(p, []byte(invoiceFixture), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func TestQueueProcessesAllFiles(t *testing.T) {
	dir := t.TempDir()
	paths := writeFixtures(t, dir, 5)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	q := NewQueue(newTestEngine(t), logger, WithWorkers(2), WithQueueSize(8))
	for _, p := range paths {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p, Module: constants.ModuleInvoice}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	results := q.Results()
	require.Len(t, results, 5)
	for _, r := range results {
		assert.Empty(t, r.ReadErr)
		assert.True(t, r.Result.TotalsOK, "file %s", r.Path)
		ht, ok := r.Result.FieldSet.Num(constants.FieldHT)
		require.True(t, ok)
		assert.InDelta(t, 1000, ht, 1e-9)
	}
}

func TestQueueRecordsReadErrors(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	q := NewQueue(newTestEngine(t), logger, WithWorkers(1))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "/nonexistent/missing.txt"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	results := q.Results()
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].ReadErr)
}

func TestQueueEnqueueAfterShutdownIsNoop(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	q := NewQueue(newTestEngine(t), logger, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "late.txt"}))
	assert.Empty(t, q.Results())
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0o644))
	sub := filepath.Join(dir, "archives")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "scan.pdf"), []byte("%PDF"), 0o644))

	paths, stats, err := CollectFiles(dir)
	require.NoError(t, err)

	assert.Len(t, paths, 3, "two fixtures plus the nested pdf")
	assert.Equal(t, uint32(3), stats.Matched)
	assert.GreaterOrEqual(t, stats.Skipped, uint32(1))
}

func TestCollectFilesEmptyRoot(t *testing.T) {
	_, _, err := CollectFiles("  ")
	assert.Error(t, err)
}

func TestWriteResultsXLSX(t *testing.T) {
	dir := t.TempDir()
	paths := writeFixtures(t, dir, 1)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	q := NewQueue(newTestEngine(t), logger, WithWorkers(1))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: paths[0], Module: constants.ModuleInvoice}))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	out := filepath.Join(dir, "results.xlsx")
	require.NoError(t, WriteResultsXLSX(q.Results(), out, logger))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	rows, err := f.GetRows("Extractions")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one result row")
	assert.Equal(t, "File", rows[0][0])
	assert.Equal(t, paths[0], rows[1][0])
	assert.Contains(t, rows[0], "ht")
	assert.Contains(t, rows[0], "confidence")
}
