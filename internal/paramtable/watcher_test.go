package paramtable

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"compensation-engine/internal/model"
)

const watchedTable = `
rows:
  - year: 2025
    region: guangxi
    residency: urban
    disposable_income: %s
    consumption_expenditure: 26084
    average_wage: 60000
    funeral_base: 98868
`

func writeTable(t *testing.T, path, disposable string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(fmt.Sprintf(watchedTable, disposable)), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func disposable(t *testing.T, s *Store) string {
	t.Helper()
	row, err := s.Resolve(2025, "guangxi", model.ResidencyUrban)
	require.NoError(t, err)
	return row.DisposableIncome.String()
}

func TestWatcherReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "tables.yaml")
	writeTable(t, path, "43044")

	s := NewStore(nil)
	sources := []Source{YAMLFile{File: path}}
	require.NoError(t, s.Load(context.Background(), sources...))

	w, err := NewWatcher(s, sources, 50*time.Millisecond, nil)
	require.NoError(t, err)
	w.Start(context.Background())
	defer w.Stop()

	writeTable(t, path, "45000")
	require.Eventually(t, func() bool {
		row, err := s.Resolve(2025, "guangxi", model.ResidencyUrban)
		return err == nil && row.DisposableIncome.String() == "45000"
	}, 5*time.Second, 20*time.Millisecond)

	// A broken edit is logged and the previous tables stay active.
	reloads := w.Reloads()
	require.NoError(t, os.WriteFile(path, []byte("rows: [{year: 2025}]"), 0o644))
	require.Eventually(t, func() bool { return w.Reloads() > reloads }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "45000", disposable(t, s))

	w.Stop()
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	writeTable(t, path, "43044")

	s := NewStore(nil)
	sources := []Source{YAMLFile{File: path}}
	require.NoError(t, s.Load(context.Background(), sources...))

	w, err := NewWatcher(s, sources, 20*time.Millisecond, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("unrelated"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, w.Reloads())

	cancel()
	w.Stop()
}

func TestNewWatcherRequiresFileSources(t *testing.T) {
	_, err := NewWatcher(NewStore(nil), []Source{Embedded()}, 0, nil)
	assert.Error(t, err)
}

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.yaml")
	writeTable(t, path, "43044")

	s := NewStore(nil)
	sources := []Source{YAMLFile{File: path}}
	require.NoError(t, s.Load(context.Background(), sources...))

	w, err := NewWatcher(s, sources, 50*time.Millisecond, nil)
	require.NoError(t, err)
	return w
}

func TestWatcherStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := newTestWatcher(t)
	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked without Start")
	}

	// Start after Stop must not revive the loop.
	w.Start(context.Background())
	w.Stop()
}

func TestWatcherConcurrentStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := newTestWatcher(t)
	w.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Stop()
		}()
	}
	wg.Wait()
}
