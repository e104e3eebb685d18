package document

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsMarkdownChanges(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "x")
	writeFile(t, filepath.Join(root, "notes.txt"), "x")

	var mu sync.Mutex
	changed := map[string]int{}
	w := NewWatcher(NewFileStore(root), func(uri string) {
		mu.Lock()
		changed[uri]++
		mu.Unlock()
	}, nil)
	w.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// give the watcher time to register
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("update"), 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("update"), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return changed["a.md"] >= 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, changed["a.md"], "writes should be debounced")
	assert.NotContains(t, changed, "notes.txt")
}
