package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForUpdates(t *testing.T, ch chan []config.Update) []config.Update {
	t.Helper()
	select {
	case updates := <-ch:
		return updates
	case <-time.After(time.Second * 5):
		t.Fatal("timed out waiting for config updates")
		return nil
	}
}

func TestProvider_Run(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pcserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9090\"\n"), 0o644))

	p := NewProvider([]string{path})
	p.refreshEvery = time.Millisecond * 100

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	updates := waitForUpdates(t, p.Updates())
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].App)
	assert.Equal(t, ":9090", updates[0].App.Listen)
	assert.Equal(t, path, updates[0].Source)

	// removal is reported with a nil config
	require.NoError(t, os.Remove(path))
	updates = waitForUpdates(t, p.Updates())
	require.Len(t, updates, 1)
	assert.Nil(t, updates[0].App)
	assert.Equal(t, path, updates[0].Source)
}

func TestProvider_Run_InvalidYAMLIsSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pcserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [broken\n"), 0o644))

	p := NewProvider([]string{path})
	p.refreshEvery = time.Millisecond * 100

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()
	go p.Run(ctx)

	select {
	case updates := <-p.Updates():
		t.Fatalf("expected no updates for invalid yaml, got %v", updates)
	case <-ctx.Done():
	}
}
