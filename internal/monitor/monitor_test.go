package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skylens/aroverlay/internal/engine"
	"github.com/skylens/aroverlay/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(dir string, stats func() engine.Stats) *Service {
	return NewService(Dependencies{
		Stats:      stats,
		LogManager: logging.NewSlogManager(),
		StatusDir:  dir,
		Session:    "test-session",
	})
}

func TestSnapshot(t *testing.T) {
	svc := newTestService(t.TempDir(), func() engine.Stats {
		return engine.Stats{
			Annotations:        12,
			ActiveAnnotations:  5,
			BoundViews:         5,
			Reloads:            3,
			Ticks:              100,
			HasLocation:        true,
			SmoothedHeading:    42.5,
			Region:             "neutral",
			LastReloadDuration: 2 * time.Millisecond,
		}
	})

	snap := svc.Snapshot()
	assert.Equal(t, "test-session", snap.Session)
	assert.Equal(t, 12, snap.Annotations)
	assert.Equal(t, 5, snap.ActiveAnnotations)
	assert.Equal(t, 42.5, snap.SmoothedHeading)
	assert.Equal(t, "neutral", snap.Region)
	assert.Equal(t, "2ms", snap.LastReloadDuration)
}

func TestStartWritesStatusFile(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(dir, func() engine.Stats {
		return engine.Stats{Annotations: 7, HasLocation: true}
	})
	svc.interval = 10 * time.Millisecond

	require.NoError(t, svc.Start())
	defer svc.Stop()

	statusPath := filepath.Join(dir, "status.json")
	require.Eventually(t, func() bool {
		_, err := os.Stat(statusPath)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	data, err := os.ReadFile(statusPath)
	require.NoError(t, err)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, float64(7), snap["annotations"])
	assert.Equal(t, true, snap["hasLocation"])
}

func TestStartStopIdempotent(t *testing.T) {
	svc := newTestService(t.TempDir(), func() engine.Stats { return engine.Stats{} })

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	svc.Stop()
	assert.Eventually(t, func() bool { return !svc.IsRunning() }, time.Second, 5*time.Millisecond)
	svc.Stop()
}
