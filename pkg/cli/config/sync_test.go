package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/idconsole/pkg/cli/config"
)

func writeSyncFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sync.toml")
	gt.NoError(t, os.WriteFile(path, []byte(body), 0o600)).Required()
	return path
}

func TestDefaultCandidates(t *testing.T) {
	t.Run("with host", func(t *testing.T) {
		got := config.DefaultCandidates("console01")
		gt.Array(t, got).Length(4).Required()
		gt.Value(t, got[0]).Equal("http://10.129.152.5:3001")
		gt.Value(t, got[1]).Equal("http://console01:3001")
		gt.Value(t, got[3]).Equal("http://localhost:3001")
	})

	t.Run("without host", func(t *testing.T) {
		got := config.DefaultCandidates("")
		gt.Array(t, got).Length(3).Required()
		gt.Value(t, got[1]).Equal("http://helixit.bmc.com:3001")
	})
}

func TestLoadSyncFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeSyncFile(t, `
[backend]
candidates = ["http://relay-a:3001", "https://relay-b"]
discovery_timeout = "3s"
page_limit = 20

[schedule]
interval = "30m"
stale_threshold = "2h"
`)
		file, err := config.LoadSyncFile(path)
		gt.NoError(t, err).Required()
		gt.Array(t, file.Backend.Candidates).Length(2)
		gt.Value(t, file.Backend.PageLimit).Equal(20)
		gt.Value(t, file.Schedule.Interval).Equal("30m")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadSyncFile(filepath.Join(t.TempDir(), "none.toml"))
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})

	t.Run("broken toml", func(t *testing.T) {
		path := writeSyncFile(t, "[backend\ncandidates = ")
		_, err := config.LoadSyncFile(path)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("invalid candidate", func(t *testing.T) {
		path := writeSyncFile(t, `[backend]
candidates = ["relay-a:3001"]
`)
		_, err := config.LoadSyncFile(path)
		gt.Error(t, err).Is(config.ErrInvalidCandidate)
	})

	t.Run("negative duration", func(t *testing.T) {
		path := writeSyncFile(t, `[schedule]
interval = "-1m"
`)
		_, err := config.LoadSyncFile(path)
		gt.Error(t, err).Is(config.ErrInvalidDuration)
	})
}

func TestSync_Apply(t *testing.T) {
	file := &config.SyncFile{
		Backend: config.SyncFileBackend{
			Candidates:       []string{"http://from-file:3001"},
			DiscoveryTimeout: "2s",
			PageLimit:        10,
		},
		Schedule: config.SyncFileSchedule{
			Interval:       "15m",
			StaleThreshold: "3h",
		},
	}

	t.Run("file fills unset flags", func(t *testing.T) {
		s := config.NewSyncForTest("")
		gt.NoError(t, s.Apply(file, func(string) bool { return false })).Required()

		gt.Value(t, s.Candidates()).Equal([]string{"http://from-file:3001"})
		gt.Value(t, s.DiscoveryTimeout()).Equal(2 * time.Second)
		gt.Value(t, s.PageLimit()).Equal(10)
		gt.Value(t, s.Interval()).Equal(15 * time.Minute)
		gt.Value(t, s.StaleThreshold()).Equal(3 * time.Hour)
	})

	t.Run("explicit flags win", func(t *testing.T) {
		s := config.NewSyncForTest("")
		s.SetCandidates([]string{"http://from-flag:3001"})
		isSet := func(name string) bool {
			return name == "backend-url" || name == "sync-interval"
		}
		gt.NoError(t, s.Apply(file, isSet)).Required()

		gt.Value(t, s.Candidates()).Equal([]string{"http://from-flag:3001"})
		gt.Value(t, s.Interval()).Equal(time.Hour)
		gt.Value(t, s.StaleThreshold()).Equal(3 * time.Hour)
	})
}

func TestSync_NewService(t *testing.T) {
	s := config.NewSyncForTest("")
	s.SetCandidates([]string{"http://relay-a:3001", "http://relay-b:3001"})

	svc, loc, err := s.NewService()
	gt.NoError(t, err).Required()
	gt.Value(t, svc).NotNil()
	gt.Value(t, loc).NotNil()
}

func TestSync_UseCaseOptions(t *testing.T) {
	s := config.NewSyncForTest("")
	gt.Array(t, s.UseCaseOptions()).Length(1)
}
