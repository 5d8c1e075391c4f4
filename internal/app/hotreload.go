package app

import (
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// HotReloader watches the running binary and invokes a callback once a newer
// build appears on disk, so a development session can offer to restart after
// recompilation. The callback runs on a background goroutine.
type HotReloader struct {
	execPath string
	baseline time.Time
	interval time.Duration
	stop     chan struct{}
	log      zerolog.Logger
}

// NewHotReloader resolves the current executable and records its build time
// as the baseline. Returns nil when the executable cannot be examined, in
// which case callers simply skip reload support.
func NewHotReloader(interval time.Duration, log zerolog.Logger) *HotReloader {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}
	// go build writes a new file; a stale symlink would hide it.
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = real
	}
	info, err := os.Stat(execPath)
	if err != nil {
		return nil
	}
	return &HotReloader{
		execPath: execPath,
		baseline: info.ModTime(),
		interval: interval,
		stop:     make(chan struct{}),
		log:      log,
	}
}

// Start polls the binary until it changes, then invokes onNewBinary once and
// stops watching.
func (h *HotReloader) Start(onNewBinary func()) {
	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				info, err := os.Stat(h.execPath)
				if err != nil || !info.ModTime().After(h.baseline) {
					continue
				}
				h.log.Info().Str("path", h.execPath).Msg("newer binary detected")
				onNewBinary()
				return
			}
		}
	}()
}

// Stop ends the watch goroutine.
func (h *HotReloader) Stop() {
	close(h.stop)
}

// Restart replaces the current process with a fresh instance of the binary,
// keeping arguments and environment. Does not return on success.
func (h *HotReloader) Restart() error {
	return syscall.Exec(h.execPath, os.Args, os.Environ())
}
