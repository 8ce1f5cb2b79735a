package app

import (
	"path/filepath"
	"testing"

	"github.com/bruno-farias/raspi-info-ticker/config"
	"github.com/bruno-farias/raspi-info-ticker/internal/screen"
)

// testConfig shows only the clock so no upstream is contacted.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Log.Level = "error"
	cfg.Ticker.ScreenOrder = []string{screen.IDClock}
	cfg.Display.Output = filepath.Join(t.TempDir(), "frame.png")
	return cfg
}
