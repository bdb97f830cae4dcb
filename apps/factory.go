package apps

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/blockcast/blockcast/core"
)

// FakeBlockMode carries the bandwidth-emulator toggles (use_mahimahi,
// use_netem) that switch the gallery from reading real tile bytes to
// emitting zero-filled fake blocks, for testbeds where only transfer
// timing matters.
type FakeBlockMode struct {
	UseMahimahi bool
	UseNetem    bool
}

// Enabled reports whether either toggle requests fake-block emission.
func (f FakeBlockMode) Enabled() bool { return f.UseMahimahi || f.UseNetem }

// New builds the concrete AppAdapter named by appname from its
// /initapp "state" payload, mirroring apps::new's match on AppType
// (apps/mod.rs) — generalized from a closed Rust enum to a Go string
// switch so additional adapters can be added without touching the core.
func New(appname string, state json.RawMessage, blockCount uint32, fakeBlocks FakeBlockMode) (core.AppAdapter, error) {
	switch appname {
	case "Gallery", "gallery":
		cfg := DefaultGalleryConfig()
		if len(state) > 0 {
			if err := json.Unmarshal(state, &cfg); err != nil {
				return nil, fmt.Errorf("apps: decode gallery state: %w", err)
			}
		}
		if cfg.DBName == "" {
			cfg.DBName = DefaultGalleryConfig().DBName
		}
		return NewGallery(filepath.Join("data", cfg.DBName), cfg, blockCount, fakeBlocks)
	case "Game", "game":
		var cfg GameConfig
		if len(state) > 0 {
			if err := json.Unmarshal(state, &cfg); err != nil {
				return nil, fmt.Errorf("apps: decode game state: %w", err)
			}
		}
		if cfg.ActionsN == 0 {
			cfg.ActionsN = 2
		}
		if cfg.Future == 0 {
			cfg.Future = 1
		}
		if cfg.DBName == "" {
			cfg.DBName = "db_default_game"
		}
		return NewGame(filepath.Join("data", cfg.DBName), cfg, blockCount)
	default:
		return nil, fmt.Errorf("apps: unknown appname %q", appname)
	}
}
