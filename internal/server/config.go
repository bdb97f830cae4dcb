// Package server is the external HTTP/WebSocket surface around the
// core — deliberately a separate layer from it, but wired here so the
// repository has a real collaborator exercising the
// core.AppAdapter/core.BlockSink contracts end to end. Grounded on
// webserver/appconfig.rs + webserver/ws.rs + manager/manager.rs,
// adapted from actix's actor-mailbox model to net/http handlers plus
// goroutines, using github.com/gorilla/websocket and
// github.com/google/uuid.
package server

import (
	"encoding/json"
	"fmt"
	"os"
)

// RawConfig is the parsed JSON config file: only the recognized keys
// are typed, everything else is absent by default.
// Pointers distinguish "not set" from "set to zero" so defaults apply
// correctly (absent file => {} => every default applies).
type RawConfig struct {
	LatencyMs    *int64   `json:"latency"`
	Bandwidth    *float64 `json:"bandwidth"`
	Rate         *float64 `json:"rate"`
	MinWaitNs    *int64   `json:"min_wait"`
	RunScheduler *bool    `json:"runScheduler"`
	UseMahimahi  *bool    `json:"use_mahimahi"`
	UseNetem     *bool    `json:"use_netem"`
	BlockCount   *uint64  `json:"blockcount"`
	Scheduler    *string  `json:"scheduler"`
}

// LoadConfig reads the CLI's positional JSON config file argument.
// An absent path or missing file yields an empty config ({}).
func LoadConfig(path string) (RawConfig, error) {
	if path == "" {
		return RawConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RawConfig{}, nil
		}
		return RawConfig{}, fmt.Errorf("server: read config %s: %w", path, err)
	}
	var cfg RawConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RawConfig{}, fmt.Errorf("server: parse config %s: %w", path, err)
	}
	return cfg, nil
}
