package server

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const defaultsFilePath = "scheduler_defaults.yaml"

// schedulerPreset is one named row of scheduler_defaults.yaml.
type schedulerPreset struct {
	Batch int `yaml:"batch"`
	TopK  int `yaml:"topk"`
}

// schedulerDefaults is the full scheduler_defaults.yaml structure,
// grounded on cmd/default_config.go's Config/strict-decode pattern: a
// bundled YAML asset read once at startup rather than hardcoded Go
// literals, so batch/topk tuning lives in a config file the operator
// can edit without a rebuild.
type schedulerDefaults struct {
	Version string                     `yaml:"version"`
	Presets map[string]schedulerPreset `yaml:"presets"`
}

// loadSchedulerPreset reads scheduler_defaults.yaml and looks up name
// ("greedy", "topk", "ilp"). A missing file or unknown name yields the
// zero preset (the caller already holds core.DefaultSchedulingConfig's
// batch/topk as a fallback) rather than failing session init.
func loadSchedulerPreset(name string) schedulerPreset {
	data, err := os.ReadFile(defaultsFilePath)
	if err != nil {
		return schedulerPreset{}
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var cfg schedulerDefaults
	if err := decoder.Decode(&cfg); err != nil {
		logrus.Warnf("server: malformed %s: %v", defaultsFilePath, err)
		return schedulerPreset{}
	}
	return cfg.Presets[name]
}
