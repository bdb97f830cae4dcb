package core

import "time"

// NetworkConfig groups the TimeManager's initial network parameters,
// as loaded from the CLI config file's latency/bandwidth/rate/min_wait
// keys.
type NetworkConfig struct {
	LatencyMs     int64   // latency, default 100
	BandwidthMbps float64 // bandwidth, default 10
	RateMbps      float64 // rate; overrides BandwidthMbps when > 0
	MinWaitNs     int64   // min_wait, pacing floor, default 0
}

// Resolve applies the rate-overrides-bandwidth rule and returns the
// bandwidth the session should actually start with.
func (n NetworkConfig) Resolve() float64 {
	if n.RateMbps > 0 {
		return n.RateMbps
	}
	return n.BandwidthMbps
}

// SchedulingConfig groups scheduler selection and loop pacing.
type SchedulingConfig struct {
	SchedulerName  string        // "greedy" (default), "topk", "ilp"
	RunScheduler   bool          // runScheduler, default true
	Batch          int           // per-round slot cap (batch ~= 100)
	TimeToConverge time.Duration // reuse-last-distribution threshold, 300ms
	TopK           int           // k for the TopK scheduler variant
}

// DefaultSchedulingConfig returns the scheduler's default tuning.
func DefaultSchedulingConfig() SchedulingConfig {
	return SchedulingConfig{
		SchedulerName:  "greedy",
		RunScheduler:   true,
		Batch:          100,
		TimeToConverge: 300 * time.Millisecond,
		TopK:           10,
	}
}

// AppConfig groups application-facing toggles: UseMahimahi/UseNetem
// switch the gallery to emitting zero-filled fake blocks instead of
// reading real tile bytes, for bandwidth-emulator (mahimahi/netem)
// testbeds where only transfer timing matters; BlockCount caps how
// many blocks of each query are served (0 = all).
type AppConfig struct {
	UseMahimahi bool
	UseNetem    bool
	BlockCount  uint32 // 0 = all blocks per query
}

// SessionConfig is the fully resolved configuration for one session,
// assembled from the JSON config file plus per-field defaults.
type SessionConfig struct {
	Network    NetworkConfig
	Scheduling SchedulingConfig
	App        AppConfig
}

// DefaultSessionConfig returns the config an absent or empty ({}) JSON
// config file produces.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Network: NetworkConfig{
			LatencyMs:     100,
			BandwidthMbps: 10,
		},
		Scheduling: DefaultSchedulingConfig(),
	}
}
