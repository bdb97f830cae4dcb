package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blockcast/blockcast/core"
	"github.com/blockcast/blockcast/core/trace"
)

// AppState mirrors the /initapp request body:
// {appname, cachesize, state}.
type AppState struct {
	AppName   string          `json:"appname"`
	CacheSize int             `json:"cachesize"`
	State     json.RawMessage `json:"state"`
}

// sessionConfig resolves RawConfig into core's typed SessionConfig,
// applying defaults (latency 100ms, bandwidth 10Mbit/s, min_wait 0,
// runScheduler true) for any key absent from the file.
func (c RawConfig) sessionConfig() core.SessionConfig {
	sc := core.DefaultSessionConfig()
	if c.LatencyMs != nil {
		sc.Network.LatencyMs = *c.LatencyMs
	}
	if c.Bandwidth != nil {
		sc.Network.BandwidthMbps = *c.Bandwidth
	}
	if c.Rate != nil {
		sc.Network.RateMbps = *c.Rate
	}
	if c.MinWaitNs != nil {
		sc.Network.MinWaitNs = *c.MinWaitNs
	}
	if c.RunScheduler != nil {
		sc.Scheduling.RunScheduler = *c.RunScheduler
	}
	if c.Scheduler != nil {
		sc.Scheduling.SchedulerName = *c.Scheduler
	}
	if preset := loadSchedulerPreset(sc.Scheduling.SchedulerName); preset.Batch > 0 || preset.TopK > 0 {
		if preset.Batch > 0 {
			sc.Scheduling.Batch = preset.Batch
		}
		if preset.TopK > 0 {
			sc.Scheduling.TopK = preset.TopK
		}
	}
	if c.UseMahimahi != nil {
		sc.App.UseMahimahi = *c.UseMahimahi
	}
	if c.UseNetem != nil {
		sc.App.UseNetem = *c.UseNetem
	}
	if c.BlockCount != nil {
		sc.App.BlockCount = uint32(*c.BlockCount)
	}
	return sc
}

// Session owns one client's full pipeline: the shared TimeManager and
// CacheSimulator, the two mailboxes, and the scheduling/sender
// goroutines. Grounded on manager/manager.rs's
// SharedState, adapted from actix's actor-mailbox model to goroutines
// plus core.Mailbox.
type Session struct {
	mu sync.Mutex

	adapter core.AppAdapter
	tm      *core.TimeManager
	cache   *core.CacheSimulator

	distBox *core.Mailbox[core.PredictorState]
	planBox *core.Mailbox[[]core.QueryIndex]

	schedLoop *core.SchedulingLoop
	sendLoop  *core.SenderLoop
	recorder  *trace.Recorder

	appState AppState
	cfg      core.SessionConfig
	started  bool

	sink onFatalCloser
}

// onFatalCloser is the subset of WSSink a Session needs to force-close
// on a fatal decode error, without widening core.BlockSink's contract.
type onFatalCloser interface {
	Close()
}

// newSession builds (but does not start) a Session for a freshly
// initialized app, mirroring SharedState::new.
func newSession(adapter core.AppAdapter, appState AppState, cfg core.SessionConfig) *Session {
	catalog, utility := adapter.GetSchedulerConfig()
	maxBlocks := catalog.MaxBlocksPerQuery()
	discretized := core.DiscretizeUtility(utility, maxBlocks)

	tm := core.NewTimeManager(cfg.Network.LatencyMs, cfg.Network.Resolve())
	tm.UpdateBlockSizeMegabits(float64(adapter.GetBlockSize()) * 8.0 / 1e6)

	cache := core.NewCacheSimulator(appState.CacheSize, catalog.Len())

	s := &Session{
		adapter:  adapter,
		tm:       tm,
		cache:    cache,
		distBox:  &core.Mailbox[core.PredictorState]{},
		planBox:  &core.Mailbox[[]core.QueryIndex]{},
		recorder: &trace.Recorder{},
		appState: appState,
		cfg:      cfg,
	}

	scheduler := core.NewScheduler(cfg.Scheduling.SchedulerName, cfg.Scheduling.Batch, cfg.Scheduling.TopK)
	s.schedLoop = core.NewSchedulingLoop(adapter, scheduler, tm, cache, s.distBox, s.planBox,
		discretized, catalog.BlocksPerQuery, false, cfg.Scheduling.TimeToConverge)
	s.schedLoop.SetOnFatal(s.handleFatalDecode)

	return s
}

// handleFatalDecode tears the session down after an unrecoverable
// distribution-decode error, forcing the client to reconnect rather
// than leaving the pipeline stalled against a session that can never
// make progress again.
func (s *Session) handleFatalDecode(err error) {
	logrus.Errorf("server: session ending after fatal decode error: %v", err)
	s.Stop()
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink.Close()
	}
}

// Start launches the scheduling and sender goroutines against sink,
// mirroring Manager::start_threads. No-op if already running.
func (s *Session) Start(sink core.BlockSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.sendLoop = core.NewSenderLoop(s.adapter, s.cache, s.tm, sink, s.planBox,
		s.adapter.GetBlockSize(), time.Duration(s.cfg.Network.MinWaitNs))
	if closer, ok := sink.(onFatalCloser); ok {
		s.sink = closer
	}
	go s.schedLoop.Run()
	go s.sendLoop.Run()
	s.started = true
	logrus.Info("server: scheduling/sender goroutines started")
}

// PushDist forwards a decoded client distribution update into the
// scheduling loop's mailbox.
func (s *Session) PushDist(state core.PredictorState) {
	s.distBox.Put(state)
}

// UpdateNetworkStats applies a client-reported bandwidth/latency
// sample to the shared TimeManager.
func (s *Session) UpdateNetworkStats(bwMbps float64, latencyMs int64) {
	s.tm.UpdateBandwidth(bwMbps)
	s.tm.UpdateLatency(latencyMs)
	if s.sendLoop != nil {
		s.sendLoop.UpdateBandwidth(s.adapter.GetBlockSize())
	}
}

// DirectRequest bypasses the scheduler for a synchronous single-key
// fetch, sending the resulting envelopes straight to sink.
func (s *Session) DirectRequest(key string, sink core.BlockSink, seq *core.DispatchSequencer) error {
	blocks, err := s.adapter.GetBlocksByKey(key, 1, 0)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		payload := core.PrependDispatchSeq(seq.Next(), core.EncodeEnvelope(b))
		if err := sink.Send(payload); err != nil {
			return err
		}
	}
	return nil
}

// Stop tears down the scheduling/sender goroutines, mirroring the
// kill_thread_flag + thread-join sequence in manager.rs's InitApp
// handler before a re-init.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.schedLoop.Kill()
	if s.sendLoop != nil {
		s.sendLoop.Kill()
	}
	s.adapter.Shutdown()
	s.started = false

	if err := s.exportTrace(); err != nil {
		logrus.Warnf("server: couldn't write block_details.csv: %v", err)
	}
}

// exportTrace writes the session's block-delay trace to
// ./log/block_details.csv.
func (s *Session) exportTrace() error {
	if err := os.MkdirAll("log", 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join("log", "block_details.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	return s.recorder.Export(f)
}

// writeReadyFlag writes the manager_started.flag readiness sentinel,
// grounded on manager.rs's Actor::started hook.
func writeReadyFlag() error {
	return os.WriteFile("manager_started.flag", []byte("done"), 0o644)
}
