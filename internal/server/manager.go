package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blockcast/blockcast/apps"
	"github.com/blockcast/blockcast/core"
)

// Manager is the top-level session coordinator the HTTP surface talks
// to — the Go stand-in for manager/manager.rs's Manager actor, with
// actix message handlers replaced by plain mutex-guarded methods.
// One Manager serves one concurrent session: no multi-tenant
// isolation, single session assumed.
type Manager struct {
	mu sync.Mutex

	config   RawConfig
	session  *Session
	instance int

	seq *core.DispatchSequencer
	ws  *WSSink
}

// NewManager creates a Manager bound to a resolved JSON config.
func NewManager(config RawConfig) *Manager {
	return &Manager{config: config, seq: &core.DispatchSequencer{}}
}

// InitApp re-initializes the session: tears down any
// running loops, builds a fresh AppAdapter + Session, and writes the
// manager_started.flag readiness sentinel. Returns the adapter's init
// state payload to echo back to the client.
func (m *Manager) InitApp(state AppState) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		logrus.Debug("server: cleaning up old session state")
		m.session.Stop()
	}

	blockCount := uint32(0)
	if m.config.BlockCount != nil {
		blockCount = uint32(*m.config.BlockCount)
	}
	sessCfg := m.config.sessionConfig()
	fakeBlocks := apps.FakeBlockMode{UseMahimahi: sessCfg.App.UseMahimahi, UseNetem: sessCfg.App.UseNetem}
	adapter, err := apps.New(state.AppName, state.State, blockCount, fakeBlocks)
	if err != nil {
		return "", fmt.Errorf("server: init app %q: %w", state.AppName, err)
	}

	sess := newSession(adapter, state, sessCfg)
	m.session = sess
	m.instance++
	sessionID := uuid.New().String()
	logrus.WithField("session_id", sessionID).Infof("server: initialized %q session", state.AppName)

	if err := writeReadyFlag(); err != nil {
		logrus.Warnf("server: couldn't write manager_started.flag: %v", err)
	}

	return adapter.GetInitState(), nil
}

// StartThreads starts the scheduling/sender goroutines for the current
// session against the active WebSocket sink. No-op (returning false)
// if runScheduler is configured off, matching
// manager.rs's run_scheduler gate.
func (m *Manager) StartThreads() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.config.sessionConfig().Scheduling.RunScheduler {
		logrus.Warn("server: runScheduler disabled; not starting threads")
		return false, nil
	}
	if m.session == nil {
		return false, fmt.Errorf("server: no session initialized")
	}
	if m.ws == nil {
		return false, fmt.Errorf("server: no websocket connected yet")
	}
	m.session.Start(m.ws)
	return true, nil
}

// PostDist decodes a client distribution update and forwards it into
// the scheduling loop's mailbox.
func (m *Manager) PostDist(model string, data json.RawMessage) error {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("server: no session initialized")
	}
	sess.PushDist(core.PredictorState{Model: model, Data: data})
	return nil
}

// LogBandwidth applies a client-reported network sample.
func (m *Manager) LogBandwidth(bwMbps float64, latencyMs int64) error {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("server: no session initialized")
	}
	sess.UpdateNetworkStats(bwMbps, latencyMs)
	return nil
}

// Request bypasses the scheduler for a synchronous single-key fetch.
func (m *Manager) Request(keys []string) error {
	m.mu.Lock()
	sess, ws := m.session, m.ws
	m.mu.Unlock()
	if sess == nil || ws == nil {
		return fmt.Errorf("server: no session/websocket initialized")
	}
	for _, key := range keys {
		if err := sess.DirectRequest(key, ws, m.seq); err != nil {
			logrus.Warnf("server: direct request %q: %v", key, err)
		}
	}
	return nil
}

// Connect registers the WebSocket sink for the current session,
// replacing whatever sink was previously connected. Grounded on
// manager.rs's Handler<Connect>: a new connection stops the old one.
func (m *Manager) Connect(ws *WSSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ws != nil {
		m.ws.Close()
	}
	m.ws = ws
}

// Recorder returns the active session's block-delay recorder, or nil
// if no session is initialized.
func (m *Manager) Recorder() interface {
	RecordDispatch(seq uint32, dispatchMs int64)
	RecordAck(seq uint32, ackMs, clientTimeMs int64)
} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return m.session.recorder
}

// Sequencer returns the manager's dispatch sequencer, which numbers the
// frames sent by Request. The SenderLoop numbers its frames with its
// own sequencer, so the two number ranges are independent and overlap.
func (m *Manager) Sequencer() *core.DispatchSequencer { return m.seq }
