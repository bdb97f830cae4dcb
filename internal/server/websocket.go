package server

import (
	"encoding/binary"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSSink is the core.BlockSink backing the /ws/ surface: it writes
// dispatch-sequenced envelopes as binary frames and, on its own
// goroutine, reads back the client's "<seq> <timestamp>" text frames
// for RTT logging. Grounded on webserver/ws.rs's WebSocket
// actor, adapted from actix's Handler<StreamBlock>/StreamHandler split
// to a single struct with one writer-facing method and one reader
// goroutine.
type WSSink struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	recorder interface {
		RecordDispatch(seq uint32, dispatchMs int64)
		RecordAck(seq uint32, ackMs, clientTimeMs int64)
	}
	onClose func()
	closed  bool
}

// NewWSSink wraps conn, recording dispatch/ack timing into recorder.
func NewWSSink(conn *websocket.Conn, recorder interface {
	RecordDispatch(seq uint32, dispatchMs int64)
	RecordAck(seq uint32, ackMs, clientTimeMs int64)
}) *WSSink {
	return &WSSink{conn: conn, recorder: recorder}
}

// Send implements core.BlockSink: envelope is already dispatch-sequence
// prefixed (core.PrependDispatchSeq) by the SenderLoop; this just
// writes it as a binary frame and records the dispatch timestamp.
func (s *WSSink) Send(envelope []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("server: websocket sink closed")
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, envelope); err != nil {
		return fmt.Errorf("server: websocket write: %w", err)
	}
	if len(envelope) >= 4 && s.recorder != nil {
		seq := binary.LittleEndian.Uint32(envelope[0:4])
		s.recorder.RecordDispatch(seq, time.Now().UnixMilli())
	}
	return nil
}

// readLoop drains text frames carrying "<dispatch_seq>
// <client_timestamp_ms>" RTT acks until the connection closes, then
// closes the sink, so later Sends fail and the SenderLoop stops.
// onClose runs on close only when set; ServeWS leaves it unset, so the
// session's SchedulingLoop is not stopped here.
func (s *WSSink) readLoop() {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			logrus.Debugf("server: websocket read loop ending: %v", err)
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.handleAck(string(data))
	}
	s.Close()
}

func (s *WSSink) handleAck(text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	seq, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		logrus.Warnf("server: malformed ack dispatch seq %q: %v", fields[0], err)
		return
	}
	var clientTs int64
	if len(fields) == 2 {
		clientTs, _ = strconv.ParseInt(fields[1], 10, 64)
	}
	if s.recorder != nil {
		s.recorder.RecordAck(uint32(seq), time.Now().UnixMilli(), clientTs)
	}
}

// Close closes the underlying connection once, running onClose if set.
func (s *WSSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	onClose := s.onClose
	s.mu.Unlock()

	_ = s.conn.Close()
	if onClose != nil {
		onClose()
	}
}

// ServeWS upgrades the request to a WebSocket and registers it as the
// manager's active sink, mirroring ws.rs's ws_index +
// WebSocket::started (the Connect message to the Manager).
func ServeWS(mgr *Manager, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("server: websocket upgrade: %v", err)
		return
	}

	sink := NewWSSink(conn, mgr.Recorder())
	mgr.Connect(sink)
	go sink.readLoop()
}
