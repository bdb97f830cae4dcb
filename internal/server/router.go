package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

var errMethodNotAllowed = errors.New("server: method not allowed")

// NewRouter wires the external HTTP/WebSocket surface onto mgr.
// Grounded on webserver/appconfig.rs's actix App::new().route(...)
// chain, adapted to net/http.ServeMux.
func NewRouter(mgr *Manager) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/initapp", handleInitApp(mgr))
	mux.HandleFunc("/post_dist", handlePostDist(mgr))
	mux.HandleFunc("/log/bandwidth", handleLogBandwidth(mgr))
	mux.HandleFunc("/start/threads", handleStartThreads(mgr))
	mux.HandleFunc("/request", handleRequest(mgr))
	mux.HandleFunc("/ws/", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(mgr, w, r)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeErr(w http.ResponseWriter, status int, err error) {
	logrus.Warnf("server: %v", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleInitApp is POST /initapp: {appname, cachesize, state} -> the
// adapter's init-state payload.
func handleInitApp(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
			return
		}
		var state AppState
		if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		initState, err := mgr.InitApp(state)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"state": initState})
	}
}

// handlePostDist is POST /post_dist: {model, data} -> 204.
func handlePostDist(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
			return
		}
		var body struct {
			Model string          `json:"model"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		if err := mgr.PostDist(body.Model, body.Data); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleLogBandwidth is POST /log/bandwidth: {bandwidth_mbps, latency_ms} -> 204.
func handleLogBandwidth(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
			return
		}
		var body struct {
			BandwidthMbps float64 `json:"bandwidth_mbps"`
			LatencyMs     int64   `json:"latency_ms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		if err := mgr.LogBandwidth(body.BandwidthMbps, body.LatencyMs); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleStartThreads is POST /start/threads: {} -> {started: bool}.
func handleStartThreads(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
			return
		}
		started, err := mgr.StartThreads()
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"started": started})
	}
}

// handleRequest is POST /request: {keys: [...]} -> 204, the scheduler-bypass fetch.
func handleRequest(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
			return
		}
		var body struct {
			Keys []string `json:"keys"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		if err := mgr.Request(body.Keys); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
