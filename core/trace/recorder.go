// Package trace provides per-session decision and delivery recording:
// a mutex-guarded in-memory log of every dispatched block plus a CSV
// export to ./log/block_details.csv (columns bid,delay,t1,t2,client).
package trace

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"
)

// BlockDelayRecord captures one block's round trip: t1 is the instant
// it was dispatched, t2 the instant its RTT ack arrived (zero if none
// has arrived yet), delay is t2-t1 in ms, and client is the
// client-reported timestamp from the ack frame.
type BlockDelayRecord struct {
	DispatchSeq   uint32
	DelayMs       int64
	DispatchMs    int64
	AckMs         int64
	ClientTimeMs  int64
}

// Recorder captures per-block dispatch/ack timing (goroutine-safe),
// grounded on cmd/observe.go's Recorder.
type Recorder struct {
	mu      sync.Mutex
	records []BlockDelayRecord
}

// RecordDispatch logs that dispatchSeq was sent at dispatchMs.
func (r *Recorder) RecordDispatch(dispatchSeq uint32, dispatchMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, BlockDelayRecord{DispatchSeq: dispatchSeq, DispatchMs: dispatchMs})
}

// RecordAck matches an RTT ack (from the client's "<seq> <timestamp>"
// text frame) back to its dispatch record and fills in the delay.
func (r *Recorder) RecordAck(dispatchSeq uint32, ackMs, clientTimeMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].DispatchSeq == dispatchSeq {
			r.records[i].AckMs = ackMs
			r.records[i].ClientTimeMs = clientTimeMs
			r.records[i].DelayMs = ackMs - r.records[i].DispatchMs
			return
		}
	}
}

// Records returns a copy of every recorded block, in dispatch order.
func (r *Recorder) Records() []BlockDelayRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BlockDelayRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Export writes the block_details.csv layout: columns
// bid,delay,t1,t2,client.
func (r *Recorder) Export(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"bid", "delay", "t1", "t2", "client"}); err != nil {
		return err
	}
	for _, rec := range r.Records() {
		row := []string{
			strconv.FormatUint(uint64(rec.DispatchSeq), 10),
			strconv.FormatInt(rec.DelayMs, 10),
			strconv.FormatInt(rec.DispatchMs, 10),
			strconv.FormatInt(rec.AckMs, 10),
			strconv.FormatInt(rec.ClientTimeMs, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
