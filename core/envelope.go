package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Envelope is the bit-exact wire format for a single block:
//
//	block_id(u32) || total_blocks_in_query(u32) || key_bytes || block_payload
//
// little-endian integers throughout. The outer transport (SenderLoop's
// BlockSink) prepends a monotonically increasing dispatch sequence
// number; Envelope itself does not carry one.
type Envelope struct {
	BlockID      uint32
	TotalBlocks  uint32
	Key          []byte
	Payload      []byte
}

// EncodeEnvelope serializes a block into the wire format. key is
// application-defined bytes that must round-trip; it is not
// length-prefixed, and DecodeEnvelope does not parse this form —
// callers that need a self-describing frame should use
// EncodeEnvelopeWithKeyLen.
func EncodeEnvelope(e Envelope) []byte {
	buf := make([]byte, 0, 8+len(e.Key)+len(e.Payload))
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], e.BlockID)
	binary.LittleEndian.PutUint32(hdr[4:8], e.TotalBlocks)
	buf = append(buf, hdr[:]...)
	buf = append(buf, e.Key...)
	buf = append(buf, e.Payload...)
	return buf
}

// EncodeEnvelopeWithKeyLen serializes a block with a u32 key-length
// prefix ahead of the key bytes so DecodeEnvelope can round-trip
// without external framing. The frames written to clients (by
// SenderLoop and the /request path) use EncodeEnvelope instead and
// carry no key-length prefix.
func EncodeEnvelopeWithKeyLen(e Envelope) []byte {
	buf := make([]byte, 0, 12+len(e.Key)+len(e.Payload))
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:4], e.BlockID)
	binary.LittleEndian.PutUint32(hdr[4:8], e.TotalBlocks)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(e.Key)))
	buf = append(buf, hdr[:]...)
	buf = append(buf, e.Key...)
	buf = append(buf, e.Payload...)
	return buf
}

// DecodeEnvelope parses the self-describing form produced by
// EncodeEnvelopeWithKeyLen. It returns an error if the buffer is
// shorter than its declared header+key length.
func DecodeEnvelope(data []byte) (Envelope, error) {
	if len(data) < 12 {
		return Envelope{}, fmt.Errorf("core: envelope too short: %d bytes", len(data))
	}
	r := bytes.NewReader(data)
	var blockID, totalBlocks, keyLen uint32
	for _, v := range []*uint32{&blockID, &totalBlocks, &keyLen} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return Envelope{}, fmt.Errorf("core: decode envelope header: %w", err)
		}
	}
	if int(keyLen) > r.Len() {
		return Envelope{}, fmt.Errorf("core: envelope key length %d exceeds remaining %d bytes", keyLen, r.Len())
	}
	key := make([]byte, keyLen)
	if _, err := r.Read(key); err != nil {
		return Envelope{}, fmt.Errorf("core: decode envelope key: %w", err)
	}
	payload := make([]byte, r.Len())
	if _, err := r.Read(payload); err != nil {
		return Envelope{}, fmt.Errorf("core: decode envelope payload: %w", err)
	}
	return Envelope{BlockID: blockID, TotalBlocks: totalBlocks, Key: key, Payload: payload}, nil
}

// DispatchSequencer hands out monotonically increasing, dense dispatch
// sequence numbers for round-trip timing, prepended by the outer
// transport ahead of each Envelope. Not goroutine-safe by itself;
// callers that share one across the sender and an RTT-logging reader
// should guard it (the SenderLoop is its only writer).
type DispatchSequencer struct {
	next uint32
}

// Next returns the next dispatch sequence number, starting at 0.
func (d *DispatchSequencer) Next() uint32 {
	seq := d.next
	d.next++
	return seq
}

// PrependDispatchSeq prepends a u32 little-endian dispatch sequence
// number ahead of an already-encoded envelope, as the outer WebSocket
// layer does before writing a binary frame.
func PrependDispatchSeq(seq uint32, envelope []byte) []byte {
	out := make([]byte, 4+len(envelope))
	binary.LittleEndian.PutUint32(out[0:4], seq)
	copy(out[4:], envelope)
	return out
}
