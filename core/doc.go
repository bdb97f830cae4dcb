// Package core implements the prefetch-streaming scheduler kernel: the
// probability model, the greedy/topk/ilp block schedulers, and the
// two-stage scheduling/sender pipeline that decides which block of
// which query to send next to a client with a fixed-capacity cache.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - query.go: QueryIndex/Block/QueryCatalog types and the discretized
//     utility vector
//   - envelope.go: the wire format a Block is serialized into
//   - scheduling_loop.go / sender_loop.go: the two threads that drive
//     everything else
//
// # Architecture
//
// core defines the interfaces and the concrete Greedy/TopK/ILP
// schedulers; the probability model lives in core/prob and decision
// tracing lives in core/trace. Concrete applications (gallery, game)
// live in the sibling apps package and only need to satisfy
// AppAdapter.
//
// # Key Interfaces
//
//   - AppAdapter: the contract any concrete application implements for
//     the core (query/block enumeration, distribution decode, block
//     fetch).
//   - Scheduler: produces an ordered block-send plan from a Prob
//     instance and the current cache state.
//   - BlockSink: where the sender writes serialized block envelopes.
package core
