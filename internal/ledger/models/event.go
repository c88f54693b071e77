package models

import "time"

// TimestampLayout is how scan timestamps render in the mirror and snapshot
// files: local wall clock at second resolution.
const TimestampLayout = "2006-01-02 15:04:05"

// ScanEvent is one immutable record of a resolved card presentation.
//
// Invariants:
//   - Seq is assigned by the store and strictly increases with insertion
//     order; it is never reused within a store's lifetime
//   - events are append-only; the only destruction is a full ledger clear
//   - Identifier references an Identity logically, with no enforced foreign
//     key: a later identity deletion leaves the event behind and readers
//     render it as unknown
type ScanEvent struct {
	Seq        int64     `json:"seq"`
	Identifier string    `json:"identifier"`
	Timestamp  time.Time `json:"timestamp"`
}
