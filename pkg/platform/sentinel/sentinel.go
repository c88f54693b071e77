package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and file adapters return
// these (optionally wrapped) so services can translate them into operator
// facing outcomes.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: record does not exist in the store; a lookup miss is a
//     normal outcome, not an exception
//   - ErrDuplicateKey: insert rejected because the identifier already exists
//   - ErrStoreUnavailable: the durable store cannot be opened or written
//   - ErrIOFailure: a mirror/export/import file cannot be read or written
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrIOFailure        = errors.New("io failure")
)
