package models

// Identity is one registered card holder.
//
// Invariants:
//   - Identifier is non-empty and unique across the registry (primary key)
//   - there is no update-in-place: an Identity's fields never change after
//     creation; correction means delete + re-register
type Identity struct {
	// Identifier is the opaque card token. Observed values are digit
	// strings but any non-empty printable string is accepted.
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name"`
	GroupLabel  string `json:"group_label"`
}
