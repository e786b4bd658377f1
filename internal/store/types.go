package store

// StatusUpdate overwrites a record's status and timestamp unconditionally.
// Callers own any ordering semantics; the store only guarantees per-call
// atomicity.
type StatusUpdate struct {
	ExternalID string
	Status     string
	Timestamp  string
}
