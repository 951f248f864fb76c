package milkyway

// Change event types emitted after successful record store mutations.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ChangeEvent notifies listeners that the record set changed. Record is
// set for creations and updates, nil for deletions.
type ChangeEvent struct {
	Type   string  `json:"type"`
	ID     string  `json:"id"`
	Date   string  `json:"date,omitempty"`
	Record *Record `json:"record,omitempty"`
}
