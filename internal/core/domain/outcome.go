package domain

import "time"

// Error kinds recorded on a failed sync outcome.
const (
	ErrorKindUserError = "user_error" // upstream accepted the call but rejected the mutation
	ErrorKindTransport = "transport"  // network failure, timeout or non-2xx response
	ErrorKindThrottled = "throttled"  // upstream rate limit, retried before being recorded
)

// SyncOutcome is the result of one set-quantity call against a sibling
// inventory item.
type SyncOutcome struct {
	InventoryItemID ID     `json:"inventory_item_id"`
	OK              bool   `json:"ok"`
	ErrorKind       string `json:"error_kind,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

// SyncReport aggregates the outcome of one webhook event end to end.
type SyncReport struct {
	SyncID      string        `json:"sync_id"`
	ProductID   ID            `json:"product_id,omitempty"`
	LocationID  ID            `json:"location_id"`
	Available   int           `json:"available"`
	Deduped     bool          `json:"deduped"`
	Attempted   int           `json:"attempted"`
	Succeeded   int           `json:"succeeded"`
	Outcomes    []SyncOutcome `json:"outcomes,omitempty"`
	CompletedAt time.Time     `json:"completed_at"`
}

// Failed returns the outcomes that did not succeed.
func (r SyncReport) Failed() []SyncOutcome {
	var failed []SyncOutcome
	for _, o := range r.Outcomes {
		if !o.OK {
			failed = append(failed, o)
		}
	}
	return failed
}
