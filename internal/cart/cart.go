package cart

import "fmt"

// Cart location states. Only these two values are meaningful, but state
// changes are deliberately permissive: any value other than StateService is
// treated as a return to the kitchen (see DeriveAction).
const (
	// StateKitchen means the cart is at rest in the kitchen.
	StateKitchen = "kitchen"
	// StateService means the cart is deployed to its floor.
	StateService = "service"
)

// Cart is a tracked physical meal-delivery unit.
//
// The id is assigned at seed time and never changes. The floor is the cart's
// physical floor assignment, independent of its current location state.
// Active is carried through persistence and broadcast unchanged; no
// transition logic inspects it.
type Cart struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Floor  int    `json:"floor"`
	State  string `json:"state"`
	Active bool   `json:"active"`
}

// HistoryEntry is an immutable record of one state-changing action.
//
// CartName is a snapshot of the cart's name at the time of the action, not a
// live reference: renaming a cart later does not rewrite old entries.
//
// ID is derived from wall-clock milliseconds at creation. Two entries created
// in the same millisecond share an id; this is accepted, ordering relies
// solely on sequence position (newest first).
//
// Timestamp is a localized human-readable string, not a sortable machine
// timestamp.
type HistoryEntry struct {
	ID        int64  `json:"id"`
	CartName  string `json:"cartName"`
	Action    string `json:"action"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

// TimestampLayout renders creation times the way the original deployment's
// locale did: day/month/year ordering.
const TimestampLayout = "02/01/2006 15:04:05"

// Fixed history entry values recorded by the administrative bulk replace.
const (
	ConfigurationName   = "Configuration"
	ConfigurationAction = "Updated by administrator"
)

// DeriveAction returns the human-readable action description for a state
// change. Exactly the literal StateService value produces the "moved to
// floor" phrasing; every other value, including unknown ones, is a kitchen
// return. The permissiveness is intentional and callers must not pre-validate
// the state string.
func DeriveAction(newState string, floor int) string {
	if newState == StateService {
		return fmt.Sprintf("Moved to floor %d", floor)
	}
	return "Returned to kitchen"
}

// Clone returns a deep copy of a cart slice so callers can hand out
// snapshots without exposing the authoritative backing array.
func Clone(carts []Cart) []Cart {
	if carts == nil {
		return nil
	}
	out := make([]Cart, len(carts))
	copy(out, carts)
	return out
}

// CloneHistory returns a deep copy of a history slice.
func CloneHistory(entries []HistoryEntry) []HistoryEntry {
	if entries == nil {
		return nil
	}
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	return out
}
