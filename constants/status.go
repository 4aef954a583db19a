package constants

// ProcessingStatus is the lifecycle status of a content item.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// predecessors lists the only statuses a record may hold before moving to the key.
var predecessors = map[ProcessingStatus][]ProcessingStatus{
	StatusProcessing: {StatusPending},
	StatusCompleted:  {StatusProcessing},
	StatusFailed:     {StatusPending, StatusProcessing},
}

// CanTransition reports whether from -> to is a forward move.
func CanTransition(from, to ProcessingStatus) bool {
	for _, p := range predecessors[to] {
		if p == from {
			return true
		}
	}
	return false
}

// Predecessors returns the statuses allowed immediately before to.
func Predecessors(to ProcessingStatus) []ProcessingStatus {
	out := make([]ProcessingStatus, len(predecessors[to]))
	copy(out, predecessors[to])
	return out
}

// IsTerminal reports whether s admits no further transitions.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}
