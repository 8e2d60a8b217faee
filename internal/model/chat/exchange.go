package chat

import "time"

// Status is the progress of an exchange as reported by the assistant service.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusInProgress     Status = "in_progress"
	StatusRequiresAction Status = "requires_action"
	StatusCancelling     Status = "cancelling"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
)

// Terminal reports whether no further transition can follow this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Exchange tracks one outstanding request/poll/response cycle. It is never
// persisted and is discarded once resolved.
type Exchange struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Text      string    `json:"-"`
	RunID     string    `json:"runId,omitempty"`
	Status    Status    `json:"status"`
	Polls     int       `json:"polls"`
	StartedAt time.Time `json:"startedAt"`
}

// Elapsed returns the wall-clock time since the exchange started.
func (e *Exchange) Elapsed(now time.Time) time.Duration {
	return now.Sub(e.StartedAt)
}
