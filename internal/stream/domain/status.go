package stream

// Status is the derived lifecycle state of a stream. It is always
// computed from the record and the current time, never stored.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCliff     Status = "cliff"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusDepleted  Status = "depleted"
)

// ResolveStatus derives the status at the given time. Matching is in
// strict priority order: a depleted stream is terminal regardless of
// cancellation, and a cancelled stream reports cancelled regardless of
// elapsed time.
func ResolveStatus(s *Stream, now int64) Status {
	if s.IsDepleted {
		return StatusDepleted
	}
	if s.IsCancelled {
		return StatusCancelled
	}
	if now < s.StartTime {
		return StatusPending
	}
	if now < s.CliffTime {
		return StatusCliff
	}
	if StreamedAmount(s, now) >= s.Deposit {
		return StatusCompleted
	}
	return StatusActive
}
