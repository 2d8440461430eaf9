package enums

// JobStatus tracks a media item through background generation.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

var validJobStatuses = []JobStatus{
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
}

// String returns the literal string for the status.
func (s JobStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s JobStatus) IsValid() bool {
	return contains(validJobStatuses, s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed:
		return true
	case JobStatusProcessing:
		return false
	default:
		return false
	}
}

// CanTransitionTo enforces processing -> {completed, failed} and nothing else.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return false
	default:
		return false
	}
}

// ParseJobStatus converts raw input into a JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	return parse(validJobStatuses, value, "job status")
}
