package domain

// JobStatus is the generic status vocabulary every adapter translates its
// backend's wire statuses into.
type JobStatus string

const (
	JobSubmitted JobStatus = "submitted"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobTimedOut  JobStatus = "timed_out"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobTimedOut:
		return true
	}
	return false
}

// ProviderJob tracks one unit of asynchronous work against a backend.
// It is created when an adapter submits work and mutated only by the poller;
// once terminal it never changes again.
type ProviderJob struct {
	ID     string
	Status JobStatus
	// Output holds the raw payload extracted on completion.
	Output string
	// Error holds the upstream error text on failure.
	Error string
	// Ticks counts how many status queries were issued.
	Ticks int
}
