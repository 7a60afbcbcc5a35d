package constants

// JobStatus is the canonical status of a triage job.
type JobStatus string

// Stable values (stored as-is).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // waiting for a worker
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusRouted  JobStatus = "ROUTED"  // stage 2 completed (fields + route)
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)
