package domain

// JobRepository defines the interface for job persistence
type JobRepository interface {
	// Create creates a new job
	Create(job *Job) error

	// Update updates an existing job
	Update(job *Job) error

	// Delete deletes a job by ID
	Delete(id string) error

	// FindByID finds a job by ID
	FindByID(id string) (*Job, error)

	// FindPending finds queued jobs ordered by priority and creation time
	FindPending() ([]*Job, error)

	// FindAll finds all jobs with optional column filters
	FindAll(filters map[string]interface{}) ([]*Job, error)

	// ResetProcessing requeues jobs left in processing by an earlier run
	ResetProcessing() (int64, error)

	// GetStats returns job statistics
	GetStats() (*JobStats, error)

	// Close releases the underlying connection
	Close() error
}

// JobStats represents job statistics
type JobStats struct {
	Total      int64             `json:"total"`
	Queued     int64             `json:"queued"`
	Processing int64             `json:"processing"`
	Completed  int64             `json:"completed"`
	Failed     int64             `json:"failed"`
	Cancelled  int64             `json:"cancelled"`
	ByKind     map[JobKind]int64 `json:"by_kind"`
}
