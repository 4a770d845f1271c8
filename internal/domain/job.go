package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current status of a media job
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
)

// JobKind represents the pipeline operation a job runs
type JobKind string

const (
	JobProbe      JobKind = "probe"
	JobColor      JobKind = "color"
	JobGif        JobKind = "gif"
	JobSmartGif   JobKind = "smart_gif"
	JobPreviewGif JobKind = "preview_gif"
)

// GifParams holds explicit GIF parameters for JobGif
type GifParams struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// Job represents an asynchronous media operation
type Job struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	URL          string     `json:"url" gorm:"not null"`
	Kind         JobKind    `json:"kind" gorm:"not null;index"`
	Source       string     `json:"source" gorm:"default:all"`
	Status       JobStatus  `json:"status" gorm:"not null;index"`
	Priority     int        `json:"priority" gorm:"default:0;index"`
	RetryCount   int        `json:"retry_count" gorm:"default:0"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ErrorKind    ErrorKind  `json:"error_kind,omitempty"`
	ResultPath   string     `json:"result_path,omitempty"`
	Params       string     `json:"params,omitempty" gorm:"type:text"`   // JSON GifParams
	Metadata     string     `json:"metadata,omitempty" gorm:"type:text"` // JSON result payload
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a new queued job
func NewJob(url string, kind JobKind, source string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.New().String(),
		URL:       url,
		Kind:      kind,
		Source:    source,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetGifParams stores explicit GIF parameters on the job
func (j *Job) SetGifParams(p GifParams) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	j.Params = string(data)
	return nil
}

// GifParams decodes the job's GIF parameters; missing params yield zero values
func (j *Job) GifParams() (GifParams, error) {
	var p GifParams
	if j.Params == "" {
		return p, nil
	}
	err := json.Unmarshal([]byte(j.Params), &p)
	return p, err
}

// MarkProcessing marks the job as processing
func (j *Job) MarkProcessing() {
	j.Status = StatusProcessing
	now := time.Now()
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkCompleted marks the job as completed with its output path and metadata
func (j *Job) MarkCompleted(resultPath string, metadata any) {
	j.Status = StatusCompleted
	j.ResultPath = resultPath
	j.ErrorMessage = ""
	j.ErrorKind = ErrorNone
	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			j.Metadata = string(data)
		}
	}
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed marks the job as failed
func (j *Job) MarkFailed(kind ErrorKind, msg string) {
	j.Status = StatusFailed
	j.ErrorKind = kind
	j.ErrorMessage = msg
	j.UpdatedAt = time.Now()
}

// MarkCancelled marks the job as cancelled
func (j *Job) MarkCancelled() {
	j.Status = StatusCancelled
	j.UpdatedAt = time.Now()
}

// Requeue resets a failed or cancelled job for another attempt
func (j *Job) Requeue() {
	j.Status = StatusQueued
	j.RetryCount++
	j.ErrorMessage = ""
	j.ErrorKind = ErrorNone
	j.StartedAt = nil
	j.CompletedAt = nil
	j.UpdatedAt = time.Now()
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.Status == StatusFailed || j.Status == StatusCancelled
}

// IsTerminal checks if the job is in a terminal state
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed || j.Status == StatusCancelled
}

// ValidateJobKind checks if a job kind is valid
func ValidateJobKind(kind JobKind) bool {
	switch kind {
	case JobProbe, JobColor, JobGif, JobSmartGif, JobPreviewGif:
		return true
	}
	return false
}

// ProducesFile reports whether the job's result is a file on disk
func (k JobKind) ProducesFile() bool {
	return k == JobGif || k == JobSmartGif || k == JobPreviewGif
}
