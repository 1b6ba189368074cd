package models

// ThumbnailJob asks the worker to derive resized variants of an image record.
type ThumbnailJob struct {
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
}

// WelcomeJob is queued once per registered user.
type WelcomeJob struct {
	UserID string `json:"userId"`
}

// JobStatus is the lifecycle of a queued job as seen by the worker.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)
