package domain

import "time"

// JobType enumerates supported generation job categories.
type JobType string

const (
	JobTypeImageGenerate JobType = "IMAGE_GEN"
	JobTypeImageEdit     JobType = "IMAGE_EDIT"
	JobTypeVideoGenerate JobType = "VIDEO_GEN"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Job encapsulates the lifecycle of an image/video generation request.
type Job struct {
	ID           string
	Type         JobType
	Status       JobStatus
	PromptJSON   []byte
	Quantity     int
	AspectRatio  string
	Provider     string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Prompt is the generation request contract stored with a job.
type Prompt struct {
	Text           string          `json:"text"`
	NegativeText   string          `json:"negative_text,omitempty"`
	AspectRatio    string          `json:"aspect_ratio,omitempty"`
	Quantity       int             `json:"quantity,omitempty"`
	Locale         string          `json:"locale,omitempty"`
	Reference      *ReferenceImage `json:"reference,omitempty"`
	CaptionOptions int             `json:"caption_options,omitempty"`
}

// ReferenceImage carries an optional conditioning image for editing workflows.
// Raw bytes always travel with their mime type.
type ReferenceImage struct {
	AssetID    string `json:"asset_id,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
	DataBase64 string `json:"data_base64,omitempty"`
}
