package domain

import "time"

// AssetKind enumerates asset types.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// Asset represents a generated artifact belonging to a job.
type Asset struct {
	ID         string
	JobID      string
	Kind       AssetKind
	StorageKey string
	MimeType   string
	Width      int
	Height     int
	Bytes      int64
	CreatedAt  time.Time
}

// GeneratedAsset is returned by providers prior to persistence.
type GeneratedAsset struct {
	Kind     AssetKind
	MimeType string
	Width    int
	Height   int
	Data     []byte
}
