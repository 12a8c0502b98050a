package image

import (
	"context"

	"studio/internal/domain"
)

// SourceImage describes an existing asset used as conditioning input for
// generative edits.
type SourceImage struct {
	AssetID  string
	MimeType string
	Data     []byte
}

// GenerateRequest is the normalized request passed to any image provider.
type GenerateRequest struct {
	Prompt      string
	Quantity    int
	AspectRatio string
	Locale      string
	RequestID   string
	Source      *SourceImage
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]domain.GeneratedAsset, error)
}
