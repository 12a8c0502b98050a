package video

import (
	"context"

	"studio/internal/domain"
	"studio/internal/providers/genai"
)

// GenerateRequest describes a short video generation call.
type GenerateRequest struct {
	Prompt    string
	Locale    string
	RequestID string
}

// Generator is the contract implemented by video providers. Generation is
// modeled as a single terminal call; operation polling is orchestration that
// lives with the remote service client, not here.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*domain.GeneratedAsset, error)
}

// Veo produces short videos through the genai client.
type Veo struct {
	client *genai.Client
}

func NewVeo(client *genai.Client) *Veo {
	return &Veo{client: client}
}

func (v *Veo) Generate(ctx context.Context, req GenerateRequest) (*domain.GeneratedAsset, error) {
	asset, err := v.client.GenerateVideo(ctx, genai.VideoRequest{
		Prompt:    req.Prompt,
		Locale:    req.Locale,
		RequestID: req.RequestID,
	})
	if err != nil {
		return nil, err
	}
	return &domain.GeneratedAsset{
		Kind:     domain.AssetKindVideo,
		MimeType: asset.MimeType,
		Data:     asset.Data,
	}, nil
}

var _ Generator = (*Veo)(nil)
