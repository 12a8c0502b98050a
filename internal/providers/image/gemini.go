package image

import (
	"context"

	"studio/internal/domain"
	"studio/internal/providers/genai"
)

// GeminiGenerator adapts the genai client to the Generator contract.
type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) ([]domain.GeneratedAsset, error) {
	var source *genai.SourceImage
	if req.Source != nil {
		source = &genai.SourceImage{MimeType: req.Source.MimeType, Data: req.Source.Data}
	}

	assets, err := g.client.GenerateImages(ctx, genai.ImageRequest{
		Prompt:      req.Prompt,
		Quantity:    req.Quantity,
		AspectRatio: req.AspectRatio,
		Locale:      req.Locale,
		RequestID:   req.RequestID,
		Source:      source,
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.GeneratedAsset, len(assets))
	for i, asset := range assets {
		out[i] = domain.GeneratedAsset{
			Kind:     domain.AssetKindImage,
			MimeType: asset.MimeType,
			Width:    asset.Width,
			Height:   asset.Height,
			Data:     asset.Data,
		}
	}
	return out, nil
}

var _ Generator = (*GeminiGenerator)(nil)
