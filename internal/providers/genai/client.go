// Package genai is a lightweight facade over the Gemini REST API. Providers
// translate domain requests into its calls; the rest of the service only ever
// sees (bytes, mime type) pairs coming back.
//
// Without an API key the client produces deterministic synthetic assets so
// the whole pipeline stays exercisable in local and CI environments.
package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/raster"
)

// ErrRateLimited marks a 429 from the remote service. Callers own the retry
// and backoff policy.
var ErrRateLimited = errors.New("genai: rate limited")

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client calls the Gemini generateContent endpoint for images, captions and
// video. One client is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zerolog.Logger
}

// SourceImage conditions a generation call on an existing image, e.g. for
// generative edits. Data and MimeType always travel together.
type SourceImage struct {
	MimeType string
	Data     []byte
}

// ImageRequest describes an image generation or edit call.
type ImageRequest struct {
	Prompt      string
	Quantity    int
	AspectRatio string
	Locale      string
	RequestID   string
	Source      *SourceImage
}

// CaptionRequest asks the model for structured caption options.
type CaptionRequest struct {
	Prompt    string
	Locale    string
	Options   int
	RequestID string
}

// VideoRequest describes a short video generation call.
type VideoRequest struct {
	Prompt    string
	Locale    string
	RequestID string
}

// ImageAsset is the normalized representation returned by the client.
type ImageAsset struct {
	MimeType string
	Width    int
	Height   int
	Data     []byte
}

// VideoAsset is the normalized representation of a generated video.
type VideoAsset struct {
	MimeType string
	Length   int
	Data     []byte
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	CandidateCount   int    `json:"candidateCount,omitempty"`
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. A nil HTTP client
// is replaced with one carrying a generation-friendly timeout.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image"
	}

	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateImages produces req.Quantity image assets. With a source image the
// call becomes a generative edit. Without an API key, or when the remote call
// fails for a reason other than rate limiting, deterministic synthetic assets
// keep the pipeline moving.
func (c *Client) GenerateImages(ctx context.Context, req ImageRequest) ([]ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return c.syntheticImages(req), nil
	}

	assets, err := c.remoteGenerateImages(ctx, req)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		c.logger.Warn().Err(err).Str("model", c.model).Msg("genai: remote image generation failed, using synthetic assets")
		return c.syntheticImages(req), nil
	}
	if len(assets) == 0 {
		return c.syntheticImages(req), nil
	}
	return assets, nil
}

// GenerateCaptions asks the model for structured caption options as JSON.
func (c *Client) GenerateCaptions(ctx context.Context, req CaptionRequest) ([]domain.Caption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no api key configured", domain.ErrProviderFailure)
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildCaptionPrompt(req)}},
		}},
		GenerationConfig: &geminiGenerationConfig{ResponseMimeType: "application/json"},
	}

	var response geminiResponse
	if err := c.invoke(ctx, payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text == "" {
				continue
			}
			var captions []domain.Caption
			if err := json.Unmarshal([]byte(part.Text), &captions); err != nil {
				continue
			}
			if len(captions) > 0 {
				return captions, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no caption content returned", domain.ErrProviderFailure)
}

// GenerateVideo produces one short video asset. Long-running operation
// polling is deliberately not modeled; the call returns a single terminal
// result.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return c.syntheticVideo(req), nil
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildVideoPrompt(req)}},
		}},
	}

	var response geminiResponse
	if err := c.invoke(ctx, payload, &response); err != nil {
		if errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		c.logger.Warn().Err(err).Str("model", c.model).Msg("genai: remote video generation failed, using synthetic asset")
		return c.syntheticVideo(req), nil
	}

	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			data, mime, err := decodeInline(part)
			if err != nil || len(data) == 0 {
				continue
			}
			if mime == "" {
				mime = "video/mp4"
			}
			return &VideoAsset{MimeType: mime, Length: estimateVideoLength(req.Prompt), Data: data}, nil
		}
	}
	return c.syntheticVideo(req), nil
}

func (c *Client) remoteGenerateImages(ctx context.Context, req ImageRequest) ([]ImageAsset, error) {
	quantity := clampQuantity(req.Quantity)

	parts := []geminiPart{{Text: buildImagePrompt(req)}}
	if req.Source != nil && len(req.Source.Data) > 0 {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: req.Source.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Source.Data),
		}})
	}

	payload := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{CandidateCount: quantity},
	}

	var response geminiResponse
	if err := c.invoke(ctx, payload, &response); err != nil {
		return nil, err
	}

	width, height := normalizeAspect(req.AspectRatio)
	var assets []ImageAsset
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			data, mime, err := decodeInline(part)
			if err != nil || len(data) == 0 {
				continue
			}
			if mime == "" {
				mime = raster.MimePNG
			}
			w, h := raster.Dimensions(data)
			if w == 0 || h == 0 {
				w, h = width, height
			}
			assets = append(assets, ImageAsset{MimeType: mime, Width: w, Height: h, Data: data})
			if len(assets) >= quantity {
				return assets, nil
			}
		}
	}
	return assets, nil
}

func (c *Client) invoke(ctx context.Context, payload any, out any) error {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func decodeInline(part geminiPart) ([]byte, string, error) {
	if part.InlineData == nil || part.InlineData.Data == "" {
		return nil, "", nil
	}
	data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
	if err != nil {
		return nil, "", fmt.Errorf("decode inline data: %w", err)
	}
	return data, part.InlineData.MimeType, nil
}

func buildImagePrompt(req ImageRequest) string {
	var b strings.Builder
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		b.WriteString(prompt)
	} else if req.Source != nil {
		b.WriteString("Apply a subtle enhancement to the attached image")
	} else {
		b.WriteString("Create a social media post image")
	}
	if aspect := strings.TrimSpace(req.AspectRatio); aspect != "" {
		fmt.Fprintf(&b, "\nAspect ratio: %s", aspect)
	}
	if locale := strings.TrimSpace(req.Locale); locale != "" {
		fmt.Fprintf(&b, "\nLanguage for any rendered text: %s", locale)
	}
	return b.String()
}

func buildCaptionPrompt(req CaptionRequest) string {
	options := req.Options
	if options <= 0 {
		options = 3
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d caption options for a social media post about: %s\n", options, strings.TrimSpace(req.Prompt))
	b.WriteString(`Respond with a JSON array of objects with fields "tag", "headline" and "cta".`)
	if locale := strings.TrimSpace(req.Locale); locale != "" {
		fmt.Fprintf(&b, "\nWrite all text in locale %q.", locale)
	}
	return b.String()
}

func buildVideoPrompt(req VideoRequest) string {
	var b strings.Builder
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		b.WriteString(prompt)
	} else {
		b.WriteString("Create a short promotional video")
	}
	if locale := strings.TrimSpace(req.Locale); locale != "" {
		fmt.Fprintf(&b, "\nLocale: %s", locale)
	}
	return b.String()
}

func clampQuantity(quantity int) int {
	if quantity <= 0 {
		return 1
	}
	if quantity > 4 {
		return 4
	}
	return quantity
}

func estimateVideoLength(prompt string) int {
	words := len(strings.Fields(prompt))
	if words == 0 {
		return 12
	}
	length := words / 3
	if length < 8 {
		return 8
	}
	if length > 45 {
		return 45
	}
	return length
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(hasher, "%v|", part)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func normalizeAspect(aspect string) (int, int) {
	switch strings.TrimSpace(strings.ToLower(aspect)) {
	case "16:9":
		return 1920, 1080
	case "9:16":
		return 1080, 1920
	case "4:5":
		return 1024, 1280
	case "3:4":
		return 1080, 1440
	case "4:3":
		return 1440, 1080
	default:
		return 1024, 1024
	}
}
