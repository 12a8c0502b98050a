package genai

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"studio/internal/raster"
)

// syntheticImages renders deterministic placeholder panels. The seed folds in
// the request id and prompt, so re-running a job reproduces identical bytes.
func (c *Client) syntheticImages(req ImageRequest) []ImageAsset {
	quantity := clampQuantity(req.Quantity)
	width, height := normalizeAspect(req.AspectRatio)

	// An edit without a remote model passes the source through untouched, so
	// downstream compositing still operates on the real panel.
	if req.Source != nil && len(req.Source.Data) > 0 {
		if w, h := raster.Dimensions(req.Source.Data); w > 0 && h > 0 {
			asset := ImageAsset{MimeType: req.Source.MimeType, Width: w, Height: h, Data: req.Source.Data}
			return []ImageAsset{asset}
		}
	}

	assets := make([]ImageAsset, quantity)
	for i := 0; i < quantity; i++ {
		seed := deterministicSeed(req.RequestID, req.Prompt, req.Locale, i)
		assets[i] = ImageAsset{
			MimeType: raster.MimePNG,
			Width:    width,
			Height:   height,
			Data:     renderPlaceholder(width, height, seed),
		}
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Int("quantity", quantity).
		Msg("genai: generated synthetic image assets")

	return assets
}

func (c *Client) syntheticVideo(req VideoRequest) *VideoAsset {
	seed := deterministicSeed(req.RequestID, req.Prompt, req.Locale, c.model)
	lines := []string{
		"Synthetic video placeholder",
		fmt.Sprintf("Seed: %s", seed),
		fmt.Sprintf("Prompt: %s", strings.TrimSpace(req.Prompt)),
	}
	return &VideoAsset{
		MimeType: "video/mp4",
		Length:   estimateVideoLength(req.Prompt),
		Data:     []byte(strings.Join(lines, "\n")),
	}
}

// renderPlaceholder draws a two-tone panel with a seed-colored center block,
// visually distinct per seed but cheap to produce.
func renderPlaceholder(width, height int, seed string) []byte {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)

	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)
	inset := image.Rect(width/8, height/8, width*7/8, height*7/8)
	draw.Draw(img, inset, &image.Uniform{accent}, image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = "4a90d9"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: parseHexByte(segment[0:2]),
		G: parseHexByte(segment[2:4]),
		B: parseHexByte(segment[4:6]),
		A: 255,
	}
}

func parseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}
