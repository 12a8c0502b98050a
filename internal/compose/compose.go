// Package compose flattens a structured caption onto a generated image.
//
// Compose is a pure function of its inputs: the same image bytes, mime type
// and caption always produce pixel-identical PNG output. Each call owns its
// drawing surface; nothing is shared between calls.
package compose

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"studio/internal/domain"
	"studio/internal/raster"
)

const (
	// paddingShare is the outer margin as a share of the image width.
	paddingShare = 0.08

	// gradientStartShare marks where the legibility gradient begins, as a
	// share of the image height. The gradient runs from fully transparent
	// there to gradientMaxAlpha black at the bottom edge.
	gradientStartShare = 0.4
	gradientMaxAlpha   = 0.8

	pillCornerRadius = 8.0

	ctaMinFontSize  = 18.0
	ctaFontDivisor  = 30.0
	ctaPadYFactor   = 0.4
	headMinFontSize = 32.0
	headFontDivisor = 15.0
	headLineSpacing = 1.1
	tagMinFontSize  = 16.0
	tagFontDivisor  = 35.0
	tagPillHeight   = 1.8

	// pillInsetFactor is the horizontal text inset inside a pill, per side,
	// in font-size units. An empty label still yields a pill exactly
	// 2*pillInsetFactor*fontSize wide.
	pillInsetFactor = 0.75

	ctaPillColor = "#E53E3E"
	tagPillColor = "#DD6B20"
)

// Compositor renders caption overlays. It is safe for concurrent use; the
// only shared state is the immutable parsed font set.
type Compositor struct {
	fonts *fontSet
}

func New() (*Compositor, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Compositor{fonts: fonts}, nil
}

// Compose decodes baseImage at its native size, overlays the legibility
// gradient and the caption blocks (CTA pill, headline, tag pill, laid out
// bottom-up) and returns the flattened result as PNG bytes. It fails with
// domain.ErrDecode when the bytes cannot be decoded as the declared mime
// type; no partial output is ever returned.
func (c *Compositor) Compose(baseImage []byte, mimeType string, caption domain.Caption) ([]byte, error) {
	img, err := raster.Decode(baseImage, mimeType)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())

	dc := gg.NewContextForImage(img)
	padding := width * paddingShare
	maxTextWidth := width - 2*padding

	c.drawGradient(dc, width, height)

	// Layout runs bottom-up: pill and block heights depend on measured text
	// widths, which are only known once font size and content are fixed.
	ctaTop := c.drawCTA(dc, caption.CTA, width, height, padding)
	headlineTop := c.drawHeadline(dc, caption.Headline, padding, maxTextWidth, ctaTop, width)
	c.drawTag(dc, caption.Tag, padding, headlineTop, width)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("compose: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) drawGradient(dc *gg.Context, width, height float64) {
	gradient := gg.NewLinearGradientBrush(0, height*gradientStartShare, 0, height).
		AddColorStop(0, gg.RGBA{}).
		AddColorStop(1, gg.RGBA{A: gradientMaxAlpha})
	dc.SetFillBrush(gradient)
	dc.DrawRectangle(0, height*gradientStartShare, width, height*(1-gradientStartShare))
	_ = dc.Fill()
}

// drawCTA renders the call-to-action pill anchored to the bottom margin and
// returns the pill's top edge for the headline to stack against.
func (c *Compositor) drawCTA(dc *gg.Context, cta string, width, height, padding float64) float64 {
	fontSize := math.Max(ctaMinFontSize, width/ctaFontDivisor)
	face := c.fonts.bold.Face(fontSize)
	dc.SetFont(face)

	textWidth, _ := text.Measure(cta, face)
	pillW, pillH := pillSize(textWidth, fontSize, fontSize+2*ctaPadYFactor*fontSize)
	pillTop := height - padding - pillH

	dc.SetHexColor(ctaPillColor)
	dc.DrawRoundedRectangle(padding, pillTop, pillW, pillH, pillCornerRadius)
	_ = dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(cta, padding+pillInsetFactor*fontSize, pillTop+pillH/2, 0, 0.35)

	return pillTop
}

// drawHeadline wraps and stacks the headline above the CTA pill and returns
// the top edge of the headline block. A headline with zero words contributes
// no height.
func (c *Compositor) drawHeadline(dc *gg.Context, headline string, padding, maxTextWidth, ctaTop, width float64) float64 {
	fontSize := math.Max(headMinFontSize, width/headFontDivisor)
	face := c.fonts.bold.Face(fontSize)
	dc.SetFont(face)

	lines := wrapWords(face, headline, maxTextWidth)
	lineHeight := headLineSpacing * fontSize

	dc.SetRGB(1, 1, 1)
	baseline := ctaTop - 0.5*padding
	for i := len(lines) - 1; i >= 0; i-- {
		dc.DrawString(lines[i], padding, baseline)
		baseline -= lineHeight
	}

	top := ctaTop - 0.5*padding
	if len(lines) > 0 {
		top -= float64(len(lines)-1)*lineHeight + fontSize
	}
	return top
}

func (c *Compositor) drawTag(dc *gg.Context, tag string, padding, headlineTop, width float64) {
	fontSize := math.Max(tagMinFontSize, width/tagFontDivisor)
	face := c.fonts.medium.Face(fontSize)
	dc.SetFont(face)

	label := strings.ToUpper(tag)
	textWidth, _ := text.Measure(label, face)
	pillW, pillH := pillSize(textWidth, fontSize, tagPillHeight*fontSize)
	pillTop := headlineTop - 0.5*padding - pillH

	dc.SetHexColor(tagPillColor)
	dc.DrawRoundedRectangle(padding, pillTop, pillW, pillH, pillCornerRadius)
	_ = dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(label, padding+pillInsetFactor*fontSize, pillTop+pillH/2, 0, 0.35)
}

// pillSize returns the pill dimensions for a measured label width. The label
// sits pillInsetFactor*fontSize from each side, so an empty label still
// produces a pill of exactly twice that inset.
func pillSize(textWidth, fontSize, height float64) (float64, float64) {
	return textWidth + 2*pillInsetFactor*fontSize, height
}

// wrapWords greedily packs words into lines no wider than maxWidth. A single
// word wider than maxWidth is never split; it overflows on its own line.
func wrapWords(face text.Face, s string, maxWidth float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if w, _ := text.Measure(candidate, face); w <= maxWidth {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = word
	}
	return append(lines, line)
}
