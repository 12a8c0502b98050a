// Package canvas implements the raster touch-up surface used to retouch
// generated panels. A session layers a transparent drawing buffer over a
// read-only background; strokes only ever mutate the buffer, so cancelling
// a session has no side effects. Background and buffer are flattened once,
// at save time.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"

	xdraw "golang.org/x/image/draw"

	"studio/internal/domain"
	"studio/internal/raster"
)

// Tool selects how strokes combine with the drawing buffer.
type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
)

const (
	// Display size is bounded by these shares of the caller's viewport,
	// preserving aspect ratio. Images smaller than the bound are not
	// upscaled.
	viewportWidthShare  = 0.8
	viewportHeightShare = 0.7

	// MaxStrokeWidth caps SetWidth. The UI slider never exceeds this.
	MaxStrokeWidth = 256.0

	DefaultStrokeWidth = 5.0
)

// Viewport is the available display area the scaled canvas must fit in.
type Viewport struct {
	Width  int
	Height int
}

// Point is a coordinate in canvas (scaled display) space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type sessionState int

const (
	stateEditing sessionState = iota
	stateSaved
	stateCancelled
)

// Session is a single open touch-up surface. All methods are safe for
// concurrent use, but strokes are applied strictly in call order.
type Session struct {
	mu    sync.Mutex
	state sessionState

	background image.Image // full resolution, never mutated
	width      int         // scaled display dimensions
	height     int
	buffer     *image.RGBA // transparent overlay, owned by this session

	tool        Tool
	color       color.NRGBA
	strokeWidth float64

	gesture struct {
		active bool
		tool   Tool
		color  color.NRGBA
		width  float64
		last   Point
	}
}

// Open decodes the background image and starts an editing session. The
// display size fits viewportWidthShare x viewportHeightShare of the viewport
// while preserving aspect ratio. Decode failures surface domain.ErrDecode
// before any surface is allocated.
func Open(background []byte, mimeType string, vp Viewport) (*Session, error) {
	img, err := raster.Decode(background, mimeType)
	if err != nil {
		return nil, err
	}

	width, height := fitDisplay(img.Bounds().Dx(), img.Bounds().Dy(), vp)
	return &Session{
		background:  img,
		width:       width,
		height:      height,
		buffer:      image.NewRGBA(image.Rect(0, 0, width, height)),
		tool:        ToolBrush,
		color:       color.NRGBA{R: 0xFF, A: 0xFF},
		strokeWidth: DefaultStrokeWidth,
	}, nil
}

// fitDisplay scales (w, h) down to the bounded viewport, never up.
func fitDisplay(w, h int, vp Viewport) (int, int) {
	maxW := float64(vp.Width) * viewportWidthShare
	maxH := float64(vp.Height) * viewportHeightShare

	scale := 1.0
	if fw := float64(w); maxW > 0 && fw*scale > maxW {
		scale = maxW / fw
	}
	if fh := float64(h); maxH > 0 && fh*scale > maxH {
		scale = maxH / fh
	}
	if scale > 1 {
		scale = 1
	}

	dw := int(float64(w)*scale + 0.5)
	dh := int(float64(h)*scale + 0.5)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	return dw, dh
}

// Size returns the scaled display dimensions of the drawing surface.
func (s *Session) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// SetTool switches between brush and eraser. Takes effect on the next
// stroke, never retroactively.
func (s *Session) SetTool(tool Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return err
	}
	switch tool {
	case ToolBrush, ToolEraser:
		s.tool = tool
		return nil
	default:
		return fmt.Errorf("canvas: unknown tool %q", tool)
	}
}

// SetColor sets the brush color. Ignored while the eraser is selected.
func (s *Session) SetColor(c color.NRGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return err
	}
	if s.tool == ToolEraser {
		return nil
	}
	c.A = 0xFF
	s.color = c
	return nil
}

// SetWidth sets the stroke width for subsequent strokes. Non-positive widths
// are rejected; widths above MaxStrokeWidth are clamped.
func (s *Session) SetWidth(width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return err
	}
	if width <= 0 {
		return fmt.Errorf("canvas: stroke width must be positive, got %v", width)
	}
	if width > MaxStrokeWidth {
		width = MaxStrokeWidth
	}
	s.strokeWidth = width
	return nil
}

// StrokeStart begins a gesture at p with the current tool configuration.
// An unfinished previous gesture is finalized first, mirroring a browser
// losing and regaining pointer capture.
func (s *Session) StrokeStart(p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return err
	}
	s.gesture.active = true
	s.gesture.tool = s.tool
	s.gesture.color = s.color
	s.gesture.width = s.strokeWidth
	s.gesture.last = p
	return nil
}

// StrokeExtend draws a round-capped segment from the last recorded point to
// p directly into the drawing buffer. Moves without an active gesture are
// ignored, matching pointer moves with no button held.
func (s *Session) StrokeExtend(p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return err
	}
	if !s.gesture.active {
		return nil
	}
	s.applySegment(s.gesture.last, p)
	s.gesture.last = p
	return nil
}

// StrokeEnd finalizes the in-flight gesture. Ending with no active gesture
// is a no-op.
func (s *Session) StrokeEnd() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return err
	}
	s.gesture.active = false
	return nil
}

// Save flattens the session: a fresh surface at the buffer's dimensions, the
// full-resolution background scaled into it first, then the drawing buffer
// on top, serialized as PNG. The session becomes terminal and releases its
// buffer after returning.
func (s *Session) Save() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditing(); err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), s.background, s.background.Bounds(), xdraw.Src, nil)
	draw.Draw(out, out.Bounds(), s.buffer, image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("canvas: encode png: %w", err)
	}

	s.state = stateSaved
	s.buffer = nil
	return buf.Bytes(), nil
}

// Cancel discards the session and its drawing buffer. Safe to call
// mid-gesture; the in-flight stroke is simply abandoned. No output is
// produced and the background is untouched.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateEditing {
		return
	}
	s.state = stateCancelled
	s.gesture.active = false
	s.buffer = nil
}

func (s *Session) requireEditing() error {
	if s.state != stateEditing {
		return domain.ErrSessionState
	}
	return nil
}
