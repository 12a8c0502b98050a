package canvas

import (
	"image"
	"image/draw"

	"github.com/gogpu/gg"
)

// applySegment rasterizes one gesture segment and composites it into the
// drawing buffer. The segment is rendered on its own transparent layer with
// round caps and joins so the compositing choice is scoped to this one
// application and cannot leak into later strokes: the brush blends the layer
// source-over, the eraser uses the layer's coverage to punch transparency
// (destination-out).
func (s *Session) applySegment(from, to Point) {
	dc := gg.NewContext(s.width, s.height)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.SetLineWidth(s.gesture.width)
	if s.gesture.tool == ToolEraser {
		dc.SetRGB(1, 1, 1)
	} else {
		dc.SetColor(s.gesture.color)
	}
	dc.DrawLine(from.X, from.Y, to.X, to.Y)
	_ = dc.Stroke()

	layer := dc.Image()
	if s.gesture.tool == ToolEraser {
		s.eraseCoverage(layer)
		return
	}
	draw.Draw(s.buffer, s.buffer.Bounds(), layer, image.Point{}, draw.Over)
}

// eraseCoverage scales every buffer pixel by the inverse of the layer's
// alpha (dst = dst * (1 - layerAlpha)). image/draw has no destination-out
// operator, so the premultiplied channels are attenuated directly.
func (s *Session) eraseCoverage(layer image.Image) {
	b := s.buffer.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, ma := layer.At(x, y).RGBA()
			if ma == 0 {
				continue
			}
			keep := 0xffff - ma
			i := s.buffer.PixOffset(x, y)
			p := s.buffer.Pix[i : i+4 : i+4]
			p[0] = uint8(uint32(p[0]) * keep / 0xffff)
			p[1] = uint8(uint32(p[1]) * keep / 0xffff)
			p[2] = uint8(uint32(p[2]) * keep / 0xffff)
			p[3] = uint8(uint32(p[3]) * keep / 0xffff)
		}
	}
}
