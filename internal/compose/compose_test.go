package compose

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/gogpu/gg/text"

	"studio/internal/domain"
)

func newCompositor(t *testing.T) *Compositor {
	t.Helper()
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func solidPNG(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img
}

// near reports whether a pixel is within tolerance of the wanted color,
// ignoring alpha. Keeps assertions stable across anti-aliased edges.
func near(c color.Color, want color.RGBA, tolerance int) bool {
	r, g, b, _ := c.RGBA()
	dr := int(r>>8) - int(want.R)
	dg := int(g>>8) - int(want.G)
	db := int(b>>8) - int(want.B)
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	return abs(dr) <= tolerance && abs(dg) <= tolerance && abs(db) <= tolerance
}

// rowsWithColor returns the lowest and highest y containing a pixel near the
// wanted color, or ok=false when none is found.
func rowsWithColor(img image.Image, want color.RGBA) (minY, maxY int, ok bool) {
	b := img.Bounds()
	minY, maxY = b.Max.Y, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if near(img.At(x, y), want, 24) {
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
				ok = true
				break
			}
		}
	}
	return minY, maxY, ok
}

var (
	ctaRed    = color.RGBA{R: 0xE5, G: 0x3E, B: 0x3E}
	tagOrange = color.RGBA{R: 0xDD, G: 0x6B, B: 0x20}
)

func TestComposeScenario(t *testing.T) {
	c := newCompositor(t)
	base := solidPNG(t, 1000, 1000, color.RGBA{R: 200, G: 200, B: 200, A: 255})

	out, err := c.Compose(base, "image/png", domain.Caption{
		Tag:      "DICA RÁPIDA",
		Headline: "Como crescer no Instagram em 2024",
		CTA:      "SAIBA MAIS",
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	img := decodePNG(t, out)
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 1000 || h != 1000 {
		t.Fatalf("output size = %dx%d, want 1000x1000", w, h)
	}

	redMin, _, redOK := rowsWithColor(img, ctaRed)
	orangeMin, orangeMax, orangeOK := rowsWithColor(img, tagOrange)
	if !redOK || !orangeOK {
		t.Fatalf("overlay pills missing: red=%v orange=%v", redOK, orangeOK)
	}
	if orangeMax >= redMin {
		t.Errorf("tag pill (rows %d-%d) must sit above CTA pill (first row %d)", orangeMin, orangeMax, redMin)
	}
	if orangeMin < 400 {
		t.Errorf("tag pill starts at row %d, want inside bottom 60%% gradient zone", orangeMin)
	}
}

func TestComposeIdempotent(t *testing.T) {
	c := newCompositor(t)
	base := solidPNG(t, 320, 240, color.RGBA{R: 10, G: 120, B: 40, A: 255})
	caption := domain.Caption{Tag: "promo", Headline: "duas palavras", CTA: "VER"}

	first, err := c.Compose(base, "image/png", caption)
	if err != nil {
		t.Fatalf("first Compose() error = %v", err)
	}
	second, err := c.Compose(base, "image/png", caption)
	if err != nil {
		t.Fatalf("second Compose() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical inputs produced different output bytes")
	}
}

func TestComposeGradientDarkensBottom(t *testing.T) {
	c := newCompositor(t)
	base := solidPNG(t, 400, 400, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	out, err := c.Compose(base, "image/png", domain.Caption{})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	img := decodePNG(t, out)

	topR, _, _, _ := img.At(395, 10).RGBA()
	bottomR, _, _, _ := img.At(395, 398).RGBA()
	if bottomR >= topR {
		t.Errorf("bottom pixel (%d) not darker than top pixel (%d)", bottomR>>8, topR>>8)
	}
}

func TestComposeEmptyFieldsStillRenderPills(t *testing.T) {
	c := newCompositor(t)
	base := solidPNG(t, 500, 500, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	out, err := c.Compose(base, "image/png", domain.Caption{})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	img := decodePNG(t, out)

	if _, _, ok := rowsWithColor(img, ctaRed); !ok {
		t.Error("empty CTA did not render a pill")
	}
	if _, _, ok := rowsWithColor(img, tagOrange); !ok {
		t.Error("empty tag did not render a pill")
	}
}

func TestComposeDecodeError(t *testing.T) {
	c := newCompositor(t)
	if _, err := c.Compose([]byte("definitely not an image"), "image/png", domain.Caption{}); !errors.Is(err, domain.ErrDecode) {
		t.Errorf("Compose() error = %v, want ErrDecode", err)
	}
	if _, err := c.Compose(nil, "image/png", domain.Caption{}); !errors.Is(err, domain.ErrDecode) {
		t.Errorf("Compose(nil) error = %v, want ErrDecode", err)
	}
}

func TestComposeJPEGInput(t *testing.T) {
	c := newCompositor(t)
	// PNG bytes declared as JPEG must fail, not silently decode.
	base := solidPNG(t, 64, 64, color.RGBA{A: 255})
	if _, err := c.Compose(base, "image/jpeg", domain.Caption{}); !errors.Is(err, domain.ErrDecode) {
		t.Errorf("mismatched mime error = %v, want ErrDecode", err)
	}
}

func TestPillSizeEmptyLabel(t *testing.T) {
	fontSize := 16.0
	w, h := pillSize(0, fontSize, tagPillHeight*fontSize)
	if want := 2 * pillInsetFactor * fontSize; w != want {
		t.Errorf("empty-label pill width = %v, want %v", w, want)
	}
	if w <= 0 {
		t.Error("empty-label pill must keep positive width")
	}
	if want := tagPillHeight * fontSize; h != want {
		t.Errorf("pill height = %v, want %v", h, want)
	}
}

func TestWrapWords(t *testing.T) {
	fonts, err := loadFonts()
	if err != nil {
		t.Fatalf("loadFonts() error = %v", err)
	}
	face := fonts.bold.Face(32)

	if lines := wrapWords(face, "", 100); lines != nil {
		t.Errorf("empty headline wrapped to %v, want none", lines)
	}

	// A single word wider than the limit stays on its own line unsplit.
	long := "Supercalifragilisticexpialidocious"
	lines := wrapWords(face, long, 10)
	if len(lines) != 1 || lines[0] != long {
		t.Errorf("overlong word wrapped to %v, want one unsplit line", lines)
	}

	// Short words that fit together stay on one line.
	short := "um dois tres"
	if w, _ := text.Measure(short, face); w > 10000 {
		t.Fatalf("fixture too wide: %v", w)
	}
	if lines := wrapWords(face, short, 10000); len(lines) != 1 {
		t.Errorf("fitting words wrapped to %d lines, want 1", len(lines))
	}

	// A limit narrower than the pair forces a break between words.
	w1, _ := text.Measure("Hello", face)
	w2, _ := text.Measure("Hello world", face)
	lines = wrapWords(face, "Hello world", (w1+w2)/2)
	if len(lines) != 2 || lines[0] != "Hello" || lines[1] != "world" {
		t.Errorf("wrap = %v, want [Hello world] split into two lines", lines)
	}
}
