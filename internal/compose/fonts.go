package compose

import (
	"fmt"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
)

// fontSet holds the parsed font sources used by the overlay. The fonts are
// embedded so text metrics are identical on every host, which keeps Compose
// deterministic for the same inputs.
//
// The overlay weights map onto the Go font family: semibold (tag) uses
// Go Medium, bold and black (CTA, headline) both use Go Bold, the heaviest
// weight the family ships.
type fontSet struct {
	medium *text.FontSource
	bold   *text.FontSource
}

func loadFonts() (*fontSet, error) {
	medium, err := text.NewFontSource(gomedium.TTF)
	if err != nil {
		return nil, fmt.Errorf("compose: parse medium font: %w", err)
	}
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("compose: parse bold font: %w", err)
	}
	return &fontSet{medium: medium, bold: bold}, nil
}
