package domain

import (
	"errors"
	"testing"
)

func TestActiveCaption(t *testing.T) {
	post := &Post{Texts: []Caption{
		{Tag: "dica", Headline: "a", CTA: "x"},
		{Tag: "promo", Headline: "b", CTA: "y"},
	}}

	caption, ok, err := post.ActiveCaption()
	if err != nil || !ok {
		t.Fatalf("ActiveCaption() = %v, %v, %v", caption, ok, err)
	}
	if caption.Tag != "dica" {
		t.Errorf("active tag = %q, want %q", caption.Tag, "dica")
	}

	post.ActiveTextIndex = 5
	if _, _, err := post.ActiveCaption(); !errors.Is(err, ErrInvalidCaptionState) {
		t.Errorf("out-of-range index error = %v, want ErrInvalidCaptionState", err)
	}
}

func TestActiveCaptionImageOnly(t *testing.T) {
	post := &Post{}
	caption, ok, err := post.ActiveCaption()
	if err != nil {
		t.Fatalf("ActiveCaption() error = %v", err)
	}
	if ok {
		t.Errorf("image-only post returned caption %v", caption)
	}
}

func TestCycleCaptionWrapsBothWays(t *testing.T) {
	post := &Post{Texts: make([]Caption, 3)}

	post.CycleCaption(1)
	post.CycleCaption(1)
	post.CycleCaption(1)
	if post.ActiveTextIndex != 0 {
		t.Errorf("index after full forward cycle = %d, want 0", post.ActiveTextIndex)
	}

	post.CycleCaption(-1)
	if post.ActiveTextIndex != 2 {
		t.Errorf("index after backward step = %d, want 2", post.ActiveTextIndex)
	}
}

func TestCycleCaptionImageOnly(t *testing.T) {
	post := &Post{ActiveTextIndex: 3}
	post.CycleCaption(1)
	if post.ActiveTextIndex != 0 {
		t.Errorf("index = %d, want 0", post.ActiveTextIndex)
	}
}
