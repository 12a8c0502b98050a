package domain

import "time"

// Caption is the structured three-field overlay rendered onto a post image.
// All fields are plain text; empty strings are valid and still render.
type Caption struct {
	Tag      string `json:"tag"`
	Headline string `json:"headline"`
	CTA      string `json:"cta"`
}

// Post is a social-media post draft: one image plus zero or more caption
// options, of which at most one is active at a time.
type Post struct {
	ID              string    `json:"id"`
	JobID           string    `json:"job_id"`
	StorageKey      string    `json:"storage_key"`
	MimeType        string    `json:"mime_type"`
	Texts           []Caption `json:"texts"`
	ActiveTextIndex int       `json:"active_text_index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ActiveCaption returns the caption currently selected for compositing.
// The second return is false for an image-only post (no caption options).
func (p *Post) ActiveCaption() (Caption, bool, error) {
	if len(p.Texts) == 0 {
		return Caption{}, false, nil
	}
	if p.ActiveTextIndex < 0 || p.ActiveTextIndex >= len(p.Texts) {
		return Caption{}, false, ErrInvalidCaptionState
	}
	return p.Texts[p.ActiveTextIndex], true, nil
}

// CycleCaption advances the active caption by delta, wrapping around the
// available options. It is a no-op for image-only posts.
func (p *Post) CycleCaption(delta int) {
	n := len(p.Texts)
	if n == 0 {
		p.ActiveTextIndex = 0
		return
	}
	idx := (p.ActiveTextIndex + delta) % n
	if idx < 0 {
		idx += n
	}
	p.ActiveTextIndex = idx
}
