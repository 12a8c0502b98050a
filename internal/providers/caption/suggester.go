package caption

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"studio/internal/domain"
	"studio/internal/providers/genai"
)

// Suggester produces structured caption options for a post.
type Suggester interface {
	Suggest(ctx context.Context, prompt, locale string, options int) ([]domain.Caption, error)
}

// GeminiSuggester asks the model for captions and falls back to the static
// suggester when the call fails for a reason other than rate limiting.
type GeminiSuggester struct {
	client *genai.Client
	static *StaticSuggester
}

func NewGeminiSuggester(client *genai.Client) *GeminiSuggester {
	return &GeminiSuggester{client: client, static: NewStaticSuggester()}
}

func (s *GeminiSuggester) Suggest(ctx context.Context, prompt, locale string, options int) ([]domain.Caption, error) {
	captions, err := s.client.GenerateCaptions(ctx, genai.CaptionRequest{
		Prompt:  prompt,
		Locale:  locale,
		Options: options,
	})
	if err != nil {
		if errors.Is(err, genai.ErrRateLimited) {
			return nil, err
		}
		return s.static.Suggest(ctx, prompt, locale, options)
	}
	if len(captions) == 0 {
		return s.static.Suggest(ctx, prompt, locale, options)
	}
	return captions, nil
}

// StaticSuggester builds deterministic captions from the prompt text. It is
// the offline path used when no model is configured.
type StaticSuggester struct{}

func NewStaticSuggester() *StaticSuggester {
	return &StaticSuggester{}
}

type localePack struct {
	tags      []string
	ctas      []string
	templates []string
}

var packs = map[string]localePack{
	"en": {
		tags:      []string{"quick tip", "new", "featured"},
		ctas:      []string{"LEARN MORE", "SHOP NOW", "GET STARTED"},
		templates: []string{"%s", "Discover %s", "%s you will love"},
	},
	"pt": {
		tags:      []string{"dica rápida", "novidade", "destaque"},
		ctas:      []string{"SAIBA MAIS", "COMPRE AGORA", "COMECE JÁ"},
		templates: []string{"%s", "Conheça %s", "%s para você"},
	},
	"id": {
		tags:      []string{"tips cepat", "baru", "unggulan"},
		ctas:      []string{"PELAJARI", "BELI SEKARANG", "MULAI"},
		templates: []string{"%s", "Temukan %s", "%s untuk Anda"},
	},
}

func (s *StaticSuggester) Suggest(_ context.Context, prompt, locale string, options int) ([]domain.Caption, error) {
	subject := strings.TrimSpace(prompt)
	if subject == "" {
		return nil, domain.ErrInvalidPrompt
	}
	if options <= 0 {
		options = 3
	}
	if options > 3 {
		options = 3
	}

	pack, tag := packFor(locale)
	titler := cases.Title(tag)
	headline := titler.String(subject)

	captions := make([]domain.Caption, 0, options)
	for i := 0; i < options; i++ {
		tmpl := pack.templates[i%len(pack.templates)]
		captions = append(captions, domain.Caption{
			Tag:      pack.tags[i%len(pack.tags)],
			Headline: strings.Replace(tmpl, "%s", headline, 1),
			CTA:      pack.ctas[i%len(pack.ctas)],
		})
	}
	return captions, nil
}

func packFor(locale string) (localePack, language.Tag) {
	base := strings.ToLower(locale)
	if i := strings.IndexAny(base, "-_"); i >= 0 {
		base = base[:i]
	}
	switch base {
	case "pt":
		return packs["pt"], language.Portuguese
	case "id":
		return packs["id"], language.Indonesian
	default:
		return packs["en"], language.English
	}
}

var (
	_ Suggester = (*GeminiSuggester)(nil)
	_ Suggester = (*StaticSuggester)(nil)
)
