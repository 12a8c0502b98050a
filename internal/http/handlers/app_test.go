package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"studio/internal/compose"
	"studio/internal/infra"
	"studio/internal/providers/caption"
	"studio/internal/storage"
)

func newTestApp(t *testing.T, sql *stubSQL) *App {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	compositor, err := compose.New()
	if err != nil {
		t.Fatalf("compositor: %v", err)
	}
	return &App{
		Logger:     zerolog.Nop(),
		Config:     &infra.Config{ViewportWidth: 1440, ViewportHeight: 900},
		SQL:        sql,
		Store:      store,
		Compositor: compositor,
		Captions:   caption.NewStaticSuggester(),
		Sessions:   NewSessionManager(),
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
