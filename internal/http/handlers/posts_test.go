package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"studio/internal/domain"
	"studio/internal/sqlinline"
)

func stubPostRow(sql *stubSQL, post domain.Post) {
	sql.rows[sqlinline.QSelectPostByID] = func(args ...any) SimpleRow {
		return NewSimpleRow(func(dest ...any) error {
			textsJSON, _ := json.Marshal(post.Texts)
			*(dest[0].(*string)) = post.ID
			*(dest[1].(*string)) = post.JobID
			*(dest[2].(*string)) = post.StorageKey
			*(dest[3].(*string)) = post.MimeType
			*(dest[4].(*[]byte)) = textsJSON
			*(dest[5].(*int)) = post.ActiveTextIndex
			*(dest[6].(*time.Time)) = post.CreatedAt
			*(dest[7].(*time.Time)) = post.UpdatedAt
			return nil
		})
	}
}

func stubAssetRow(sql *stubSQL, asset domain.Asset) {
	sql.rows[sqlinline.QSelectAssetByID] = func(args ...any) SimpleRow {
		return NewSimpleRow(func(dest ...any) error {
			*(dest[0].(*string)) = asset.ID
			*(dest[1].(*string)) = asset.JobID
			*(dest[2].(*domain.AssetKind)) = asset.Kind
			*(dest[3].(*string)) = asset.StorageKey
			*(dest[4].(*string)) = asset.MimeType
			*(dest[5].(*int)) = asset.Width
			*(dest[6].(*int)) = asset.Height
			*(dest[7].(*int64)) = asset.Bytes
			*(dest[8].(*time.Time)) = asset.CreatedAt
			return nil
		})
	}
}

func TestPostDownloadRendersCaption(t *testing.T) {
	sql := newStubSQL()
	app := newTestApp(t, sql)

	base := solidPNG(t, 400, 400, color.NRGBA{R: 0x20, G: 0x60, B: 0xA0, A: 0xFF})
	if _, err := app.Store.Write(context.Background(), "posts/p1.png", base); err != nil {
		t.Fatalf("store write: %v", err)
	}

	stubPostRow(sql, domain.Post{
		ID:         "p1",
		StorageKey: "posts/p1.png",
		MimeType:   "image/png",
		Texts: []domain.Caption{
			{Tag: "dica", Headline: "Como crescer nas redes", CTA: "SAIBA MAIS"},
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/posts/p1/download", nil), "post_id", "p1")
	rec := httptest.NewRecorder()
	app.PostDownload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode rendered png: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 400 || b.Dy() != 400 {
		t.Fatalf("rendered size = %dx%d", b.Dx(), b.Dy())
	}
	if bytes.Equal(rec.Body.Bytes(), base) {
		t.Fatal("rendered output identical to base image")
	}
}

func TestPostDownloadImageOnlyPassthrough(t *testing.T) {
	sql := newStubSQL()
	app := newTestApp(t, sql)

	base := solidPNG(t, 64, 64, color.NRGBA{R: 0xFF, A: 0xFF})
	if _, err := app.Store.Write(context.Background(), "posts/p2.png", base); err != nil {
		t.Fatalf("store write: %v", err)
	}
	stubPostRow(sql, domain.Post{ID: "p2", StorageKey: "posts/p2.png", MimeType: "image/png"})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/posts/p2/download", nil), "post_id", "p2")
	rec := httptest.NewRecorder()
	app.PostDownload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), base) {
		t.Fatal("image-only post must stream stored bytes untouched")
	}
}

func TestPostDownloadInvalidCaptionIndex(t *testing.T) {
	sql := newStubSQL()
	app := newTestApp(t, sql)
	stubPostRow(sql, domain.Post{
		ID:              "p3",
		StorageKey:      "posts/p3.png",
		MimeType:        "image/png",
		Texts:           []domain.Caption{{Headline: "one"}},
		ActiveTextIndex: 5,
	})
	if _, err := app.Store.Write(context.Background(), "posts/p3.png", solidPNG(t, 8, 8, color.NRGBA{A: 0xFF})); err != nil {
		t.Fatalf("store write: %v", err)
	}

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/posts/p3/download", nil), "post_id", "p3")
	rec := httptest.NewRecorder()
	app.PostDownload(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestPostCaptionCycleWrapsForward(t *testing.T) {
	sql := newStubSQL()
	app := newTestApp(t, sql)
	stubPostRow(sql, domain.Post{
		ID:              "p4",
		Texts:           []domain.Caption{{Headline: "a"}, {Headline: "b"}, {Headline: "c"}},
		ActiveTextIndex: 2,
	})

	var persisted int
	sql.execs[sqlinline.QUpdatePostCaptionIndex] = func(args ...any) (pgconn.CommandTag, error) {
		persisted = args[1].(int)
		return pgconn.CommandTag{}, nil
	}

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/v1/posts/p4/caption/cycle", nil), "post_id", "p4")
	rec := httptest.NewRecorder()
	app.PostCaptionCycle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if persisted != 0 {
		t.Fatalf("persisted index = %d, want wraparound to 0", persisted)
	}
	var got domain.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ActiveTextIndex != 0 {
		t.Fatalf("response index = %d", got.ActiveTextIndex)
	}
}

func TestPostCaptionSelectOutOfRange(t *testing.T) {
	sql := newStubSQL()
	app := newTestApp(t, sql)
	stubPostRow(sql, domain.Post{ID: "p5", Texts: []domain.Caption{{Headline: "a"}}})

	body := bytes.NewBufferString(`{"index": 7}`)
	req := withURLParam(httptest.NewRequest(http.MethodPut, "/v1/posts/p5/caption", body), "post_id", "p5")
	rec := httptest.NewRecorder()
	app.PostCaptionSelect(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestPostsCreateWithSuggestedCaptions(t *testing.T) {
	sql := newStubSQL()
	app := newTestApp(t, sql)
	stubAssetRow(sql, domain.Asset{
		ID: "a1", JobID: "j1", Kind: domain.AssetKindImage,
		StorageKey: "jobs/j1/a1.png", MimeType: "image/png",
	})
	sql.rows[sqlinline.QInsertPost] = func(args ...any) SimpleRow {
		return NewSimpleRow(func(dest ...any) error {
			*(dest[0].(*string)) = "p-new"
			*(dest[1].(*time.Time)) = time.Now()
			return nil
		})
	}

	body := bytes.NewBufferString(`{"asset_id": "a1", "prompt": "weekend coffee sale", "caption_options": 3}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/posts", body)
	rec := httptest.NewRecorder()
	app.PostsCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got domain.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "p-new" {
		t.Fatalf("post id = %q", got.ID)
	}
	if len(got.Texts) != 3 {
		t.Fatalf("expected 3 caption options, got %d", len(got.Texts))
	}
}

func TestPostsCreateRejectsVideoAsset(t *testing.T) {
	sql := newStubSQL()
	app := newTestApp(t, sql)
	stubAssetRow(sql, domain.Asset{ID: "a2", Kind: domain.AssetKindVideo})

	body := bytes.NewBufferString(`{"asset_id": "a2"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/posts", body)
	rec := httptest.NewRecorder()
	app.PostsCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPostGetNotFound(t *testing.T) {
	sql := newStubSQL()
	app := newTestApp(t, sql)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/posts/missing", nil), "post_id", "missing")
	rec := httptest.NewRecorder()
	app.PostGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
