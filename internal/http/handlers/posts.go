package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/middleware"
	"studio/internal/providers/genai"
	"studio/internal/raster"
	"studio/internal/sqlinline"
)

type postCreateRequest struct {
	AssetID        string `json:"asset_id"`
	Prompt         string `json:"prompt"`
	CaptionOptions int    `json:"caption_options"`
}

// PostsCreate turns a generated asset into a post draft. When a prompt is
// given the caption suggester proposes text options; otherwise the post is
// image-only.
func (a *App) PostsCreate(w http.ResponseWriter, r *http.Request) {
	var req postCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.AssetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset_id required")
		return
	}

	asset, err := a.loadAsset(r.Context(), req.AssetID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	if asset.Kind != domain.AssetKindImage {
		a.error(w, http.StatusBadRequest, "bad_request", "posts need an image asset")
		return
	}

	var texts []domain.Caption
	if req.Prompt != "" {
		locale := middleware.LocaleFromContext(r.Context())
		texts, err = a.Captions.Suggest(r.Context(), req.Prompt, locale, req.CaptionOptions)
		if err != nil {
			if errors.Is(err, genai.ErrRateLimited) {
				a.error(w, http.StatusTooManyRequests, "rate_limited", "caption provider rate limited")
				return
			}
			a.Logger.Warn().Err(err).Msg("caption suggestion failed, creating image-only post")
			texts = nil
		}
	}

	textsJSON, err := json.Marshal(texts)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to encode captions")
		return
	}

	post := domain.Post{
		JobID:      asset.JobID,
		StorageKey: asset.StorageKey,
		MimeType:   asset.MimeType,
		Texts:      texts,
	}
	row := a.SQL.QueryRow(r.Context(), sqlinline.QInsertPost,
		asset.JobID, asset.StorageKey, asset.MimeType, textsJSON, 0)
	if err := row.Scan(&post.ID, &post.CreatedAt); err != nil {
		a.Logger.Error().Err(err).Msg("insert post failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create post")
		return
	}
	post.UpdatedAt = post.CreatedAt
	a.json(w, http.StatusCreated, post)
}

// PostsList returns post drafts, newest first.
func (a *App) PostsList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListPosts, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list posts failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list posts")
		return
	}
	defer rows.Close()

	items := make([]domain.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to read posts")
			return
		}
		items = append(items, post)
	}
	if err := rows.Err(); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to read posts")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// PostGet returns a single post draft.
func (a *App) PostGet(w http.ResponseWriter, r *http.Request) {
	post, ok := a.requirePost(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, post)
}

type captionCycleRequest struct {
	Delta int `json:"delta"`
}

// PostCaptionCycle advances the active caption option, wrapping around.
// A missing delta means one step forward.
func (a *App) PostCaptionCycle(w http.ResponseWriter, r *http.Request) {
	post, ok := a.requirePost(w, r)
	if !ok {
		return
	}

	var req captionCycleRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Delta == 0 {
		req.Delta = 1
	}

	post.CycleCaption(req.Delta)
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QUpdatePostCaptionIndex, post.ID, post.ActiveTextIndex); err != nil {
		a.Logger.Error().Err(err).Str("post_id", post.ID).Msg("update caption index failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update post")
		return
	}
	a.json(w, http.StatusOK, post)
}

type captionSelectRequest struct {
	Index int `json:"index"`
}

// PostCaptionSelect sets the active caption option by index.
func (a *App) PostCaptionSelect(w http.ResponseWriter, r *http.Request) {
	post, ok := a.requirePost(w, r)
	if !ok {
		return
	}

	var req captionSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Index < 0 || req.Index >= len(post.Texts) {
		a.error(w, http.StatusConflict, "invalid_caption_state", "caption index out of range")
		return
	}

	post.ActiveTextIndex = req.Index
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QUpdatePostCaptionIndex, post.ID, post.ActiveTextIndex); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to update post")
		return
	}
	a.json(w, http.StatusOK, post)
}

// PostDownload renders the final deliverable. A post with captions is
// flattened through the compositor into a PNG; an image-only post streams
// its stored bytes untouched.
func (a *App) PostDownload(w http.ResponseWriter, r *http.Request) {
	post, ok := a.requirePost(w, r)
	if !ok {
		return
	}

	data, err := a.Store.Read(r.Context(), post.StorageKey)
	if err != nil {
		a.Logger.Error().Err(err).Str("post_id", post.ID).Msg("post payload missing")
		a.error(w, http.StatusNotFound, "not_found", "post image missing")
		return
	}

	caption, hasCaption, err := post.ActiveCaption()
	if err != nil {
		a.error(w, http.StatusConflict, "invalid_caption_state", "caption index out of range")
		return
	}
	if !hasCaption {
		w.Header().Set("Content-Type", post.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=post-%s", post.ID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	rendered, err := a.Compositor.Compose(data, post.MimeType, caption)
	if err != nil {
		if errors.Is(err, domain.ErrDecode) {
			a.error(w, http.StatusUnprocessableEntity, "bad_image", "stored image cannot be decoded")
			return
		}
		a.Logger.Error().Err(err).Str("post_id", post.ID).Msg("compose failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to render post")
		return
	}

	w.Header().Set("Content-Type", raster.MimePNG)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=post-%s.png", post.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rendered)
}

func (a *App) requirePost(w http.ResponseWriter, r *http.Request) (*domain.Post, bool) {
	postID := chi.URLParam(r, "post_id")
	if postID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "post_id required")
		return nil, false
	}
	post, err := a.loadPost(r.Context(), postID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "post not found")
		return nil, false
	}
	return post, true
}

func (a *App) loadPost(ctx context.Context, postID string) (*domain.Post, error) {
	row := a.SQL.QueryRow(ctx, sqlinline.QSelectPostByID, postID)
	post, err := scanPost(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (domain.Post, error) {
	var post domain.Post
	var textsJSON []byte
	if err := row.Scan(&post.ID, &post.JobID, &post.StorageKey, &post.MimeType,
		&textsJSON, &post.ActiveTextIndex, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return domain.Post{}, err
	}
	if len(textsJSON) > 0 {
		if err := json.Unmarshal(textsJSON, &post.Texts); err != nil {
			return domain.Post{}, fmt.Errorf("decode post texts: %w", err)
		}
	}
	return post, nil
}

func (a *App) loadAsset(ctx context.Context, assetID string) (*domain.Asset, error) {
	row := a.SQL.QueryRow(ctx, sqlinline.QSelectAssetByID, assetID)
	var asset domain.Asset
	if err := row.Scan(&asset.ID, &asset.JobID, &asset.Kind, &asset.StorageKey,
		&asset.MimeType, &asset.Width, &asset.Height, &asset.Bytes, &asset.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
