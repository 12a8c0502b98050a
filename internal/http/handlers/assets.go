package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AssetGet returns asset metadata.
func (a *App) AssetGet(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset_id")
	if assetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset_id required")
		return
	}
	asset, err := a.loadAsset(r.Context(), assetID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":          asset.ID,
		"job_id":      asset.JobID,
		"kind":        asset.Kind,
		"storage_key": asset.StorageKey,
		"mime":        asset.MimeType,
		"width":       asset.Width,
		"height":      asset.Height,
		"bytes":       asset.Bytes,
		"created_at":  asset.CreatedAt,
	})
}

// AssetDownload streams the stored asset payload.
func (a *App) AssetDownload(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset_id")
	if assetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset_id required")
		return
	}
	asset, err := a.loadAsset(r.Context(), assetID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	data, err := a.Store.Read(r.Context(), asset.StorageKey)
	if err != nil {
		a.Logger.Error().Err(err).Str("asset_id", asset.ID).Msg("asset payload missing")
		a.error(w, http.StatusNotFound, "not_found", "asset payload missing")
		return
	}
	w.Header().Set("Content-Type", asset.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=asset-%s", asset.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
