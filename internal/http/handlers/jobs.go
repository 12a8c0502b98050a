package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/middleware"
	"studio/internal/sqlinline"
	"studio/pkg/zip"
)

type jobEnqueueRequest struct {
	TaskType    string        `json:"task_type"`
	Prompt      domain.Prompt `json:"prompt"`
	Quantity    int           `json:"quantity"`
	AspectRatio string        `json:"aspect_ratio"`
	Provider    string        `json:"provider"`
}

type jobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

const maxJobQuantity = 4

// JobsEnqueue queues an image or video generation job for the worker.
func (a *App) JobsEnqueue(w http.ResponseWriter, r *http.Request) {
	var req jobEnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	taskType := domain.JobType(req.TaskType)
	switch taskType {
	case domain.JobTypeImageGenerate, domain.JobTypeImageEdit, domain.JobTypeVideoGenerate:
	case "":
		taskType = domain.JobTypeImageGenerate
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported task type")
		return
	}

	if req.Prompt.Text == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt text required")
		return
	}
	if taskType == domain.JobTypeImageEdit && req.Prompt.Reference == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "edit jobs need a reference image")
		return
	}

	if req.Prompt.Locale == "" {
		req.Prompt.Locale = middleware.LocaleFromContext(r.Context())
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = req.Prompt.Quantity
	}
	if quantity <= 0 {
		quantity = 1
	}
	if quantity > maxJobQuantity {
		quantity = maxJobQuantity
	}
	req.Prompt.Quantity = quantity
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = req.Prompt.AspectRatio
	}
	if aspect == "" {
		aspect = "1:1"
	}
	provider := req.Provider
	if provider == "" {
		provider = "gemini"
	}

	promptBytes, err := json.Marshal(req.Prompt)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid prompt")
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QEnqueueJob, string(taskType), promptBytes, quantity, aspect, provider)
	var jobID string
	if err := row.Scan(&jobID); err != nil {
		a.Logger.Error().Err(err).Msg("enqueue job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{JobID: jobID, Status: string(domain.JobStatusQueued)})
}

// JobStatus reports the lifecycle state of a single job.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.loadJob(r.Context(), jobID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":           job.ID,
		"task_type":    job.Type,
		"status":       job.Status,
		"prompt":       json.RawMessage(job.PromptJSON),
		"quantity":     job.Quantity,
		"aspect_ratio": job.AspectRatio,
		"provider":     job.Provider,
		"error":        job.ErrorMessage,
		"created_at":   job.CreatedAt,
		"updated_at":   job.UpdatedAt,
	})
}

// JobAssets lists the assets produced by a finished job.
func (a *App) JobAssets(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	if _, err := a.loadJob(r.Context(), jobID); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	assets, err := a.loadJobAssets(r.Context(), jobID)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("load job assets failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	items := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		items = append(items, map[string]any{
			"id":          asset.ID,
			"kind":        asset.Kind,
			"storage_key": asset.StorageKey,
			"mime":        asset.MimeType,
			"width":       asset.Width,
			"height":      asset.Height,
			"bytes":       asset.Bytes,
			"created_at":  asset.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// JobZip streams every asset of a job as a single zip archive.
func (a *App) JobZip(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	if _, err := a.loadJob(r.Context(), jobID); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	assets, err := a.loadJobAssets(r.Context(), jobID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	entries := make([]zip.Asset, 0, len(assets))
	for _, asset := range assets {
		data, err := a.Store.Read(r.Context(), asset.StorageKey)
		if err != nil {
			a.Logger.Warn().Err(err).Str("asset_id", asset.ID).Msg("zip: asset payload missing")
			continue
		}
		entries = append(entries, zip.Asset{
			Filename: fmt.Sprintf("%s-%s", jobID, asset.ID),
			MIME:     asset.MimeType,
			Data:     data,
		})
	}
	archive := zip.ArchiveAssets(entries)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=job-%s.zip", jobID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) loadJob(ctx context.Context, jobID string) (*domain.Job, error) {
	row := a.SQL.QueryRow(ctx, sqlinline.QSelectJobByID, jobID)
	var job domain.Job
	if err := row.Scan(&job.ID, &job.Type, &job.Status, &job.PromptJSON, &job.Quantity,
		&job.AspectRatio, &job.Provider, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (a *App) loadJobAssets(ctx context.Context, jobID string) ([]domain.Asset, error) {
	rows, err := a.SQL.Query(ctx, sqlinline.QSelectJobAssets, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		asset := domain.Asset{JobID: jobID}
		var createdAt time.Time
		if err := rows.Scan(&asset.ID, &asset.Kind, &asset.StorageKey, &asset.MimeType,
			&asset.Width, &asset.Height, &asset.Bytes, &createdAt); err != nil {
			return nil, err
		}
		asset.CreatedAt = createdAt
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}
