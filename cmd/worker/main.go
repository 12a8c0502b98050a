package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/providers/genai"
	"studio/internal/providers/image"
	videoprovider "studio/internal/providers/video"
	"studio/internal/raster"
	"studio/internal/sqlinline"
	"studio/internal/storage"
)

const rateLimitBackoff = 30 * time.Second

type jobWorker struct {
	ctx      context.Context
	runner   *infra.SQLRunner
	logger   infra.Logger
	images   image.Generator
	videos   videoprovider.Generator
	store    *storage.FileStore
	pollWait time.Duration
}

var errNoJobAvailable = errors.New("no job available")

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	geminiClient, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure gemini client")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn().Str("model", geminiClient.Model()).Msg("worker: gemini api key missing, using synthetic asset generation")
	}

	worker := &jobWorker{
		ctx:      ctx,
		runner:   runner,
		logger:   logger,
		images:   image.NewGeminiGenerator(geminiClient),
		videos:   videoprovider.NewVeo(geminiClient),
		store:    fileStore,
		pollWait: cfg.WorkerPollEvery,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		j, err := w.claimJob()
		if err != nil {
			if errors.Is(err, errNoJobAvailable) {
				w.sleep(w.pollWait)
				continue
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim job")
			w.sleep(w.pollWait)
			continue
		}

		w.handleJob(j)
	}
}

func (w *jobWorker) sleep(d time.Duration) {
	select {
	case <-w.ctx.Done():
	case <-time.After(d):
	}
}

func (w *jobWorker) claimJob() (domain.Job, error) {
	row := w.runner.QueryRow(w.ctx, sqlinline.QClaimNextJob)
	var j domain.Job
	if err := row.Scan(&j.ID, &j.Type, &j.PromptJSON, &j.Quantity, &j.AspectRatio, &j.Provider); err != nil {
		if infra.IsNoRows(err) {
			return domain.Job{}, errNoJobAvailable
		}
		return domain.Job{}, err
	}
	// Prompt bytes from pgx alias the row buffer.
	j.PromptJSON = append([]byte(nil), j.PromptJSON...)
	return j, nil
}

func (w *jobWorker) handleJob(j domain.Job) {
	w.logger.Info().Str("job_id", j.ID).Str("task_type", string(j.Type)).Msg("worker: picked job")
	err := w.dispatch(j)
	if err == nil {
		if _, execErr := w.runner.Exec(w.ctx, sqlinline.QMarkJobSucceeded, j.ID); execErr != nil {
			w.logger.Error().Err(execErr).Str("job_id", j.ID).Msg("worker: mark succeeded failed")
		}
		return
	}

	w.logger.Error().Err(err).Str("job_id", j.ID).Msg("worker: job failed")
	if _, execErr := w.runner.Exec(w.ctx, sqlinline.QMarkJobFailed, j.ID, err.Error()); execErr != nil {
		w.logger.Error().Err(execErr).Str("job_id", j.ID).Msg("worker: mark failed failed")
	}
	if errors.Is(err, genai.ErrRateLimited) {
		w.logger.Warn().Dur("backoff", rateLimitBackoff).Msg("worker: provider rate limited, backing off")
		w.sleep(rateLimitBackoff)
	}
}

func (w *jobWorker) dispatch(j domain.Job) error {
	switch j.Type {
	case domain.JobTypeImageGenerate, domain.JobTypeImageEdit:
		return w.processImageJob(j)
	case domain.JobTypeVideoGenerate:
		return w.processVideoJob(j)
	default:
		return fmt.Errorf("unsupported job type %q", j.Type)
	}
}

func (w *jobWorker) processImageJob(j domain.Job) error {
	var prompt domain.Prompt
	if err := json.Unmarshal(j.PromptJSON, &prompt); err != nil {
		return fmt.Errorf("decode image prompt: %w", err)
	}

	req := image.GenerateRequest{
		Prompt:      prompt.Text,
		Quantity:    j.Quantity,
		AspectRatio: j.AspectRatio,
		Locale:      prompt.Locale,
		RequestID:   j.ID,
	}
	if j.Type == domain.JobTypeImageEdit {
		source, err := w.loadReference(prompt.Reference)
		if err != nil {
			return err
		}
		req.Source = source
	}

	assets, err := w.images.Generate(w.ctx, req)
	if err != nil {
		return fmt.Errorf("image generation: %w", err)
	}
	for idx, asset := range assets {
		if err := w.persistAsset(j, asset, idx); err != nil {
			return err
		}
	}
	return nil
}

func (w *jobWorker) processVideoJob(j domain.Job) error {
	var prompt domain.Prompt
	if err := json.Unmarshal(j.PromptJSON, &prompt); err != nil {
		return fmt.Errorf("decode video prompt: %w", err)
	}

	asset, err := w.videos.Generate(w.ctx, videoprovider.GenerateRequest{
		Prompt:    prompt.Text,
		Locale:    prompt.Locale,
		RequestID: j.ID,
	})
	if err != nil {
		return fmt.Errorf("video generation: %w", err)
	}
	return w.persistAsset(j, *asset, 0)
}

func (w *jobWorker) loadReference(ref *domain.ReferenceImage) (*image.SourceImage, error) {
	if ref == nil {
		return nil, fmt.Errorf("edit job without reference image")
	}
	if ref.DataBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(ref.DataBase64)
		if err != nil {
			return nil, fmt.Errorf("decode reference image: %w", err)
		}
		return &image.SourceImage{MimeType: ref.MimeType, Data: data}, nil
	}
	if ref.AssetID == "" {
		return nil, fmt.Errorf("reference image needs asset_id or inline data")
	}

	row := w.runner.QueryRow(w.ctx, sqlinline.QSelectAssetByID, ref.AssetID)
	var asset domain.Asset
	if err := row.Scan(&asset.ID, &asset.JobID, &asset.Kind, &asset.StorageKey,
		&asset.MimeType, &asset.Width, &asset.Height, &asset.Bytes, &asset.CreatedAt); err != nil {
		return nil, fmt.Errorf("load reference asset: %w", err)
	}
	data, err := w.store.Read(w.ctx, asset.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read reference payload: %w", err)
	}
	return &image.SourceImage{AssetID: asset.ID, MimeType: asset.MimeType, Data: data}, nil
}

func (w *jobWorker) persistAsset(j domain.Job, asset domain.GeneratedAsset, idx int) error {
	if len(asset.Data) == 0 {
		return fmt.Errorf("generated asset %d has no payload", idx)
	}

	ext := extensionFor(asset.MimeType)
	key := fmt.Sprintf("jobs/%s/%d%s", j.ID, idx, ext)
	if _, err := w.store.Write(w.ctx, key, asset.Data); err != nil {
		return fmt.Errorf("store asset: %w", err)
	}

	width, height := asset.Width, asset.Height
	if asset.Kind == domain.AssetKindImage && (width == 0 || height == 0) {
		width, height = raster.Dimensions(asset.Data)
	}

	var id string
	row := w.runner.QueryRow(w.ctx, sqlinline.QInsertAsset,
		j.ID, string(asset.Kind), key, asset.MimeType, width, height, int64(len(asset.Data)))
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	w.logger.Info().Str("job_id", j.ID).Str("asset_id", id).Str("storage_key", key).Msg("worker: asset stored")
	return nil
}

func extensionFor(mime string) string {
	switch mime {
	case raster.MimePNG:
		return ".png"
	case raster.MimeJPEG:
		return ".jpg"
	case raster.MimeGIF:
		return ".gif"
	case "video/mp4":
		return ".mp4"
	default:
		return ""
	}
}
