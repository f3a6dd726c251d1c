package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for generated images
	_ "image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"doneby/internal/featureflags"
	"doneby/internal/gateway"
	"doneby/internal/observability"
	"doneby/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
)

const (
	thumbnailMaxSize     = 640
	thumbnailWebPQuality = 70
	thumbnailQueueSize   = 64
)

type thumbnailJob struct {
	entryID  uint
	planText string
}

// ThumbnailService generates illustrative thumbnails for new entries in the
// background. Generation is strictly best-effort: a failed or dropped job
// leaves the entry on the default video frame.
type ThumbnailService struct {
	entryRepo repository.EntryRepository
	generator gateway.ThumbnailGenerator
	storage   gateway.BlobStorage
	flags     *featureflags.Manager

	jobs       chan thumbnailJob
	httpClient *http.Client
	workerOnce sync.Once
}

// NewThumbnailService returns a thumbnail service. generator or storage being
// nil disables the pipeline; Enqueue becomes a no-op.
func NewThumbnailService(
	entryRepo repository.EntryRepository,
	generator gateway.ThumbnailGenerator,
	storage gateway.BlobStorage,
	flags *featureflags.Manager,
) *ThumbnailService {
	return &ThumbnailService{
		entryRepo:  entryRepo,
		generator:  generator,
		storage:    storage,
		flags:      flags,
		jobs:       make(chan thumbnailJob, thumbnailQueueSize),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StartBackgroundWorker launches the single worker goroutine. Safe to call
// more than once.
func (s *ThumbnailService) StartBackgroundWorker(ctx context.Context) {
	if s.generator == nil || s.storage == nil {
		return
	}
	s.workerOnce.Do(func() {
		go s.workerLoop(ctx)
	})
}

// Enqueue schedules thumbnail generation for a freshly-created entry. A full
// queue drops the job rather than blocking entry creation.
func (s *ThumbnailService) Enqueue(entryID uint, planText string) {
	if s.generator == nil || s.storage == nil {
		return
	}
	if s.flags != nil && !s.flags.Enabled(featureflags.FlagThumbnailGeneration, 0) {
		observability.ThumbnailJobs.WithLabelValues("skipped").Inc()
		return
	}
	select {
	case s.jobs <- thumbnailJob{entryID: entryID, planText: planText}:
	default:
		observability.ThumbnailJobs.WithLabelValues("dropped").Inc()
		slog.Warn("thumbnail queue full, dropping job", slog.Uint64("entry_id", uint64(entryID)))
	}
}

func (s *ThumbnailService) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			if err := s.process(ctx, job); err != nil {
				observability.ThumbnailJobs.WithLabelValues("failed").Inc()
				slog.Warn("thumbnail generation failed",
					slog.Uint64("entry_id", uint64(job.entryID)),
					slog.String("error", err.Error()))
				continue
			}
			observability.ThumbnailJobs.WithLabelValues("success").Inc()
		}
	}
}

func (s *ThumbnailService) process(ctx context.Context, job thumbnailJob) error {
	raw, err := s.generator.Generate(ctx, job.planText)
	if err != nil {
		return err
	}

	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decoding generated image: %w", err)
	}

	resized := resizeToFit(decoded, thumbnailMaxSize, thumbnailMaxSize)
	encoded, err := encodeWebP(resized, thumbnailWebPQuality)
	if err != nil {
		return fmt.Errorf("encoding webp: %w", err)
	}

	ticket, err := s.storage.PresignUpload(fmt.Sprintf("thumb-%d.webp", job.entryID), "image/webp")
	if err != nil {
		return err
	}
	if err := s.upload(ctx, ticket.UploadURL, encoded); err != nil {
		return err
	}

	return s.entryRepo.UpdateFields(ctx, job.entryID, map[string]any{
		"thumbnail_key": ticket.StorageKey,
	})
}

func (s *ThumbnailService) upload(ctx context.Context, uploadURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "image/webp")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("thumbnail upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("thumbnail upload returned status %d", resp.StatusCode)
	}
	return nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
