package media

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"truthkit/pkg/config"
	"truthkit/pkg/errors"
	"truthkit/pkg/logger"
	"truthkit/pkg/retry"
	"truthkit/pkg/truthsocial"
)

// State is the upload lifecycle state of an asset.
type State string

const (
	StateUploading  State = "uploading"
	StateProcessing State = "processing"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// MaxAssetsPerPost is the vendor's attachment limit per status.
const MaxAssetsPerPost = 4

// supportedTypes is the vendor-supported media content-type set, keyed by
// file extension.
var supportedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

// Source describes a media file to upload: either a path on disk or an
// in-memory buffer with a name.
type Source struct {
	Path        string
	Data        []byte
	Name        string
	ContentType string
}

// Asset is a media attachment moving through the upload state machine.
// Once it reaches StateReady its ID may be referenced by a post; a failed
// asset is discarded and never reused.
type Asset struct {
	ID          string
	State       State
	Name        string
	ContentType string
	URL         string
	PreviewURL  string
}

// uploader is the slice of the transport the pipeline needs.
type uploader interface {
	UploadMedia(ctx context.Context, fileName string, data []byte, contentType string) (*truthsocial.Media, int, error)
	MediaStatus(ctx context.Context, mediaID string) (*truthsocial.Media, int, error)
}

// Pipeline drives uploads through uploading → processing → ready|failed.
type Pipeline struct {
	api         uploader
	pollBackoff *retry.LinearBackoff
	maxPolls    int
	maxFileSize int64
	logger      logger.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPipeline creates an upload pipeline.
func NewPipeline(api uploader, cfg config.MediaConfig, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		api: api,
		pollBackoff: &retry.LinearBackoff{
			BaseDelay: cfg.PollInterval,
			Increment: cfg.PollIncrement,
		},
		maxPolls:    cfg.MaxPolls,
		maxFileSize: cfg.MaxFileSize,
		logger:      log,
	}
}

// Upload validates the source, uploads it, and polls until the asset is
// ready. Validation failures are fatal and never retried; transport
// failures during upload follow the session's retry rules.
func (p *Pipeline) Upload(ctx context.Context, src Source) (*Asset, error) {
	name, data, contentType, err := p.resolve(src)
	if err != nil {
		return nil, err
	}

	asset := &Asset{
		State:       StateUploading,
		Name:        name,
		ContentType: contentType,
	}

	p.logger.DebugWithFields("uploading media", map[string]interface{}{
		"file":         name,
		"content_type": contentType,
		"size":         len(data),
	})

	media, code, err := p.api.UploadMedia(ctx, name, data, contentType)
	if err != nil {
		asset.State = StateFailed
		return nil, err
	}

	asset.ID = media.ID
	asset.URL = media.URL
	asset.PreviewURL = media.PreviewURL

	if media.Failed() {
		asset.State = StateFailed
		return nil, errors.MediaProcessingError(media.ID, media.ErrorMessage)
	}
	if code == http.StatusOK && media.Ready() {
		asset.State = StateReady
		p.logger.InfoWithFields("media ready", map[string]interface{}{
			"media_id": asset.ID,
			"file":     name,
		})
		return asset, nil
	}

	asset.State = StateProcessing
	return p.poll(ctx, asset)
}

// poll checks the asset's processing state with linearly increasing backoff
// until it resolves. An asset still processing after the poll cap resolves
// to failed, never silently ready.
func (p *Pipeline) poll(ctx context.Context, asset *Asset) (*Asset, error) {
	sleep := p.sleep
	if sleep == nil {
		sleep = retry.Wait
	}

	for attempt := 1; attempt <= p.maxPolls; attempt++ {
		if err := sleep(ctx, p.pollBackoff.NextDelay(attempt)); err != nil {
			asset.State = StateFailed
			return nil, err
		}

		media, code, err := p.api.MediaStatus(ctx, asset.ID)
		if err != nil {
			asset.State = StateFailed
			return nil, err
		}

		p.logger.DebugWithFields("media poll", map[string]interface{}{
			"media_id": asset.ID,
			"attempt":  attempt,
			"status":   code,
		})

		if media.Failed() {
			asset.State = StateFailed
			return nil, errors.MediaProcessingError(asset.ID, media.ErrorMessage)
		}
		if code == http.StatusOK && media.Ready() {
			asset.State = StateReady
			asset.URL = media.URL
			asset.PreviewURL = media.PreviewURL
			p.logger.InfoWithFields("media ready", map[string]interface{}{
				"media_id": asset.ID,
				"polls":    attempt,
			})
			return asset, nil
		}
	}

	asset.State = StateFailed
	return nil, errors.MediaProcessingError(asset.ID,
		fmt.Sprintf("still processing after %d polls", p.maxPolls))
}

// UploadAll uploads the sources concurrently, each with its own poll loop.
// The first failure cancels the outstanding uploads and is returned; on
// success the assets are returned in source order.
func (p *Pipeline) UploadAll(ctx context.Context, sources []Source) ([]*Asset, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	if len(sources) > MaxAssetsPerPost {
		return nil, errors.ValidationError(
			fmt.Sprintf("too many media files: %d exceeds the limit of %d per post", len(sources), MaxAssetsPerPost))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	assets := make([]*Asset, len(sources))
	errCh := make(chan error, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			asset, err := p.Upload(ctx, src)
			if err != nil {
				errCh <- err
				cancel()
				return
			}
			assets[i] = asset
		}(i, src)
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	return assets, nil
}

// resolve validates the source and returns its name, bytes, and content
// type. File-not-found and unsupported types are caller defects.
func (p *Pipeline) resolve(src Source) (string, []byte, string, error) {
	name := src.Name
	data := src.Data

	if src.Path != "" {
		name = filepath.Base(src.Path)
		info, err := os.Stat(src.Path)
		if err != nil {
			return "", nil, "", errors.ValidationError(fmt.Sprintf("media file not found: %s", src.Path))
		}
		if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
			return "", nil, "", errors.ValidationError(
				fmt.Sprintf("media file %s exceeds the %d byte limit", src.Path, p.maxFileSize))
		}
		data, err = os.ReadFile(src.Path)
		if err != nil {
			return "", nil, "", errors.ValidationError(fmt.Sprintf("failed to read media file: %v", err))
		}
	}

	if len(data) == 0 {
		return "", nil, "", errors.ValidationError("media source is empty")
	}
	if p.maxFileSize > 0 && int64(len(data)) > p.maxFileSize {
		return "", nil, "", errors.ValidationError(
			fmt.Sprintf("media %s exceeds the %d byte limit", name, p.maxFileSize))
	}

	contentType := src.ContentType
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(name))
		contentType = supportedTypes[ext]
	}
	if !isSupportedType(contentType) {
		return "", nil, "", errors.ValidationError(
			fmt.Sprintf("unsupported media type for %s", name))
	}

	return name, data, contentType, nil
}

func isSupportedType(contentType string) bool {
	for _, t := range supportedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}
