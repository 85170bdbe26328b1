package media

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truthkit/pkg/config"
	"truthkit/pkg/errors"
	"truthkit/pkg/logger"
	"truthkit/pkg/truthsocial"
)

// mockUploader scripts the transport responses for one asset at a time.
type mockUploader struct {
	mu sync.Mutex

	uploadMedia *truthsocial.Media
	uploadCode  int
	uploadErr   error

	// polls are consumed in order; the last entry repeats
	polls    []pollResult
	pollIdx  int
	uploads  int
	statuses int
}

type pollResult struct {
	media truthsocial.Media
	code  int
	err   error
}

func (m *mockUploader) UploadMedia(ctx context.Context, fileName string, data []byte, contentType string) (*truthsocial.Media, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	return m.uploadMedia, m.uploadCode, m.uploadErr
}

func (m *mockUploader) MediaStatus(ctx context.Context, mediaID string) (*truthsocial.Media, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses++
	if len(m.polls) == 0 {
		return &truthsocial.Media{ID: mediaID}, http.StatusPartialContent, nil
	}
	result := m.polls[m.pollIdx]
	if m.pollIdx < len(m.polls)-1 {
		m.pollIdx++
	}
	return &result.media, result.code, result.err
}

func testMediaConfig() config.MediaConfig {
	return config.MediaConfig{
		PollInterval:  time.Second,
		PollIncrement: time.Second,
		MaxPolls:      5,
		MaxFileSize:   1 << 20,
	}
}

// newTestPipeline records poll sleeps instead of waiting them out.
func newTestPipeline(api uploader) (*Pipeline, *[]time.Duration) {
	p := NewPipeline(api, testMediaConfig(), logger.NewTestLogger())
	sleeps := &[]time.Duration{}
	p.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return ctx.Err()
	}
	return p, sleeps
}

func jpegSource() Source {
	return Source{Name: "photo.jpg", Data: []byte{0xff, 0xd8, 0xff}}
}

func TestUploadImmediatelyReady(t *testing.T) {
	api := &mockUploader{
		uploadMedia: &truthsocial.Media{ID: "m1", URL: "https://cdn/m1.jpg"},
		uploadCode:  http.StatusOK,
	}
	p, sleeps := newTestPipeline(api)

	asset, err := p.Upload(context.Background(), jpegSource())
	require.NoError(t, err)
	assert.Equal(t, StateReady, asset.State)
	assert.Equal(t, "m1", asset.ID)
	assert.Equal(t, "https://cdn/m1.jpg", asset.URL)

	// a 200 with a URL never enters the poll loop
	assert.Equal(t, 0, api.statuses)
	assert.Empty(t, *sleeps)
}

func TestUploadPollsUntilReady(t *testing.T) {
	api := &mockUploader{
		uploadMedia: &truthsocial.Media{ID: "m2"},
		uploadCode:  http.StatusAccepted,
		polls: []pollResult{
			{media: truthsocial.Media{ID: "m2"}, code: http.StatusPartialContent},
			{media: truthsocial.Media{ID: "m2"}, code: http.StatusPartialContent},
			{media: truthsocial.Media{ID: "m2", URL: "https://cdn/m2.mp4"}, code: http.StatusOK},
		},
	}
	p, sleeps := newTestPipeline(api)

	asset, err := p.Upload(context.Background(), Source{Name: "clip.mp4", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, StateReady, asset.State)
	assert.Equal(t, 3, api.statuses)

	// linear backoff: each wait is longer than the previous
	require.Len(t, *sleeps, 3)
	assert.Equal(t, 1*time.Second, (*sleeps)[0])
	assert.Equal(t, 2*time.Second, (*sleeps)[1])
	assert.Equal(t, 3*time.Second, (*sleeps)[2])
}

func TestUploadPollExhaustionFails(t *testing.T) {
	api := &mockUploader{
		uploadMedia: &truthsocial.Media{ID: "m3"},
		uploadCode:  http.StatusAccepted,
	}
	p, _ := newTestPipeline(api)

	_, err := p.Upload(context.Background(), jpegSource())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindMediaProcessing))
	assert.Equal(t, testMediaConfig().MaxPolls, api.statuses)
}

func TestUploadProcessingFailureFails(t *testing.T) {
	api := &mockUploader{
		uploadMedia: &truthsocial.Media{ID: "m4"},
		uploadCode:  http.StatusAccepted,
		polls: []pollResult{
			{media: truthsocial.Media{ID: "m4", ProcessingState: "failed", ErrorMessage: "transcode error"}, code: http.StatusOK},
		},
	}
	p, _ := newTestPipeline(api)

	_, err := p.Upload(context.Background(), jpegSource())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindMediaProcessing))
	assert.Contains(t, err.Error(), "transcode error")
	assert.Equal(t, 1, api.statuses)
}

func TestUploadValidationIsFatal(t *testing.T) {
	api := &mockUploader{}
	p, _ := newTestPipeline(api)

	cases := []struct {
		name string
		src  Source
	}{
		{"missing file", Source{Path: "/nonexistent/photo.jpg"}},
		{"empty data", Source{Name: "photo.jpg"}},
		{"unsupported type", Source{Name: "doc.pdf", Data: []byte{1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Upload(context.Background(), tc.src)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}

	// validation failures never reach the network
	assert.Equal(t, 0, api.uploads)
}

func TestUploadOversizeFileRejected(t *testing.T) {
	api := &mockUploader{}
	p, _ := newTestPipeline(api)
	p.maxFileSize = 4

	_, err := p.Upload(context.Background(), Source{Name: "big.jpg", Data: []byte{1, 2, 3, 4, 5}})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, api.uploads)
}

func TestUploadResolvesFileFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0o644))

	api := &mockUploader{
		uploadMedia: &truthsocial.Media{ID: "m5", URL: "https://cdn/m5.png"},
		uploadCode:  http.StatusOK,
	}
	p, _ := newTestPipeline(api)

	asset, err := p.Upload(context.Background(), Source{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "photo.png", asset.Name)
	assert.Equal(t, "image/png", asset.ContentType)
}

func TestUploadAllPreservesSourceOrder(t *testing.T) {
	api := &mockUploader{
		uploadMedia: &truthsocial.Media{ID: "same", URL: "https://cdn/x.jpg"},
		uploadCode:  http.StatusOK,
	}
	p, _ := newTestPipeline(api)

	sources := []Source{
		{Name: "a.jpg", Data: []byte{1}},
		{Name: "b.jpg", Data: []byte{2}},
		{Name: "c.jpg", Data: []byte{3}},
	}
	assets, err := p.UploadAll(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, "a.jpg", assets[0].Name)
	assert.Equal(t, "b.jpg", assets[1].Name)
	assert.Equal(t, "c.jpg", assets[2].Name)
}

func TestUploadAllRejectsTooManySources(t *testing.T) {
	api := &mockUploader{}
	p, _ := newTestPipeline(api)

	sources := make([]Source, MaxAssetsPerPost+1)
	for i := range sources {
		sources[i] = jpegSource()
	}
	_, err := p.UploadAll(context.Background(), sources)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, api.uploads)
}

func TestUploadAllFirstFailureWins(t *testing.T) {
	api := &mockUploader{
		uploadMedia: &truthsocial.Media{ID: "ok", URL: "https://cdn/ok.jpg"},
		uploadCode:  http.StatusOK,
	}
	p, _ := newTestPipeline(api)

	sources := []Source{
		jpegSource(),
		{Name: "doc.pdf", Data: []byte{1}},
	}
	_, err := p.UploadAll(context.Background(), sources)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestUploadAllEmptyIsNoop(t *testing.T) {
	api := &mockUploader{}
	p, _ := newTestPipeline(api)

	assets, err := p.UploadAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, assets)
	assert.Equal(t, 0, api.uploads)
}
