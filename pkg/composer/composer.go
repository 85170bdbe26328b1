package composer

import (
	"context"
	"fmt"
	"time"

	"truthkit/pkg/errors"
	"truthkit/pkg/logger"
	"truthkit/pkg/media"
	"truthkit/pkg/truthsocial"
)

// Visibility is the audience of a post.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
	VisibilityDirect   Visibility = "direct"
)

// MaxContentLength is the vendor's character limit for post content.
const MaxContentLength = 3000

// Draft is a post under composition. MediaIDs must reference assets that
// have reached the ready state; referencing anything else is a caller
// defect, not a retryable condition.
type Draft struct {
	Content              string
	Visibility           Visibility
	MediaIDs             []string
	InReplyToID          string
	QuoteID              string
	GroupID              string
	GroupTimelineVisible bool
	ContentType          string
	Poll                 *truthsocial.Poll
}

// Post is a submitted, immutable post as echoed back by the server.
type Post struct {
	ID         string
	URL        string
	Content    string
	Visibility Visibility
	CreatedAt  time.Time
	MediaIDs   []string
}

// submitter is the slice of the transport the composer needs.
type submitter interface {
	CreateStatus(ctx context.Context, req truthsocial.StatusRequest) (*truthsocial.Status, error)
}

// Composer validates drafts and submits them as statuses.
type Composer struct {
	api    submitter
	logger logger.Logger
}

// New creates a Composer.
func New(api submitter, log logger.Logger) *Composer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Composer{api: api, logger: log}
}

// validVisibilities is the recognized visibility enum.
var validVisibilities = map[Visibility]bool{
	VisibilityPublic:   true,
	VisibilityUnlisted: true,
	VisibilityPrivate:  true,
	VisibilityDirect:   true,
}

// Validate checks the draft against vendor constraints without touching the
// network.
func (c *Composer) Validate(draft Draft) error {
	if !validVisibilities[draft.Visibility] {
		return errors.ValidationError(fmt.Sprintf("invalid visibility %q", draft.Visibility))
	}
	if len(draft.Content) == 0 && len(draft.MediaIDs) == 0 && draft.Poll == nil {
		return errors.ValidationError("post content is empty and no media is attached")
	}
	if len(draft.Content) > MaxContentLength {
		return errors.ValidationError(
			fmt.Sprintf("post content is %d characters, limit is %d", len(draft.Content), MaxContentLength))
	}
	if len(draft.MediaIDs) > media.MaxAssetsPerPost {
		return errors.ValidationError(
			fmt.Sprintf("post references %d media attachments, limit is %d", len(draft.MediaIDs), media.MaxAssetsPerPost))
	}
	for _, id := range draft.MediaIDs {
		if id == "" {
			return errors.ValidationError("post references an empty media ID")
		}
	}
	return nil
}

// Submit validates the draft and submits it. The submission is never
// auto-resubmitted: an ambiguous transport outcome surfaces as an
// AmbiguousSubmissionError so the caller can check for a duplicate before
// retrying.
func (c *Composer) Submit(ctx context.Context, draft Draft) (*Post, error) {
	if err := c.Validate(draft); err != nil {
		return nil, err
	}

	contentType := draft.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	status, err := c.api.CreateStatus(ctx, truthsocial.StatusRequest{
		Status:               draft.Content,
		MediaIDs:             draft.MediaIDs,
		Visibility:           string(draft.Visibility),
		ContentType:          contentType,
		InReplyToID:          draft.InReplyToID,
		QuoteID:              draft.QuoteID,
		GroupID:              draft.GroupID,
		GroupTimelineVisible: draft.GroupTimelineVisible,
		Poll:                 draft.Poll,
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("post submitted", map[string]interface{}{
		"post_id":    status.ID,
		"url":        status.URL,
		"visibility": status.Visibility,
	})

	return &Post{
		ID:         status.ID,
		URL:        status.URL,
		Content:    status.Content,
		Visibility: Visibility(status.Visibility),
		CreatedAt:  status.CreatedAt,
		MediaIDs:   draft.MediaIDs,
	}, nil
}

// SubmitWithMedia uploads the sources through the pipeline, waits for all
// of them to reach ready, and submits the draft referencing them. The first
// upload failure cancels the remaining uploads and aborts the submission.
func (c *Composer) SubmitWithMedia(ctx context.Context, draft Draft, pipeline *media.Pipeline, sources []media.Source) (*Post, error) {
	assets, err := pipeline.UploadAll(ctx, sources)
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		draft.MediaIDs = append(draft.MediaIDs, asset.ID)
	}
	return c.Submit(ctx, draft)
}
