package truthsocial

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"truthkit/pkg/config"
	"truthkit/pkg/errors"
	"truthkit/pkg/logger"
	"truthkit/pkg/ratelimit"
	"truthkit/pkg/retry"
)

// Request describes one API call. Idempotent requests (GETs) may be blindly
// retried; non-idempotent ones are only retried when the failure provably
// preceded body processing.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// JSON, when non-nil, is marshaled as the request body.
	JSON interface{}

	// File, when non-nil, is sent as a multipart form body.
	File *FileUpload

	Idempotent     bool
	IdempotencyKey string
}

// FileUpload is a multipart file body.
type FileUpload struct {
	FieldName   string
	FileName    string
	ContentType string
	Data        []byte
}

// Response is the raw result of an executed request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Session owns one authenticated connection to the API: the bearer
// credential, the base endpoint, and the mutable rate-limit state. The
// transport is the only mutator of that state.
type Session struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	headers     map[string]string
	rateState   *ratelimit.State
	pacer       *ratelimit.Pacer
	backoff     retry.BackoffStrategy
	maxAttempts int
	logger      logger.Logger

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewSession creates an authenticated session.
func NewSession(token string, cfg *config.Config, log logger.Logger) (*Session, error) {
	if token == "" {
		return nil, errors.ValidationError("bearer token is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Session{
		httpClient: &http.Client{
			Timeout: cfg.API.RequestTimeout,
		},
		baseURL: cfg.API.BaseURL,
		token:   token,
		headers: map[string]string{
			"Accept":     "*/*",
			"User-Agent": cfg.API.UserAgent,
			"Origin":     "https://truthsocial.com",
			"Referer":    "https://truthsocial.com",
		},
		rateState: ratelimit.NewState(),
		pacer:     ratelimit.NewPacer(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window),
		backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.RateLimit.RetryBaseDelay,
			MaxDelay:     cfg.RateLimit.RetryMaxDelay,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		maxAttempts: cfg.RateLimit.MaxRetries,
		logger:      log,
		sleep:       retry.Wait,
		now:         time.Now,
	}, nil
}

// SetHeader sets a custom header sent on every request.
func (s *Session) SetHeader(key, value string) {
	s.headers[key] = value
}

// RateLimit returns the latest committed rate-limit snapshot.
func (s *Session) RateLimit() ratelimit.Snapshot {
	return s.rateState.Get()
}

// Execute performs the request with retry and backoff. 429 and 5xx
// responses and network failures are retried up to the configured cap;
// 401/403 fail immediately. Rate-limit state is updated from response
// headers on every response regardless of status.
func (s *Session) Execute(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	var lastHeader http.Header
	only429 := true

	maxAttempts := s.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := s.backoff.NextDelay(attempt - 1)
			// Honor a server-supplied retry instant when it is later than
			// the computed backoff.
			if wait := s.serverWait(lastErr, lastHeader); wait > delay {
				delay = wait
			}
			s.logger.WarnWithFields("retrying request", map[string]interface{}{
				"method":   req.Method,
				"path":     req.Path,
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
				"error":    lastErr.Error(),
			})
			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := s.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := s.doOnce(ctx, req)
		if err == nil {
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// An ambiguous write must never be resubmitted by the transport,
		// even though its cause unwraps to a retryable kind. The caller
		// decides, armed with the idempotency key.
		if errors.IsAmbiguous(err) {
			return nil, err
		}

		var apiErr *errors.Error
		if stderrors.As(err, &apiErr) {
			if apiErr.Kind != errors.KindRateLimit {
				only429 = false
			}
			if !errors.IsRetryable(apiErr.Kind) {
				return nil, err
			}
		} else {
			// Anything unclassified goes straight to the caller.
			return nil, err
		}

		lastErr = err
		if resp != nil {
			lastHeader = resp.Header
		} else {
			lastHeader = nil
		}
	}

	if only429 {
		return nil, errors.RateLimitError(lastErr,
			fmt.Sprintf("rate limit retries exhausted after %d attempts", maxAttempts))
	}
	return nil, errors.TransportError(statusCodeOf(lastErr), lastErr,
		fmt.Sprintf("retries exhausted after %d attempts", maxAttempts))
}

// doOnce performs a single request/response cycle and classifies the result.
func (s *Session) doOnce(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := s.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := s.now()
	s.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": httpReq.Method,
		"url":    httpReq.URL.String(),
	})

	httpResp, err := s.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		s.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   httpReq.Method,
			"url":      httpReq.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// A connection that never opened cannot have processed the body, so
		// even non-idempotent requests are safe to retry. Anything after
		// that is ambiguous for writes.
		if !req.Idempotent && !connectionNeverOpened(err) {
			return nil, &errors.AmbiguousSubmissionError{
				IdempotencyKey: req.IdempotencyKey,
				Err:            err,
			}
		}
		return nil, errors.Wrap(errors.KindTransport, 0, err, "network error")
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.KindTransport, httpResp.StatusCode, err, "failed to read response body")
	}

	// Rate-limit headers arrive on every response, including errors.
	s.rateState.Update(httpResp.Header)

	s.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   httpReq.Method,
		"url":      httpReq.URL.String(),
		"status":   httpResp.StatusCode,
		"duration": duration,
	})

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}

	// The response travels with the classification error so the retry loop
	// can read Retry-After from the failed attempt.
	if err := s.classify(resp, req); err != nil {
		return resp, err
	}
	return resp, nil
}

// classify maps a non-2xx response to the error taxonomy.
func (s *Session) classify(resp *Response, req Request) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.AuthError(code, bodyPreview(resp.Body))
	case code == http.StatusNotFound:
		return errors.New(errors.KindNotFound, code, "resource not found")
	case code == http.StatusUnprocessableEntity:
		return errors.New(errors.KindValidation, code, bodyPreview(resp.Body))
	case code == http.StatusTooManyRequests:
		return errors.New(errors.KindRateLimit, code, "rate limit exceeded")
	case code >= 500:
		// A 5xx to a write means the server may or may not have processed
		// the body; the caller decides whether to resubmit.
		if !req.Idempotent {
			return &errors.AmbiguousSubmissionError{
				IdempotencyKey: req.IdempotencyKey,
				Err:            errors.New(errors.KindTransport, code, "server error"),
			}
		}
		return errors.New(errors.KindTransport, code, "server error")
	default:
		return errors.New(errors.KindUnknown, code, fmt.Sprintf("unexpected status code: %d", code))
	}
}

func (s *Session) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := s.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""

	switch {
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, errors.Wrap(errors.KindValidation, 0, err, "failed to encode request body")
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case req.File != nil:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile(req.File.FieldName, req.File.FileName)
		if err != nil {
			return nil, errors.Wrap(errors.KindValidation, 0, err, "failed to build multipart body")
		}
		if _, err := part.Write(req.File.Data); err != nil {
			return nil, errors.Wrap(errors.KindValidation, 0, err, "failed to write multipart body")
		}
		if err := w.Close(); err != nil {
			return nil, errors.Wrap(errors.KindValidation, 0, err, "failed to finish multipart body")
		}
		body = &buf
		contentType = w.FormDataContentType()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, errors.Wrap(errors.KindValidation, 0, err, "failed to create request")
	}

	for key, value := range s.headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.token)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	return httpReq, nil
}

// serverWait extracts how long the server asked us to hold off. Retry-After
// on the failed response applies to any retryable status; the tracked
// X-RateLimit-Reset window additionally applies to 429s. The larger wins.
func (s *Session) serverWait(lastErr error, h http.Header) time.Duration {
	now := s.now()
	var wait time.Duration

	if h != nil {
		if at, ok := ratelimit.RetryAfter(h, now); ok {
			if d := at.Sub(now); d > wait {
				wait = d
			}
		}
	}

	var apiErr *errors.Error
	if stderrors.As(lastErr, &apiErr) && apiErr.Kind == errors.KindRateLimit {
		snap := s.rateState.Get()
		if snap.Known && !snap.ResetAt.IsZero() {
			if d := snap.ResetAt.Sub(now); d > wait {
				wait = d
			}
		}
	}
	return wait
}

// connectionNeverOpened reports whether the error happened at dial time,
// before any request bytes reached the server.
func connectionNeverOpened(err error) bool {
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

func statusCodeOf(err error) int {
	var apiErr *errors.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func bodyPreview(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// GetJSON performs an idempotent GET and decodes the JSON response.
func (s *Session) GetJSON(ctx context.Context, path string, query url.Values, target interface{}) error {
	resp, err := s.Execute(ctx, Request{
		Method:     http.MethodGet,
		Path:       path,
		Query:      query,
		Idempotent: true,
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, target); err != nil {
		s.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview(resp.Body),
		})
		return errors.Wrap(errors.KindParsing, resp.StatusCode, err, "failed to parse JSON")
	}
	return nil
}

// CreateStatus submits a new status. Every submission carries a fresh
// idempotency key; on an ambiguous outcome the key is surfaced in the error
// so the caller can resubmit without risking a duplicate.
func (s *Session) CreateStatus(ctx context.Context, req StatusRequest) (*Status, error) {
	key := uuid.NewString()
	resp, err := s.Execute(ctx, Request{
		Method:         http.MethodPost,
		Path:           StatusesEndpoint,
		JSON:           req,
		Idempotent:     false,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return nil, errors.Wrap(errors.KindParsing, resp.StatusCode, err, "failed to parse status response")
	}
	return &status, nil
}

// UploadMedia uploads a media file as multipart form data. The HTTP status
// code is returned alongside the attachment: 200 means the attachment is
// ready, 202 means the vendor is still processing it.
func (s *Session) UploadMedia(ctx context.Context, fileName string, data []byte, contentType string) (*Media, int, error) {
	resp, err := s.Execute(ctx, Request{
		Method: http.MethodPost,
		Path:   MediaEndpoint,
		File: &FileUpload{
			FieldName:   "file",
			FileName:    fileName,
			ContentType: contentType,
			Data:        data,
		},
		Idempotent:     false,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, 0, err
	}

	var media Media
	if err := json.Unmarshal(resp.Body, &media); err != nil {
		return nil, resp.StatusCode, errors.Wrap(errors.KindParsing, resp.StatusCode, err, "failed to parse media response")
	}
	return &media, resp.StatusCode, nil
}

// MediaStatus polls the processing state of an uploaded attachment. A 206
// means still processing.
func (s *Session) MediaStatus(ctx context.Context, mediaID string) (*Media, int, error) {
	resp, err := s.Execute(ctx, Request{
		Method:     http.MethodGet,
		Path:       MediaStatusEndpoint(mediaID),
		Idempotent: true,
	})
	if err != nil {
		return nil, 0, err
	}

	var media Media
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &media); err != nil {
			return nil, resp.StatusCode, errors.Wrap(errors.KindParsing, resp.StatusCode, err, "failed to parse media response")
		}
	}
	return &media, resp.StatusCode, nil
}
