package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/domain"
)

// File is a binary part of a multipart request
type File struct {
	Field    string
	Filename string
	Content  []byte
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// fields and files turn the request into multipart/form-data
	fields map[string]string
	files  []File
	heavy  bool
	noAuth bool
}

// baseClient is the shared HTTP plumbing of all collaborator clients
type baseClient struct {
	service string
	baseURL string
	http    *http.Client
	heavy   *http.Client
	secret  string
	auth    *Authenticator
}

func newBaseClient(service, baseURL string, opts Options) baseClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	heavyTimeout := opts.HeavyTimeout
	if heavyTimeout == 0 {
		heavyTimeout = 15 * time.Minute
	}
	return baseClient{
		service: service,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		heavy:   &http.Client{Timeout: heavyTimeout},
		secret:  opts.InterserverSecret,
		auth:    opts.Auth,
	}
}

func (c *baseClient) encode(req request) (io.Reader, string, error) {
	if len(req.fields) > 0 || len(req.files) > 0 {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range req.fields {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
			}
		}
		for _, f := range req.files {
			part, err := w.CreateFormFile(f.Field, f.Filename)
			if err != nil {
				return nil, "", fmt.Errorf("failed to create form file: %w", err)
			}
			if _, err := part.Write(f.Content); err != nil {
				return nil, "", fmt.Errorf("failed to write form file: %w", err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
		}
		return &buf, w.FormDataContentType(), nil
	}

	if req.body == nil {
		return nil, "", nil
	}
	body, err := json.Marshal(req.body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(body), "application/json", nil
}

// do performs the request and decodes a JSON response into out (when non-nil).
// A 401 triggers one token refresh and retry.
func (c *baseClient) do(ctx context.Context, req request, out any) error {
	raw, err := c.doRaw(ctx, req)
	if errors.Is(err, errUnauthorized) && c.auth != nil && !req.noAuth {
		if rerr := c.auth.ForceRefresh(ctx); rerr != nil {
			return rerr
		}
		raw, err = c.doRaw(ctx, req)
	}
	if errors.Is(err, errUnauthorized) {
		return &domain.APIError{
			Service: c.service, Method: req.method, Path: req.path,
			StatusCode: http.StatusUnauthorized, Kind: domain.ErrPermissionDenied,
		}
	}
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.service, err)
	}
	return nil
}

var errUnauthorized = errors.New("unauthorized")

func (c *baseClient) doRaw(ctx context.Context, req request) ([]byte, error) {
	body, contentType, err := c.encode(req)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.secret != "" {
		httpReq.Header.Set("X-Interservice-Secret", c.secret)
	}
	if !req.noAuth && c.auth != nil {
		token, err := c.auth.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	client := c.http
	if req.heavy {
		client = c.heavy
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		log.Warn().Err(err).Str("service", c.service).Str("path", req.path).Msg("collaborator request failed")
		return nil, &domain.APIError{
			Service: c.service, Method: req.method, Path: req.path,
			Body: err.Error(), Kind: domain.ErrTransient,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.APIError{
			Service: c.service, Method: req.method, Path: req.path,
			StatusCode: resp.StatusCode, Body: err.Error(), Kind: domain.ErrTransient,
		}
	}

	log.Debug().
		Str("service", c.service).
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("collaborator request")

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errUnauthorized
	}
	if kind := classify(resp.StatusCode, raw); kind != nil {
		return nil, &domain.APIError{
			Service: c.service, Method: req.method, Path: req.path,
			StatusCode: resp.StatusCode, Body: truncateBody(raw), Kind: kind,
		}
	}
	return raw, nil
}

func truncateBody(raw []byte) string {
	const limit = 512
	if len(raw) > limit {
		return string(raw[:limit])
	}
	return string(raw)
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
