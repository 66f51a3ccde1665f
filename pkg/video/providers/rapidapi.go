// Package providers holds the RapidAPI-backed video providers used by the Instagram and
// TikTok services.
package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dskvich/whitecat-bot/pkg/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 4 << 20
	logPreviewBytes  = 500
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*rapidAPI)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc HTTPDoer) Option {
	return func(r *rapidAPI) { r.hc = hc }
}

// WithBaseURL points the provider at a different endpoint than https://<host>.
func WithBaseURL(baseURL string) Option {
	return func(r *rapidAPI) { r.baseURL = baseURL }
}

// WithHost overrides the RapidAPI host header and default endpoint.
func WithHost(host string) Option {
	return func(r *rapidAPI) { r.host = host }
}

type rapidAPI struct {
	name    string
	host    string
	apiKey  string
	baseURL string
	hc      HTTPDoer
}

func newRapidAPI(name, host, apiKey string, opts ...Option) (rapidAPI, error) {
	if apiKey == "" {
		return rapidAPI{}, fmt.Errorf("%s: api key is empty", name)
	}

	r := rapidAPI{
		name:   name,
		host:   host,
		apiKey: apiKey,
		hc:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.baseURL == "" {
		r.baseURL = "https://" + r.host
	}
	return r, nil
}

func (r *rapidAPI) Name() string { return r.name }

func (r *rapidAPI) get(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	return r.do(ctx, http.MethodGet, path, query, nil)
}

func (r *rapidAPI) post(ctx context.Context, path string, payload []byte) (gjson.Result, error) {
	return r.do(ctx, http.MethodPost, path, nil, payload)
}

func (r *rapidAPI) do(ctx context.Context, method, path string, query url.Values, payload []byte) (gjson.Result, error) {
	endpoint := r.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", r.apiKey)
	req.Header.Set("x-rapidapi-host", r.host)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.DebugContext(ctx, "Calling provider API", "provider", r.name, "method", method, "endpoint", endpoint)

	resp, err := r.hc.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("executing request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if closeErr := Body.Close(); closeErr != nil {
			slog.ErrorContext(ctx, "closing body", logger.Err(closeErr))
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading response body: %w", err)
	}

	slog.DebugContext(ctx, "Provider API responded", "provider", r.name, "status", resp.StatusCode, "bytes", len(data), "body", preview(data))

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("api returned status %d: %s", resp.StatusCode, preview(data))
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("invalid json response: %s", preview(data))
	}

	return gjson.ParseBytes(data), nil
}

// firstNonEmpty returns the first path of res holding a non-empty string.
func firstNonEmpty(res gjson.Result, paths ...string) (string, string) {
	for _, p := range paths {
		if v := res.Get(p).String(); v != "" {
			return v, p
		}
	}
	return "", ""
}

// firstVideo returns the urlKey of the first element of medias whose type is video.
func firstVideo(medias gjson.Result, urlKey string) string {
	var found string
	medias.ForEach(func(_, media gjson.Result) bool {
		if media.Get("type").String() != "video" {
			return true
		}
		found = media.Get(urlKey).String()
		return found == ""
	})
	return found
}

func preview(data []byte) string {
	if len(data) > logPreviewBytes {
		return string(data[:logPreviewBytes]) + "…"
	}
	return string(data)
}
