package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dskvich/whitecat-bot/pkg/logger"
)

const (
	DefaultMaxFileSize     = 100 << 20
	defaultDownloadTimeout = 30 * time.Second
)

var (
	ErrNotFound       = errors.New("video not found")
	ErrTooLarge       = errors.New("video too large")
	ErrDownloadFailed = errors.New("video download failed")
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Downloader fetches a resolved video URL into memory, refusing anything over maxSize.
type Downloader struct {
	hc      HTTPDoer
	maxSize int64
}

func NewDownloader(hc HTTPDoer, maxSize int64) *Downloader {
	if hc == nil {
		hc = &http.Client{Timeout: defaultDownloadTimeout}
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Downloader{hc: hc, maxSize: maxSize}
}

func (d *Downloader) MaxSize() int64 { return d.maxSize }

// Download returns the video bytes. Errors wrap ErrNotFound, ErrTooLarge or ErrDownloadFailed.
func (d *Downloader) Download(ctx context.Context, videoURL string) ([]byte, error) {
	slog.InfoContext(ctx, "Starting video download", "url", videoURL, "maxSize", d.maxSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrDownloadFailed, err)
	}

	resp, err := d.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %v", ErrDownloadFailed, err)
	}
	defer func(Body io.ReadCloser) {
		if closeErr := Body.Close(); closeErr != nil {
			slog.ErrorContext(ctx, "closing body", logger.Err(closeErr))
		}
	}(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrDownloadFailed, resp.StatusCode)
	}

	if resp.ContentLength > d.maxSize {
		return nil, fmt.Errorf("%w: content length %d exceeds %d", ErrTooLarge, resp.ContentLength, d.maxSize)
	}
	if resp.ContentLength < 0 {
		slog.DebugContext(ctx, "No Content-Length header, checking size while downloading")
	}

	var buf bytes.Buffer
	// one byte over the limit is enough to know it is too large
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrDownloadFailed, err)
	}
	if n > d.maxSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes while downloading", ErrTooLarge, d.maxSize)
	}

	slog.InfoContext(ctx, "Video downloaded", "size", n)
	return buf.Bytes(), nil
}
