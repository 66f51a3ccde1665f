package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/tidwall/gjson"
)

const (
	TikTokAPI1Host         = "tiktok-scraper7.p.rapidapi.com"
	TikTokNoWatermark2Host = "tiktok-video-no-watermark2.p.rapidapi.com"
)

// TikTokAPI1 uses tiktok-scraper7. It prefers the watermark-free "play" URL.
type TikTokAPI1 struct {
	rapidAPI
}

func NewTikTokAPI1(apiKey string, opts ...Option) (*TikTokAPI1, error) {
	r, err := newRapidAPI("TikTok-API1", TikTokAPI1Host, apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &TikTokAPI1{rapidAPI: r}, nil
}

func (p *TikTokAPI1) VideoURL(ctx context.Context, locator string) (string, error) {
	res, err := p.get(ctx, "/", url.Values{"url": {locator}})
	if err != nil {
		return "", err
	}
	return tiktokVideo(ctx, p.name, res, "data.play", "data.wmplay")
}

// TikTokNoWatermark2 uses tiktok-video-no-watermark2 and asks for HD quality.
type TikTokNoWatermark2 struct {
	rapidAPI
}

func NewTikTokNoWatermark2(apiKey string, opts ...Option) (*TikTokNoWatermark2, error) {
	r, err := newRapidAPI("TikTok-NoWatermark2", TikTokNoWatermark2Host, apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &TikTokNoWatermark2{rapidAPI: r}, nil
}

func (p *TikTokNoWatermark2) VideoURL(ctx context.Context, locator string) (string, error) {
	res, err := p.get(ctx, "/", url.Values{"url": {locator}, "hd": {"1"}})
	if err != nil {
		return "", err
	}
	return tiktokVideo(ctx, p.name, res, "data.hdplay", "data.play", "data.wmplay")
}

// tiktokVideo reads {"code":0,"msg":"success","data":{...}} responses.
func tiktokVideo(ctx context.Context, provider string, res gjson.Result, paths ...string) (string, error) {
	if code := res.Get("code"); !code.Exists() || code.Int() != 0 {
		return "", fmt.Errorf("api returned error code %s: %s", code.Raw, res.Get("msg").String())
	}
	if !res.Get("data").Exists() {
		return "", errors.New("no data field in response")
	}

	videoURL, path := firstNonEmpty(res, paths...)
	if videoURL == "" {
		return "", fmt.Errorf("no video url in response data")
	}

	slog.InfoContext(ctx, "Extracted TikTok video URL", "provider", provider, "quality", path)
	return videoURL, nil
}
