package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

const (
	Instagram120Host        = "instagram120.p.rapidapi.com"
	InstagramDownloaderHost = "instagram-downloader-download-instagram-videos-stories1.p.rapidapi.com"
	InstagramLooter2Host    = "instagram-looter2.p.rapidapi.com"
)

// Instagram120 answers with [{"urls":[{"url":"..."}]}].
type Instagram120 struct {
	rapidAPI
}

func NewInstagram120(apiKey string, opts ...Option) (*Instagram120, error) {
	r, err := newRapidAPI("RapidAPI-Instagram120", Instagram120Host, apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &Instagram120{rapidAPI: r}, nil
}

func (p *Instagram120) VideoURL(ctx context.Context, locator string) (string, error) {
	payload, err := json.Marshal(map[string]string{"url": locator})
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}

	res, err := p.post(ctx, "/api/instagram/links", payload)
	if err != nil {
		return "", err
	}

	if !res.IsArray() {
		return "", errors.New("unexpected response structure: expected a list")
	}
	videoURL := res.Get("0.urls.0.url").String()
	if videoURL == "" {
		return "", errors.New("unexpected response structure: no urls")
	}
	return videoURL, nil
}

// InstagramDownloader answers with {"error":false,"medias":[{"type":"video","download_url":"..."}]}
// or {"error":"message","details":"..."}.
type InstagramDownloader struct {
	rapidAPI
}

func NewInstagramDownloader(apiKey string, opts ...Option) (*InstagramDownloader, error) {
	r, err := newRapidAPI("RapidAPI-InstagramDownloader", InstagramDownloaderHost, apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &InstagramDownloader{rapidAPI: r}, nil
}

func (p *InstagramDownloader) VideoURL(ctx context.Context, locator string) (string, error) {
	res, err := p.get(ctx, "/get-info-rapidapi", url.Values{"url": {locator}})
	if err != nil {
		return "", err
	}

	if e := res.Get("error"); e.Type != gjson.False {
		return "", fmt.Errorf("api returned error %s: %s", e.Raw, res.Get("details").String())
	}

	medias := res.Get("medias")
	videoURL := firstVideo(medias, "download_url")
	if videoURL == "" {
		return "", fmt.Errorf("no video found in %d media items", len(medias.Array()))
	}
	return videoURL, nil
}

// InstagramLooter2 answers with {"status":true,"data":{"medias":[{"type":"video","link":"..."}]}}.
type InstagramLooter2 struct {
	rapidAPI
}

func NewInstagramLooter2(apiKey string, opts ...Option) (*InstagramLooter2, error) {
	r, err := newRapidAPI("RapidAPI-InstagramLooter2", InstagramLooter2Host, apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &InstagramLooter2{rapidAPI: r}, nil
}

func (p *InstagramLooter2) VideoURL(ctx context.Context, locator string) (string, error) {
	res, err := p.get(ctx, "/post-dl", url.Values{"url": {locator}})
	if err != nil {
		return "", err
	}

	if !res.Get("status").Bool() {
		return "", errors.New("api returned status: false")
	}

	medias := res.Get("data.medias")
	videoURL := firstVideo(medias, "link")
	if videoURL == "" {
		return "", fmt.Errorf("no video found in %d media items", len(medias.Array()))
	}
	return videoURL, nil
}
