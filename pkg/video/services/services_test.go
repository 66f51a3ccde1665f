package services

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/whitecat-bot/pkg/registry"
	"github.com/dskvich/whitecat-bot/pkg/video"
	"github.com/dskvich/whitecat-bot/pkg/video/providers"
)

var quiet = registry.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func TestPatterns(t *testing.T) {
	tests := []struct {
		text      string
		instagram string
		tiktok    string
	}{
		{text: "look https://www.instagram.com/reel/Cx_1-a/?igsh=abc ok", instagram: "https://www.instagram.com/reel/Cx_1-a/?igsh=abc"},
		{text: "https://instagram.com/p/ABC123", instagram: "https://instagram.com/p/ABC123"},
		{text: "https://instagram.com/stories/someone", instagram: "https://instagram.com/stories/someone"},
		{text: "https://instagram.com/someone", instagram: ""},
		{text: "https://www.tiktok.com/@cat.lover/video/7234567890", tiktok: "https://www.tiktok.com/@cat.lover/video/7234567890"},
		{text: "short https://vm.tiktok.com/ZMabc-1/", tiktok: "https://vm.tiktok.com/ZMabc-1"},
		{text: "https://vt.tiktok.com/ZSxyz", tiktok: "https://vt.tiktok.com/ZSxyz"},
		{text: "https://www.tiktok.com/@cat", tiktok: ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.instagram, InstagramPattern.FindString(tt.text))
			assert.Equal(t, tt.tiktok, TikTokPattern.FindString(tt.text))
		})
	}
}

func TestLoad_OnlyServicesWithCredentials(t *testing.T) {
	router, err := Load(context.Background(), Table(), registry.WithEnvironment(map[string]string{
		"INSTAGRAM_LOOTER2_API_KEY": "k",
	}), quiet)
	require.NoError(t, err)
	assert.Equal(t, []string{Instagram}, router.ServiceNames())
}

func TestLoad_PriorityOverride(t *testing.T) {
	router, err := Load(context.Background(), Table(), registry.WithEnvironment(map[string]string{
		"INSTAGRAM120_API_KEY": "k",
		"TIKTOK_API1_API_KEY":  "k",
		"TIKTOK_PRIORITY":      "95",
	}), quiet)
	require.NoError(t, err)
	assert.Equal(t, []string{TikTok, Instagram}, router.ServiceNames())
}

func TestLoad_DisabledService(t *testing.T) {
	router, err := Load(context.Background(), Table(), registry.WithEnvironment(map[string]string{
		"INSTAGRAM120_API_KEY": "k",
		"TIKTOK_API1_API_KEY":  "k",
		"INSTAGRAM_ENABLED":    "false",
	}), quiet)
	require.NoError(t, err)
	assert.Equal(t, []string{TikTok}, router.ServiceNames())
}

func TestLoad_NoCredentials(t *testing.T) {
	_, err := Load(context.Background(), Table(), registry.WithEnvironment(map[string]string{}), quiet)
	assert.ErrorIs(t, err, video.ErrNoServices)

	_, err = Load(context.Background(), Table(), registry.WithEnvironment(map[string]string{
		"INSTAGRAM_ENABLED": "false",
		"TIKTOK_ENABLED":    "false",
	}), quiet)
	assert.ErrorIs(t, err, registry.ErrNoneFound)
}

func TestLoad_RoutesThroughProviderFallback(t *testing.T) {
	var hosts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Header.Get("x-rapidapi-host")
		hosts = append(hosts, host)
		if host == providers.TikTokAPI1Host {
			_, _ = io.WriteString(w, `{"code":-1,"msg":"rate limited"}`)
			return
		}
		_, _ = io.WriteString(w, `{"code":0,"data":{"hdplay":"https://cdn/hd.mp4"}}`)
	}))
	defer srv.Close()

	table := Table(providers.WithBaseURL(srv.URL), providers.WithHTTPClient(srv.Client()))
	router, err := Load(context.Background(), table, registry.WithEnvironment(map[string]string{
		"TIKTOK_API1_API_KEY":         "k",
		"TIKTOK_NOWATERMARK2_API_KEY": "k",
	}), quiet)
	require.NoError(t, err)

	out := router.Route(context.Background(), "lol https://vm.tiktok.com/ZMabc/")
	assert.Equal(t, video.Resolved, out.Kind)
	assert.Equal(t, TikTok, out.Service)
	assert.Equal(t, "https://cdn/hd.mp4", out.VideoURL)
	assert.Equal(t, 2, out.ProviderRank)
	assert.Equal(t, "TikTok-NoWatermark2", out.ProviderName)
	assert.Equal(t, []string{providers.TikTokAPI1Host, providers.TikTokNoWatermark2Host}, hosts)
}
