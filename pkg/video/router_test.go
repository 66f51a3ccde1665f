package video

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anyLink = regexp.MustCompile(`https?://\S+`)

func TestRouter_FirstMatchCommits(t *testing.T) {
	failing := &fakeProvider{name: "broken", err: errors.New("down")}
	backup := &fakeProvider{name: "works", url: "https://cdn.example/v.mp4"}

	high := NewService("HIGH", anyLink, 90, []Provider{failing})
	low := NewService("LOW", anyLink, 10, []Provider{backup})

	r, err := NewRouter(high, low)
	require.NoError(t, err)

	out := r.Route(context.Background(), "see https://example.com/v/1")

	assert.Equal(t, ProvidersExhausted, out.Kind)
	assert.Equal(t, "HIGH", out.Service)
	assert.Equal(t, "https://example.com/v/1", out.URL)
	assert.Equal(t, 1, failing.calls)
	assert.Zero(t, backup.calls, "lower priority service must never be consulted after a match")
}

func TestRouter_Resolved(t *testing.T) {
	p1 := &fakeProvider{name: "TikTok-API1", err: errors.New("down")}
	p2 := &fakeProvider{name: "TikTok-NoWatermark2", url: "https://cdn.example/hd.mp4"}
	instagram := NewService("INSTAGRAM", regexp.MustCompile(`https?://(?:www\.)?instagram\.com/\S+`), 80, []Provider{&fakeProvider{name: "ig"}})
	tiktok := NewService("TIKTOK", tiktokPattern, 70, []Provider{p1, p2})

	r, err := NewRouter(instagram, tiktok)
	require.NoError(t, err)

	out := r.Route(context.Background(), "https://vm.tiktok.com/ZMabc/")

	require.Equal(t, Resolved, out.Kind)
	assert.Equal(t, "TIKTOK", out.Service)
	assert.Equal(t, "https://cdn.example/hd.mp4", out.VideoURL)
	assert.Equal(t, 2, out.ProviderRank)
	assert.Equal(t, "TikTok-NoWatermark2", out.ProviderName)
}

func TestRouter_NoMatch(t *testing.T) {
	p := &fakeProvider{name: "p", url: "u"}
	r, err := NewRouter(NewService("TIKTOK", tiktokPattern, 70, []Provider{p}))
	require.NoError(t, err)

	assert.Equal(t, NoMatch, r.Route(context.Background(), "just chatting").Kind)
	assert.Equal(t, NoMatch, r.Route(context.Background(), "").Kind)
	assert.Zero(t, p.calls)
}

func TestNewRouter_ExcludesServicesWithoutProviders(t *testing.T) {
	empty := NewService("EMPTY", anyLink, 100, nil)
	p := &fakeProvider{name: "p", url: "https://cdn.example/v.mp4"}
	real := NewService("REAL", anyLink, 10, []Provider{p})

	r, err := NewRouter(empty, real, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"REAL"}, r.ServiceNames())

	out := r.Route(context.Background(), "https://example.com/x")
	assert.Equal(t, Resolved, out.Kind)
	assert.Equal(t, "REAL", out.Service)

	_, err = NewRouter(empty)
	assert.ErrorIs(t, err, ErrNoServices)
}

func TestRouter_AddRemoveService(t *testing.T) {
	p := &fakeProvider{name: "p", url: "u"}
	r, err := NewRouter(NewService("A", anyLink, 50, []Provider{p}))
	require.NoError(t, err)

	assert.True(t, r.AddService(NewService("B", anyLink, 40, []Provider{p})))
	assert.False(t, r.AddService(NewService("C", anyLink, 40, nil)))
	assert.Equal(t, []string{"A", "B"}, r.ServiceNames())

	assert.True(t, r.RemoveService("A"))
	assert.False(t, r.RemoveService("A"))
	assert.Equal(t, []string{"B"}, r.ServiceNames())
}

func TestOutcomeKind_String(t *testing.T) {
	assert.Equal(t, "no_match", NoMatch.String())
	assert.Equal(t, "providers_failed", ProvidersExhausted.String())
	assert.Equal(t, "resolved", Resolved.String())
}
