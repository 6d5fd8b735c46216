package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "Unknown", FormatDuration(0))
	require.Equal(t, "0:59", FormatDuration(59))
	require.Equal(t, "10:05", FormatDuration(605))
	require.Equal(t, "1:02:03", FormatDuration(3723))
}

func TestParseDuration(t *testing.T) {
	require.Equal(t, 3723, ParseDuration("1:02:03"))
	require.Equal(t, 489, ParseDuration("8:09"))
	require.Equal(t, 42, ParseDuration("42"))
	require.Equal(t, 0, ParseDuration(""))
	require.Equal(t, 0, ParseDuration("LIVE"))
}

func TestParseViewCount(t *testing.T) {
	require.Equal(t, int64(1234), ParseViewCount("1,234 views"))
	require.Equal(t, int64(763000), ParseViewCount("763K views"))
	require.Equal(t, int64(1200000), ParseViewCount("1.2M views"))
	require.Equal(t, int64(3000000000), ParseViewCount("3B views"))
	require.Equal(t, int64(0), ParseViewCount("No views"))
	require.Equal(t, int64(0), ParseViewCount("1.2M"))
}

func TestHasBasicAuth(t *testing.T) {
	require.True(t, HasBasicAuth("PREF=x; VISITOR_INFO1_LIVE=abc"))
	require.True(t, HasBasicAuth("SID=abc"))
	require.False(t, HasBasicAuth("PREF=x"))
}

const youtubeSearchFixture = `{
  "contents": {"twoColumnSearchResultsRenderer": {"primaryContents": {"sectionListRenderer": {"contents": [
    {"continuationItemRenderer": {}},
    {"itemSectionRenderer": {"contents": [
      {"adSlotRenderer": {}},
      {"videoRenderer": {
        "videoId": "abcdefghijk",
        "title": {"runs": [{"text": "Classic Carbonara Recipe"}]},
        "ownerText": {"runs": [{"text": "Pasta Grannies"}]},
        "thumbnail": {"thumbnails": [{"url": "https://i.ytimg.com/small.jpg"}, {"url": "https://i.ytimg.com/large.jpg"}]},
        "lengthText": {"simpleText": "12:30"},
        "viewCountText": {"simpleText": "1,234,567 views"}
      }},
      {"videoRenderer": {"videoId": "zyxwvutsrqp", "title": {"runs": [{"text": "Second"}]}}}
    ]}},
    {"itemSectionRenderer": {"contents": [{"videoRenderer": {"videoId": "ignored0000"}}]}}
  ]}}}}
}`

func TestYouTubeBackendSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/youtubei/v1/search", r.URL.Path)
		require.Equal(t, "SID=abc", r.Header.Get("Cookie"))
		require.Equal(t, "1", r.Header.Get("X-YouTube-Client-Name"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "carbonara", body["query"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(youtubeSearchFixture))
	}))
	defer server.Close()

	b := NewYouTubeBackend(config.YouTubeConfig{Cookie: "SID=abc", BaseURL: server.URL, ClientVersion: "2.20250403.01.00"})
	require.True(t, b.Enabled())

	out, err := b.Search(context.Background(), "carbonara")
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, Candidate{
		ID:            "abcdefghijk",
		Title:         "Classic Carbonara Recipe",
		Channel:       "Pasta Grannies",
		ThumbnailURL:  "https://i.ytimg.com/large.jpg",
		LengthText:    "12:30",
		LengthSeconds: 750,
		Views:         1234567,
	}, out[0])
}

func TestYouTubeBackendDisabledWithoutCookie(t *testing.T) {
	require.False(t, NewYouTubeBackend(config.YouTubeConfig{}).Enabled())
}

const invidiousFixture = `<html><body><div class="pure-g">
<div class="pure-u-1 pure-u-md-1-4"><div class="h-box">
  <div class="thumbnail"><a href="/watch?v=abcdefghijk&amp;list=x"><img src="/vi/abcdefghijk/mqdefault.jpg"></a>
    <div class="bottom-right-overlay"><p class="length">8:09</p></div></div>
  <div class="video-card-row"><a href="/watch?v=abcdefghijk"><p dir="auto">Easy Carbonara</p></a></div>
  <div class="video-card-row flexible"><div class="flex-left"><a href="/channel/UC1"><p class="channel-name">Chef John</p></a></div></div>
  <div class="video-card-row flexible"><div class="flex-left"><p class="video-data">2 years ago</p></div>
    <div class="flex-right"><p class="video-data">763K views</p></div></div>
</div></div>
<div class="pure-u-1 pure-u-md-1-4"><div class="h-box"><p>channel card without video</p></div></div>
</div></body></html>`

func TestInvidiousBackendSearch(t *testing.T) {
	var searches atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/instances.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				["slow.example", {"type": "https", "uri": "https://slow.example", "monitor": {"uptime": 95.0, "down": false}}],
				["onion.example", {"type": "onion", "uri": "http://x.onion", "monitor": {"uptime": 100, "down": false}}],
				["local", {"type": "https", "uri": "` + server.URL + `", "monitor": {"uptime": 99.5, "down": false}}],
				["down.example", {"type": "https", "uri": "https://down.example", "monitor": {"uptime": 99.9, "down": true}}],
				["nomonitor.example", {"type": "https", "uri": "https://nomonitor.example", "monitor": null}]
			]`))
		case "/search":
			searches.Add(1)
			require.Equal(t, "carbonara recipe", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(invidiousFixture))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	b := NewInvidiousBackend(config.InvidiousConfig{
		InstancesURL:     server.URL + "/instances.json",
		FallbackInstance: "inv.nadeko.net",
	}, InvidiousOptions{})

	out, err := b.Search(context.Background(), "carbonara recipe")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, Candidate{
		ID:            "abcdefghijk",
		Title:         "Easy Carbonara",
		Channel:       "Chef John",
		ThumbnailURL:  server.URL + "/vi/abcdefghijk/mqdefault.jpg",
		LengthText:    "8:09",
		LengthSeconds: 489,
		Views:         763000,
		Published:     "2 years ago",
	}, out[0])

	_, err = b.Search(context.Background(), "Carbonara Recipe")
	require.NoError(t, err)
	require.Equal(t, int32(1), searches.Load(), "search results are cached by lowercase query")
}

func TestBestInstanceFallback(t *testing.T) {
	instances, err := parseInstances([]byte(`[["a.example", {"type": "https", "uri": "https://a.example", "monitor": {"uptime": 80, "down": false}}]]`))
	require.NoError(t, err)
	require.Equal(t, "", bestInstance(instances))
	require.Equal(t, "https://inv.nadeko.net", withScheme("inv.nadeko.net"))
}

func TestInvidiousUsesFallbackInstanceWhenListFails(t *testing.T) {
	b := NewInvidiousBackend(config.InvidiousConfig{
		InstancesURL:     "http://127.0.0.1:1/instances.json",
		FallbackInstance: "inv.nadeko.net",
	}, InvidiousOptions{})

	require.Equal(t, "https://inv.nadeko.net", b.selectInstance(context.Background()))
}

func TestMetadataFetcher(t *testing.T) {
	t.Run("oEmbed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/oembed", r.URL.Path)
			require.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk", r.URL.Query().Get("url"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"title": "Carbonara", "author_name": "Chef", "thumbnail_url": "https://i.ytimg.com/vi/abcdefghijk/hqdefault.jpg"}`))
		}))
		defer server.Close()

		m := NewMetadataFetcher(config.YouTubeConfig{BaseURL: server.URL, OEmbedURL: server.URL + "/oembed"})
		info, err := m.Fetch(context.Background(), "abcdefghijk")
		require.NoError(t, err)
		require.Equal(t, "Carbonara", info.Title)
		require.Equal(t, "Chef", info.ChannelName)
		require.Empty(t, info.Duration)
	})

	t.Run("Player fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/oembed":
				w.WriteHeader(http.StatusUnauthorized)
			case "/youtubei/v1/player":
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"videoDetails": {"videoId": "abcdefghijk", "title": "Carbonara", "author": "Chef", "lengthSeconds": "605", "viewCount": "4321", "thumbnail": {"thumbnails": [{"url": "https://i.ytimg.com/a.jpg"}]}}}`))
			}
		}))
		defer server.Close()

		m := NewMetadataFetcher(config.YouTubeConfig{BaseURL: server.URL, OEmbedURL: server.URL + "/oembed"})
		info, err := m.Fetch(context.Background(), "abcdefghijk")
		require.NoError(t, err)
		require.Equal(t, "10:05", info.Duration)
		require.Equal(t, int64(4321), info.Views)
		require.Equal(t, "https://i.ytimg.com/a.jpg", info.ThumbnailURL)
	})

	t.Run("Both fail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		m := NewMetadataFetcher(config.YouTubeConfig{BaseURL: server.URL, OEmbedURL: server.URL + "/oembed"})
		_, err := m.Fetch(context.Background(), "abcdefghijk")
		require.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	})
}

func TestMetadataFetcherExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		if strings.HasSuffix(r.URL.Query().Get("url"), "abcdefghijk") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	m := NewMetadataFetcher(config.YouTubeConfig{BaseURL: server.URL, OEmbedURL: server.URL + "/oembed"})
	ok, err := m.Exists(context.Background(), "abcdefghijk")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Exists(context.Background(), "zzzzzzzzzzz")
	require.NoError(t, err)
	require.False(t, ok)
}
