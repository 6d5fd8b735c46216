package video

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

// MetadataSource 取得單一影片詳細資料
type MetadataSource interface {
	Fetch(ctx context.Context, videoID string) (Info, error)
}

// Prober 確認影片是否存在
type Prober interface {
	Exists(ctx context.Context, videoID string) (bool, error)
}

// MetadataFetcher 先查 oEmbed，失敗時改查 player API
type MetadataFetcher struct {
	cfg    config.YouTubeConfig
	client *resty.Client
}

type oEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type playerResponse struct {
	VideoDetails *struct {
		VideoID       string       `json:"videoId"`
		Title         string       `json:"title"`
		Author        string       `json:"author"`
		LengthSeconds string       `json:"lengthSeconds"`
		ViewCount     string       `json:"viewCount"`
		Thumbnail     ytThumbnails `json:"thumbnail"`
	} `json:"videoDetails"`
}

// NewMetadataFetcher 創建影片資料查詢
func NewMetadataFetcher(cfg config.YouTubeConfig) *MetadataFetcher {
	return &MetadataFetcher{cfg: cfg, client: newYouTubeClient(cfg)}
}

// Fetch 取得影片資料
func (m *MetadataFetcher) Fetch(ctx context.Context, videoID string) (Info, error) {
	start := time.Now()
	info, err := m.oEmbed(ctx, videoID)
	common.LogUpstreamCall("youtube", "oembed", time.Since(start), err)
	if err == nil {
		return info, nil
	}
	if ctx.Err() != nil {
		return Info{}, err
	}

	start = time.Now()
	info, err = m.player(ctx, videoID)
	common.LogUpstreamCall("youtube", "player", time.Since(start), err)
	return info, err
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func (m *MetadataFetcher) oEmbed(ctx context.Context, videoID string) (Info, error) {
	var result oEmbedResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"url": watchURL(videoID), "format": "json"}).
		SetResult(&result).
		Get(m.cfg.OEmbedURL)
	if err != nil {
		return Info{}, upstreamError(ctx, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Info{}, common.ErrUpstreamUnavailable.Wrap(fmt.Errorf("oembed returned %d", resp.StatusCode()))
	}

	return Info{
		VideoID:      videoID,
		Title:        result.Title,
		ChannelName:  result.AuthorName,
		ThumbnailURL: common.FirstNonEmpty(result.ThumbnailURL, ThumbnailURL(videoID)),
	}, nil
}

func (m *MetadataFetcher) player(ctx context.Context, videoID string) (Info, error) {
	payload := map[string]interface{}{
		"context": newInnertubeContext(m.cfg.ClientVersion),
		"videoId": videoID,
	}

	var result playerResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParam("prettyPrint", "false").
		SetBody(payload).
		SetResult(&result).
		Post("/youtubei/v1/player")
	if err != nil {
		return Info{}, upstreamError(ctx, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Info{}, common.ErrUpstreamUnavailable.Wrap(fmt.Errorf("player returned %d", resp.StatusCode()))
	}
	if result.VideoDetails == nil {
		return Info{}, common.ErrNotFound
	}

	d := result.VideoDetails
	seconds, _ := strconv.Atoi(d.LengthSeconds)
	views, _ := strconv.ParseInt(d.ViewCount, 10, 64)
	info := Info{
		VideoID:      videoID,
		Title:        d.Title,
		ChannelName:  d.Author,
		ThumbnailURL: common.FirstNonEmpty(d.Thumbnail.best(), ThumbnailURL(videoID)),
		Views:        views,
	}
	if seconds > 0 {
		info.Duration = FormatDuration(seconds)
	}
	return info, nil
}

// Exists 以 HEAD 請求 oEmbed 確認影片存在
func (m *MetadataFetcher) Exists(ctx context.Context, videoID string) (bool, error) {
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"url": watchURL(videoID), "format": "json"}).
		Head(m.cfg.OEmbedURL)
	if err != nil {
		return false, upstreamError(ctx, err)
	}
	return resp.IsSuccess(), nil
}
