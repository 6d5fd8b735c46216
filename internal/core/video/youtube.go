package video

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

// HasBasicAuth cookie 是否帶有 YouTube 訪客或登入識別
func HasBasicAuth(cookie string) bool {
	return strings.Contains(cookie, "VISITOR_INFO1_LIVE=") || strings.Contains(cookie, "SID=")
}

// newYouTubeClient 建立帶瀏覽器標頭的 resty 客戶端
func newYouTubeClient(cfg config.YouTubeConfig) *resty.Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "*/*").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetHeader("Content-Type", "application/json").
		SetHeader("Origin", "https://www.youtube.com").
		SetHeader("Referer", "https://www.youtube.com/").
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("X-YouTube-Client-Name", "1").
		SetHeader("X-YouTube-Client-Version", cfg.ClientVersion)
	if cfg.Cookie != "" {
		client.SetHeader("Cookie", cfg.Cookie)
	}
	return client
}

type innertubeContext struct {
	Client struct {
		HL            string `json:"hl"`
		GL            string `json:"gl"`
		ClientName    string `json:"clientName"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
}

func newInnertubeContext(version string) innertubeContext {
	var c innertubeContext
	c.Client.HL = "en"
	c.Client.GL = "US"
	c.Client.ClientName = "WEB"
	c.Client.ClientVersion = version
	return c
}

type ytText struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t ytText) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	if len(t.Runs) > 0 {
		return t.Runs[0].Text
	}
	return ""
}

type ytThumbnails struct {
	Thumbnails []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"thumbnails"`
}

// best 取最後一張（解析度最高）的縮圖
func (t ytThumbnails) best() string {
	if len(t.Thumbnails) == 0 {
		return ""
	}
	return t.Thumbnails[len(t.Thumbnails)-1].URL
}

type ytVideoRenderer struct {
	VideoID       string       `json:"videoId"`
	Title         ytText       `json:"title"`
	OwnerText     ytText       `json:"ownerText"`
	Thumbnail     ytThumbnails `json:"thumbnail"`
	LengthText    ytText       `json:"lengthText"`
	ViewCountText ytText       `json:"viewCountText"`
}

type ytSearchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer *struct {
							Contents []struct {
								VideoRenderer *ytVideoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

// candidates 取第一個 itemSectionRenderer 中的影片
func (r *ytSearchResponse) candidates() []Candidate {
	var out []Candidate
	for _, section := range r.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents {
		if section.ItemSectionRenderer == nil {
			continue
		}
		for _, item := range section.ItemSectionRenderer.Contents {
			v := item.VideoRenderer
			if v == nil {
				continue
			}
			length := v.LengthText.String()
			out = append(out, Candidate{
				ID:            v.VideoID,
				Title:         v.Title.String(),
				Channel:       v.OwnerText.String(),
				ThumbnailURL:  v.Thumbnail.best(),
				LengthText:    length,
				LengthSeconds: ParseDuration(length),
				Views:         ParseViewCount(v.ViewCountText.String()),
			})
		}
		break
	}
	return out
}

// YouTubeBackend 直接呼叫 YouTube 內部搜尋 API，需要 cookie
type YouTubeBackend struct {
	cfg    config.YouTubeConfig
	client *resty.Client
}

// NewYouTubeBackend 創建 YouTube 搜尋後端
func NewYouTubeBackend(cfg config.YouTubeConfig) *YouTubeBackend {
	return &YouTubeBackend{cfg: cfg, client: newYouTubeClient(cfg)}
}

// Enabled cookie 具備基本識別時才啟用
func (b *YouTubeBackend) Enabled() bool {
	return HasBasicAuth(b.cfg.Cookie)
}

// Name 後端名稱
func (b *YouTubeBackend) Name() string { return "youtube" }

// Search 搜尋影片
func (b *YouTubeBackend) Search(ctx context.Context, query string) ([]Candidate, error) {
	start := time.Now()
	out, err := b.search(ctx, query)
	common.LogUpstreamCall("youtube", "search", time.Since(start), err)
	return out, err
}

func (b *YouTubeBackend) search(ctx context.Context, query string) ([]Candidate, error) {
	payload := map[string]interface{}{
		"context": newInnertubeContext(b.cfg.ClientVersion),
		"query":   query,
	}

	var result ytSearchResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Referer", "https://www.youtube.com/results?search_query="+url.QueryEscape(query)).
		SetQueryParam("prettyPrint", "false").
		SetBody(payload).
		SetResult(&result).
		Post("/youtubei/v1/search")
	if err != nil {
		return nil, upstreamError(ctx, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.ErrUpstreamUnavailable.Wrap(fmt.Errorf("youtube search returned %d", resp.StatusCode()))
	}
	return result.candidates(), nil
}

func upstreamError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return common.ErrUpstreamTimeout.Wrap(err)
	}
	return common.ErrUpstreamUnavailable.Wrap(err)
}
