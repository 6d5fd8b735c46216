package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-assistant/internal/core/cache"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

const instanceCacheKey = "best"

var watchIDPattern = regexp.MustCompile(`watch\?v=([^&]+)`)

// instance Invidious 鏡像站
type instance struct {
	Host    string
	Type    string `json:"type"`
	URI     string `json:"uri"`
	Monitor *struct {
		Uptime float64 `json:"uptime"`
		Down   bool    `json:"down"`
	} `json:"monitor"`
}

// InvidiousBackend 解析 Invidious 搜尋頁面
type InvidiousBackend struct {
	cfg       config.InvidiousConfig
	client    *resty.Client
	instances *cache.TimedCache[string]
	searches  *cache.TimedCache[[]Candidate]
}

// InvidiousOptions 快取設定
type InvidiousOptions struct {
	InstancesTTL time.Duration
	SearchTTL    time.Duration
	Clock        common.Clock
}

// NewInvidiousBackend 創建 Invidious 後端
func NewInvidiousBackend(cfg config.InvidiousConfig, opts InvidiousOptions) *InvidiousBackend {
	if opts.Clock == nil {
		opts.Clock = common.SystemClock{}
	}
	if opts.InstancesTTL <= 0 {
		opts.InstancesTTL = 30 * time.Minute
	}
	if opts.SearchTTL <= 0 {
		opts.SearchTTL = 10 * time.Minute
	}

	client := resty.New().
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &InvidiousBackend{
		cfg:       cfg,
		client:    client,
		instances: cache.NewTimedCache[string]("invidious_instance", opts.InstancesTTL, cache.WithClock(opts.Clock)),
		searches:  cache.NewTimedCache[[]Candidate]("invidious_search", opts.SearchTTL, cache.WithClock(opts.Clock)),
	}
}

// Enabled 不需要金鑰，總是啟用
func (b *InvidiousBackend) Enabled() bool { return true }

// Name 後端名稱
func (b *InvidiousBackend) Name() string { return "invidious" }

// Search 搜尋影片
func (b *InvidiousBackend) Search(ctx context.Context, query string) ([]Candidate, error) {
	key := strings.ToLower(query)
	if cached, ok := b.searches.Get(key); ok {
		return cached, nil
	}

	base := b.selectInstance(ctx)
	start := time.Now()
	out, err := b.search(ctx, base, query)
	common.LogUpstreamCall("invidious", "search", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	b.searches.Put(key, out)
	return out, nil
}

func (b *InvidiousBackend) search(ctx context.Context, base, query string) ([]Candidate, error) {
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml").
		SetQueryParam("q", query).
		Get(base + "/search")
	if err != nil {
		return nil, upstreamError(ctx, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.ErrUpstreamUnavailable.Wrap(fmt.Errorf("invidious search returned %d", resp.StatusCode()))
	}

	return parseInvidiousResults(resp.Body(), base)
}

// parseInvidiousResults 解析搜尋結果頁面
func parseInvidiousResults(html []byte, base string) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse invidious page: %w", err)
	}

	var out []Candidate
	doc.Find(".pure-u-1.pure-u-md-1-4").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find(".thumbnail a").Attr("href")
		m := watchIDPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		length := strings.TrimSpace(s.Find(".bottom-right-overlay .length").Text())

		out = append(out, Candidate{
			ID:            id,
			Title:         strings.TrimSpace(s.Find(".video-card-row a p").First().Text()),
			Channel:       strings.TrimSpace(s.Find(".channel-name").First().Text()),
			ThumbnailURL:  base + "/vi/" + id + "/mqdefault.jpg",
			LengthText:    length,
			LengthSeconds: ParseDuration(length),
			Views:         ParseViewCount(strings.TrimSpace(s.Find(".flex-right .video-data").First().Text())),
			Published:     strings.TrimSpace(s.Find(".flex-left .video-data").First().Text()),
		})
	})
	return out, nil
}

// selectInstance 選擇 https、未停機、uptime > 90 中 uptime 最高者
func (b *InvidiousBackend) selectInstance(ctx context.Context) string {
	if base, ok := b.instances.Get(instanceCacheKey); ok {
		return base
	}

	var base string
	list, err := b.fetchInstances(ctx)
	if err != nil {
		common.LogWarn("無法取得 Invidious 鏡像清單，使用預設鏡像", zap.Error(err))
	} else {
		base = bestInstance(list)
	}
	if base == "" {
		base = withScheme(b.cfg.FallbackInstance)
	}
	b.instances.Put(instanceCacheKey, base)
	return base
}

func (b *InvidiousBackend) fetchInstances(ctx context.Context) ([]instance, error) {
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(b.cfg.InstancesURL)
	if err != nil {
		return nil, upstreamError(ctx, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.ErrUpstreamUnavailable.Wrap(fmt.Errorf("instances returned %d", resp.StatusCode()))
	}
	return parseInstances(resp.Body())
}

// parseInstances 解析 [host, info] 陣列
func parseInstances(body []byte) ([]instance, error) {
	var raw [][2]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse instances: %w", err)
	}

	out := make([]instance, 0, len(raw))
	for _, pair := range raw {
		var inst instance
		if err := json.Unmarshal(pair[0], &inst.Host); err != nil {
			continue
		}
		if err := json.Unmarshal(pair[1], &inst); err != nil {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

func bestInstance(list []instance) string {
	valid := make([]instance, 0, len(list))
	for _, inst := range list {
		if inst.Type == "https" && inst.Monitor != nil && !inst.Monitor.Down && inst.Monitor.Uptime > 90 {
			valid = append(valid, inst)
		}
	}
	if len(valid) == 0 {
		return ""
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Monitor.Uptime > valid[j].Monitor.Uptime
	})
	best := valid[0]
	if best.URI != "" {
		return strings.TrimRight(best.URI, "/")
	}
	return withScheme(best.Host)
}

func withScheme(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + host
}
