package video

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"recipe-assistant/internal/core/llm"
	"recipe-assistant/internal/pkg/common"
)

// MockBackend 固定結果的搜尋後端
type MockBackend struct {
	BackendName string
	Disabled    bool
	Results     []Candidate
	Err         error
	Panic       bool
	Calls       atomic.Int32
}

func (m *MockBackend) Search(context.Context, string) ([]Candidate, error) {
	m.Calls.Add(1)
	if m.Panic {
		panic("backend exploded")
	}
	return m.Results, m.Err
}

func (m *MockBackend) Enabled() bool { return !m.Disabled }

func (m *MockBackend) Name() string { return m.BackendName }

// MockMetadata 固定結果的影片資料來源
type MockMetadata struct {
	Info Info
	Err  error
}

func (m *MockMetadata) Fetch(_ context.Context, id string) (Info, error) {
	if m.Err != nil {
		return Info{}, m.Err
	}
	info := m.Info
	info.VideoID = id
	return info, nil
}

func newTestResolver(primary, secondary Backend, metadata MetadataSource) *Resolver {
	return NewResolver(ResolverConfig{
		Primary:   primary,
		Secondary: secondary,
		Metadata:  metadata,
		Budget:    common.DefaultBudget(),
		Rand:      common.FixedRand(1),
	})
}

func TestScore(t *testing.T) {
	require.Equal(t, 15, Score(Candidate{Title: "Best Carbonara Recipe", LengthSeconds: 600}))
	require.Equal(t, 10, Score(Candidate{Title: "How To cook", LengthSeconds: 60}))
	require.Equal(t, 5, Score(Candidate{Title: "Carbonara", LengthSeconds: 300}))
	require.Equal(t, 5, Score(Candidate{Title: "Carbonara", LengthSeconds: 1200}))
	require.Equal(t, 0, Score(Candidate{Title: "Carbonara", LengthSeconds: 1201}))
}

func TestRankIsStable(t *testing.T) {
	candidates := []Candidate{
		{ID: "aaaaaaaaaaa", Title: "vlog", LengthSeconds: 60},
		{ID: "bbbbbbbbbbb", Title: "carbonara recipe", LengthSeconds: 60},
		{ID: "ccccccccccc", Title: "how to make carbonara", LengthSeconds: 60},
		{ID: "ddddddddddd", Title: "cooking carbonara", LengthSeconds: 600},
	}

	ranked := Rank(candidates)
	require.Equal(t, []string{"ddddddddddd", "bbbbbbbbbbb", "ccccccccccc", "aaaaaaaaaaa"},
		[]string{ranked[0].ID, ranked[1].ID, ranked[2].ID, ranked[3].ID})
	require.Equal(t, "aaaaaaaaaaa", candidates[0].ID, "input is not reordered")
}

func TestResolveEmptyBackendsReturnsPoolVideo(t *testing.T) {
	pool := PoolIDs()
	r := newTestResolver(&MockBackend{}, &MockBackend{}, nil)

	for _, name := range []string{"Spaghetti Carbonara", "", "Unknown Dish"} {
		info := r.Resolve(context.Background(), name, "")
		require.NotEmpty(t, info.VideoID)
		require.True(t, pool[info.VideoID], info.VideoID)
	}
}

func TestResolveFailingBackendsReturnsPoolVideo(t *testing.T) {
	r := newTestResolver(
		&MockBackend{Err: common.ErrUpstreamTimeout},
		&MockBackend{Err: errors.New("connection refused")},
		nil,
	)
	info := r.Resolve(context.Background(), "Pad Thai", "thai")
	require.True(t, PoolIDs()[info.VideoID])
}

func TestResolveTieKeepsBackendOrder(t *testing.T) {
	primary := &MockBackend{Results: []Candidate{
		{ID: "first000001", Title: "Carbonara recipe", LengthSeconds: 480},
		{ID: "second00002", Title: "Carbonara recipe", LengthSeconds: 480},
	}}
	r := newTestResolver(primary, nil, &MockMetadata{Err: common.ErrUpstreamUnavailable})

	info := r.Resolve(context.Background(), "Carbonara", "")
	require.Equal(t, "first000001", info.VideoID)
}

func TestResolveSecondaryIsRetryNotMerge(t *testing.T) {
	primary := &MockBackend{BackendName: "primary", Results: []Candidate{{ID: "primary0001", Title: "vlog"}}}
	secondary := &MockBackend{BackendName: "secondary", Results: []Candidate{{ID: "secondary01", Title: "carbonara recipe", LengthSeconds: 600}}}
	r := newTestResolver(primary, secondary, nil)

	info := r.Resolve(context.Background(), "Carbonara", "")
	require.Equal(t, "primary0001", info.VideoID)
	require.Equal(t, int32(0), secondary.Calls.Load())
}

func TestResolveDisabledPrimaryUsesSecondary(t *testing.T) {
	primary := &MockBackend{Disabled: true, Results: []Candidate{{ID: "primary0001"}}}
	secondary := &MockBackend{Results: []Candidate{{ID: "secondary01", Title: "Carbonara", Channel: "Nonna", LengthSeconds: 754, Views: 1200}}}
	r := newTestResolver(primary, secondary, nil)

	info := r.Resolve(context.Background(), "Carbonara", "")
	require.Equal(t, int32(0), primary.Calls.Load())
	require.Equal(t, Info{
		VideoID:      "secondary01",
		Title:        "Carbonara",
		ChannelName:  "Nonna",
		ThumbnailURL: ThumbnailURL("secondary01"),
		Duration:     "12:34",
		Views:        1200,
	}, info)
}

func TestResolveMetadataFailureDefaults(t *testing.T) {
	primary := &MockBackend{Results: []Candidate{{ID: "abcdefghijk"}}}
	r := newTestResolver(primary, nil, &MockMetadata{Err: common.ErrUpstreamTimeout})

	info := r.Resolve(context.Background(), "Carbonara", "")
	require.Equal(t, "abcdefghijk", info.VideoID)
	require.Equal(t, "Unknown Channel", info.ChannelName)
	require.Equal(t, "How to Make Carbonara", info.Title)
	require.Equal(t, "https://i.ytimg.com/vi/abcdefghijk/hqdefault.jpg", info.ThumbnailURL)
	require.Equal(t, "Unknown", info.Duration)
}

func TestResolveMetadataOverridesCandidate(t *testing.T) {
	primary := &MockBackend{Results: []Candidate{{ID: "abcdefghijk", Title: "raw", LengthText: "8:00", LengthSeconds: 480}}}
	r := newTestResolver(primary, nil, &MockMetadata{Info: Info{Title: "Real Title", ChannelName: "Real Channel", ThumbnailURL: "https://i.ytimg.com/x.jpg"}})

	info := r.Resolve(context.Background(), "Carbonara", "")
	require.Equal(t, "Real Title", info.Title)
	require.Equal(t, "Real Channel", info.ChannelName)
	require.Equal(t, "8:00", info.Duration)
}

func TestResolveInvalidBestIDFallsBackToPool(t *testing.T) {
	primary := &MockBackend{Results: []Candidate{{ID: "", Title: "recipe"}}}
	r := newTestResolver(primary, nil, nil)

	info := r.Resolve(context.Background(), "Carbonara", "")
	require.True(t, PoolIDs()[info.VideoID])
}

func TestResolveCachesByQuery(t *testing.T) {
	primary := &MockBackend{Results: []Candidate{{ID: "abcdefghijk", Title: "Carbonara recipe"}}}
	r := newTestResolver(primary, nil, nil)

	first := r.Resolve(context.Background(), "Carbonara", "")
	second := r.Resolve(context.Background(), "carbonara", "")
	require.Equal(t, first, second)
	require.Equal(t, int32(1), primary.Calls.Load())
}

func TestResolvePanicUsesCuisineFallback(t *testing.T) {
	r := newTestResolver(&MockBackend{Panic: true}, nil, nil)

	info := r.Resolve(context.Background(), "Chicken Tacos", "")
	require.Equal(t, "OCunSb81vUA", info.VideoID)
	require.Equal(t, "How to Make Chicken Tacos", info.Title)
}

func TestResolveCanceledCallerSkipsCache(t *testing.T) {
	primary := &MockBackend{Results: []Candidate{{ID: "abcdefghijk", Title: "Carbonara Recipe", LengthSeconds: 600}}}
	r := newTestResolver(primary, nil, &MockMetadata{Info: Info{Title: "Carbonara", ChannelName: "Chef"}})

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	info := r.Resolve(canceled, "Carbonara", "")
	require.Equal(t, "abcdefghijk", info.VideoID)
	require.Equal(t, 0, r.cache.Len())

	r.Resolve(context.Background(), "Carbonara", "")
	require.Equal(t, 1, r.cache.Len())
	require.Equal(t, int32(2), primary.Calls.Load())
}

func TestCuisineFallback(t *testing.T) {
	info := CuisineFallback(common.FixedRand(0), "Lasagna", "Italian")
	require.Equal(t, "VVnZd8A84z4", info.VideoID)
	require.Equal(t, "How to Make Lasagna", info.Title)

	info = CuisineFallback(common.FixedRand(1), "Pancakes", "")
	require.Equal(t, "ZJy1ajvMU1k", info.VideoID)
}

func TestCuisinePoolDrawsFromReliablePool(t *testing.T) {
	reliable := ReliableIDs()
	for cuisine, bucket := range cuisinePool {
		require.NotEmpty(t, bucket, string(cuisine))
		for _, v := range bucket {
			require.True(t, reliable[v.VideoID], "%s: %s", cuisine, v.VideoID)
		}
	}

	for seed := 0; seed < 4; seed++ {
		for _, name := range []string{"Pad Thai", "Lasagna", "Tacos", "Pancakes"} {
			info := CuisineFallback(common.FixedRand(seed), name, "")
			require.True(t, reliable[info.VideoID], info.VideoID)
		}
	}
}

func TestLLMQueryRewriter(t *testing.T) {
	t.Run("Uses model output", func(t *testing.T) {
		p := &fakeProvider{content: "\"easy carbonara recipe\"\nextra text"}
		r := NewLLMQueryRewriter(p, common.DefaultBudget(), 0, nil)
		require.Equal(t, "easy carbonara recipe", r.Rewrite(context.Background(), "Carbonara"))
		require.Equal(t, "easy carbonara recipe", r.Rewrite(context.Background(), "carbonara"))
		require.Equal(t, 1, p.calls)
	})

	t.Run("Falls back to template", func(t *testing.T) {
		r := NewLLMQueryRewriter(llm.Disabled{}, common.DefaultBudget(), 0, nil)
		require.Equal(t, "how to make Carbonara recipe tutorial", r.Rewrite(context.Background(), "Carbonara"))
	})
}

type fakeProvider struct {
	content string
	calls   int
}

func (f *fakeProvider) Generate(context.Context, string, llm.Options) (string, error) {
	f.calls++
	return f.content, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Close() error { return nil }

// MockProber 固定結果的存在性探測
type MockProber struct {
	Found bool
	Err     error
}

func (m *MockProber) Exists(context.Context, string) (bool, error) {
	return m.Found, m.Err
}

func TestValidator(t *testing.T) {
	ctx := context.Background()
	known := map[string]bool{}
	for _, id := range knownIDList {
		known[id] = true
	}

	v := NewValidator(&MockProber{Err: errors.New("unreachable")}, common.DefaultBudget(), common.FixedRand(2))
	require.Equal(t, Validation{Valid: true}, v.Validate(ctx, "JsimwZYPmTw"))

	got := v.Validate(ctx, "bad id!")
	require.False(t, got.Valid)
	require.True(t, known[got.FallbackID])

	got = v.Validate(ctx, "abcdefghijk")
	require.False(t, got.Valid, "probe failure is invalid")
	require.Equal(t, "OCunSb81vUA", got.FallbackID)

	v = NewValidator(&MockProber{Found: true}, common.DefaultBudget(), common.FixedRand(0))
	require.Equal(t, Validation{Valid: true}, v.Validate(ctx, "abcdefghijk"))

	v = NewValidator(&MockProber{Found: false}, common.DefaultBudget(), common.FixedRand(0))
	require.Equal(t, Validation{Valid: false, FallbackID: "JsimwZYPmTw"}, v.Validate(ctx, "abcdefghijk"))
}
