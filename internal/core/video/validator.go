package video

import (
	"context"

	"go.uber.org/zap"

	"recipe-assistant/internal/pkg/common"
)

// Validation 驗證結果
type Validation struct {
	Valid      bool   `json:"valid"`
	FallbackID string `json:"fallbackId,omitempty"`
}

// Validator 影片 ID 驗證
type Validator struct {
	prober Prober
	budget common.Budget
	rand   common.RandSource
}

// NewValidator 創建驗證器
func NewValidator(prober Prober, budget common.Budget, rnd common.RandSource) *Validator {
	if rnd == nil {
		rnd = common.NewRandSource(0)
	}
	return &Validator{prober: prober, budget: budget, rand: rnd}
}

// Validate 已知 ID 直接有效；格式錯誤或探測失敗時附上備援 ID
func (v *Validator) Validate(ctx context.Context, videoID string) Validation {
	if knownIDs[videoID] {
		return Validation{Valid: true}
	}
	if !ValidID(videoID) {
		return v.invalid()
	}
	if v.prober == nil {
		return Validation{Valid: true}
	}

	ctx, cancel := v.budget.Within(ctx, v.budget.VideoMetadata)
	defer cancel()

	ok, err := v.prober.Exists(ctx, videoID)
	if err != nil {
		common.LogDebug("影片存在性探測失敗", zap.String("id", videoID), zap.Error(err))
	}
	if err != nil || !ok {
		return v.invalid()
	}
	return Validation{Valid: true}
}

func (v *Validator) invalid() Validation {
	return Validation{Valid: false, FallbackID: knownIDList[v.rand.Intn(len(knownIDList))]}
}
