// Package recipe 食譜搜尋與詳細內容生成
package recipe

import (
	"recipe-assistant/internal/core/video"
)

// Summary 搜尋結果中的食譜摘要
type Summary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Cuisine          string `json:"cuisine"`
	PrepTimeMinutes  int    `json:"prepTimeMinutes"`
	CookTimeMinutes  int    `json:"cookTimeMinutes"`
	Servings         int    `json:"servings"`
	Difficulty       string `json:"difficulty"`
	ShortDescription string `json:"shortDescription"`
}

// Ingredient 食材
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// NutritionFacts 營養資訊
type NutritionFacts struct {
	Calories float64 `json:"calories"`
	Protein  string  `json:"protein"`
	Carbs    string  `json:"carbs"`
	Fat      string  `json:"fat"`
}

// Detail 完整食譜，Video 一定存在
type Detail struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Cuisine         string          `json:"cuisine"`
	PrepTimeMinutes int             `json:"prepTimeMinutes"`
	CookTimeMinutes int             `json:"cookTimeMinutes"`
	Servings        int             `json:"servings"`
	Difficulty      string          `json:"difficulty"`
	Description     string          `json:"description"`
	MainImageURL    string          `json:"mainImageUrl"`
	Ingredients     []Ingredient    `json:"ingredients"`
	Instructions    []string        `json:"instructions"`
	NutritionFacts  *NutritionFacts `json:"nutritionFacts,omitempty"`
	Tags            []string        `json:"tags"`
	Video           video.Info      `json:"video"`
}

// Outcome 生成結果狀態
type Outcome int

const (
	Success Outcome = iota
	TimedOut
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case TimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}
