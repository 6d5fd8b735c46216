package recipe

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ---------------- 寬鬆版中繼結構：模型輸出的數字欄位可能是字串 ----------------

type looseSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Cuisine          string `json:"cuisine"`
	PrepTimeMinutes  any    `json:"prepTimeMinutes"`
	CookTimeMinutes  any    `json:"cookTimeMinutes"`
	Servings         any    `json:"servings"`
	Difficulty       string `json:"difficulty"`
	ShortDescription string `json:"shortDescription"`
}

type looseIngredient struct {
	Name     string `json:"name"`
	Quantity any    `json:"quantity"`
	Unit     string `json:"unit"`
	ImageURL string `json:"imageUrl"`
}

type looseNutrition struct {
	Calories any `json:"calories"`
	Protein  any `json:"protein"`
	Carbs    any `json:"carbs"`
	Fat      any `json:"fat"`
}

type looseDetail struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Cuisine         string            `json:"cuisine"`
	PrepTimeMinutes any               `json:"prepTimeMinutes"`
	CookTimeMinutes any               `json:"cookTimeMinutes"`
	Servings        any               `json:"servings"`
	Difficulty      string            `json:"difficulty"`
	Description     string            `json:"description"`
	MainImageURL    string            `json:"mainImageUrl"` // 不採用，改由圖片解析器決定
	Ingredients     []looseIngredient `json:"ingredients"`
	Instructions    []string          `json:"instructions"`
	NutritionFacts  *looseNutrition   `json:"nutritionFacts"`
	Tags            []string          `json:"tags"`
}

// ---------------------------------------------------------------

var leadingNumber = regexp.MustCompile(`-?\d+(\.\d+)?`)

func (s looseSummary) toSummary() Summary {
	return Summary{
		ID:               strings.TrimSpace(s.ID),
		Name:             strings.TrimSpace(s.Name),
		Cuisine:          s.Cuisine,
		PrepTimeMinutes:  toInt(s.PrepTimeMinutes),
		CookTimeMinutes:  toInt(s.CookTimeMinutes),
		Servings:         toInt(s.Servings),
		Difficulty:       s.Difficulty,
		ShortDescription: s.ShortDescription,
	}
}

func (d looseDetail) toDetail() *Detail {
	detail := &Detail{
		ID:              strings.TrimSpace(d.ID),
		Name:            strings.TrimSpace(d.Name),
		Cuisine:         d.Cuisine,
		PrepTimeMinutes: toInt(d.PrepTimeMinutes),
		CookTimeMinutes: toInt(d.CookTimeMinutes),
		Servings:        toInt(d.Servings),
		Difficulty:      d.Difficulty,
		Description:     d.Description,
		Instructions:    make([]string, 0, len(d.Instructions)),
		Tags:            d.Tags,
	}
	for _, ing := range d.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		detail.Ingredients = append(detail.Ingredients, Ingredient{
			Name:     strings.TrimSpace(ing.Name),
			Quantity: toText(ing.Quantity),
			Unit:     ing.Unit,
			ImageURL: strings.TrimSpace(ing.ImageURL),
		})
	}
	for _, step := range d.Instructions {
		if step = strings.TrimSpace(step); step != "" {
			detail.Instructions = append(detail.Instructions, step)
		}
	}
	if d.NutritionFacts != nil {
		detail.NutritionFacts = &NutritionFacts{
			Calories: toFloat(d.NutritionFacts.Calories),
			Protein:  toText(d.NutritionFacts.Protein),
			Carbs:    toText(d.NutritionFacts.Carbs),
			Fat:      toText(d.NutritionFacts.Fat),
		}
	}
	if detail.Tags == nil {
		detail.Tags = []string{}
	}
	return detail
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, _ := n.Float64()
		return f
	case float64:
		return n
	case string:
		if m := leadingNumber.FindString(n); m != "" {
			f, _ := strconv.ParseFloat(m, 64)
			return f
		}
	}
	return 0
}

func toInt(v any) int {
	return int(math.Round(toFloat(v)))
}

func toText(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(n)
	case json.Number:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	default:
		return ""
	}
}
