package normalize

import (
	"regexp"
	"strings"
)

// VideoCuisine 影片備援池分類
type VideoCuisine string

const (
	VideoItalian VideoCuisine = "italian"
	VideoAsian   VideoCuisine = "asian"
	VideoMexican VideoCuisine = "mexican"
	VideoGeneral VideoCuisine = "general"
)

// DishCuisine 菜色圖片分類
type DishCuisine string

const (
	DishItalian  DishCuisine = "italian"
	DishIndian   DishCuisine = "indian"
	DishMexican  DishCuisine = "mexican"
	DishChinese  DishCuisine = "chinese"
	DishAmerican DishCuisine = "american"
	DishDefault  DishCuisine = "default"
)

type videoRule struct {
	cuisine VideoCuisine
	hints   []string
	names   []string
}

var videoRules = []videoRule{
	{VideoItalian, []string{"italian", "pasta", "pizza"}, []string{"pasta", "pizza", "italian"}},
	{VideoAsian, []string{"chinese", "japanese", "thai", "asian"}, []string{"stir fry", "rice", "noodle", "asian", "sushi"}},
	{VideoMexican, []string{"mexican", "taco", "burrito"}, []string{"taco", "burrito", "mexican", "enchilada"}},
}

// DetectVideoCuisine 先以料理提示判斷，再以食譜名稱判斷
func DetectVideoCuisine(cuisineHint, recipeName string) VideoCuisine {
	hint := strings.ToLower(cuisineHint)
	if hint != "" {
		for _, rule := range videoRules {
			if containsAny(hint, rule.hints) {
				return rule.cuisine
			}
		}
	}

	name := strings.ToLower(recipeName)
	for _, rule := range videoRules {
		if containsAny(name, rule.names) {
			return rule.cuisine
		}
	}
	return VideoGeneral
}

type dishRule struct {
	cuisine DishCuisine
	pattern *regexp.Regexp
}

var dishRules = []dishRule{
	{DishItalian, regexp.MustCompile(`pasta|pizza|risotto|lasagna|spaghetti`)},
	{DishIndian, regexp.MustCompile(`curry|tikka|masala|paneer|biryani`)},
	{DishMexican, regexp.MustCompile(`taco|burrito|quesadilla|enchilada|mexican`)},
	{DishChinese, regexp.MustCompile(`stir|fry|dumpling|chinese|wonton|noodle`)},
	{DishAmerican, regexp.MustCompile(`burger|steak|fries|bbq|grill`)},
}

// DetectDishCuisine 以菜名判斷圖片分類
func DetectDishCuisine(dish string) DishCuisine {
	lower := strings.ToLower(dish)
	for _, rule := range dishRules {
		if rule.pattern.MatchString(lower) {
			return rule.cuisine
		}
	}
	return DishDefault
}

// ParseDishCuisine 將使用者提供的料理名稱對應到已知分類
func ParseDishCuisine(cuisine string) (DishCuisine, bool) {
	c := DishCuisine(strings.ToLower(strings.TrimSpace(cuisine)))
	switch c {
	case DishItalian, DishIndian, DishMexican, DishChinese, DishAmerican, DishDefault:
		return c, true
	}
	return DishDefault, false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
