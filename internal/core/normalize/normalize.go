// Package normalize 食材文字正規化與分類
package normalize

import (
	"regexp"
	"strings"
)

// Category 食材類別
type Category string

const (
	CategoryVegetable Category = "vegetable"
	CategoryFruit     Category = "fruit"
	CategoryProtein   Category = "protein"
	CategoryDairy     Category = "dairy"
	CategoryGrain     Category = "grain"
	CategoryHerb      Category = "herb"
	CategorySpice     Category = "spice"
	CategoryCondiment Category = "condiment"
	CategoryOther     Category = "other"
)

var (
	fractionPattern    = regexp.MustCompile(`[½⅓⅔¼¾⅛]`)
	numberPattern      = regexp.MustCompile(`\d+(?:[./]\d+)?`)
	punctuationPattern = regexp.MustCompile(`[^\p{L}\s]+`)
)

// unitTokens 計量單位（含複數）
var unitTokens = map[string]bool{
	"cup": true, "cups": true,
	"tablespoon": true, "tablespoons": true, "tbsp": true, "tbsps": true,
	"teaspoon": true, "teaspoons": true, "tsp": true, "tsps": true,
	"ounce": true, "ounces": true, "oz": true,
	"pound": true, "pounds": true, "lb": true, "lbs": true,
	"gram": true, "grams": true, "g": true,
	"ml": true, "l": true,
	"pinch": true, "pinches": true,
	"dash": true, "dashes": true,
}

// Normalize 去除數量、單位與標點，回傳小寫並以單一空白分隔的食材名稱
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = fractionPattern.ReplaceAllString(s, " ")
	s = numberPattern.ReplaceAllString(s, " ")
	s = punctuationPattern.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	kept := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "to" && i+1 < len(tokens) && tokens[i+1] == "taste" {
			i++
			continue
		}
		if unitTokens[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

type categoryKeywords struct {
	category Category
	keywords []string
}

// categoryTable 依序比對，第一個命中者勝出
var categoryTable = []categoryKeywords{
	{CategoryVegetable, []string{"vegetable", "veggie", "onion", "garlic", "carrot", "broccoli", "spinach", "lettuce", "potato", "tomato", "cucumber", "zucchini", "eggplant", "bell pepper", "cabbage", "celery", "kale", "asparagus", "cauliflower", "mushroom"}},
	{CategoryFruit, []string{"fruit", "apple", "banana", "orange", "grape", "strawberry", "blueberry", "raspberry", "lemon", "lime", "kiwi", "mango", "pineapple", "avocado", "berry", "citrus", "melon", "watermelon"}},
	{CategoryProtein, []string{"meat", "beef", "chicken", "pork", "lamb", "turkey", "bacon", "sausage", "steak", "ground", "fish", "salmon", "tuna", "shrimp", "prawn", "crab", "lobster", "clam", "mussel", "oyster", "squid", "tofu", "egg", "tempeh", "seitan"}},
	{CategoryDairy, []string{"dairy", "milk", "cheese", "yogurt", "butter", "cream", "sour cream", "ice cream", "mozzarella", "cheddar", "brie", "parmesan", "feta", "ricotta"}},
	{CategoryGrain, []string{"grain", "rice", "pasta", "bread", "flour", "oat", "oats", "cereal", "wheat", "corn", "quinoa", "barley", "couscous", "tortilla", "noodle", "macaroni", "spaghetti", "baguette"}},
	{CategoryHerb, []string{"herb", "basil", "parsley", "cilantro", "mint", "oregano", "thyme", "rosemary", "dill", "chives", "sage", "bay leaf"}},
	{CategorySpice, []string{"spice", "salt", "pepper", "cumin", "coriander", "cinnamon", "nutmeg", "paprika", "chili", "garlic powder", "onion powder", "turmeric", "ginger", "curry", "cardamom", "cloves"}},
	{CategoryCondiment, []string{"oil", "vinegar", "sauce", "ketchup", "mustard", "mayonnaise", "dressing", "syrup", "honey", "jam", "jelly", "soy sauce", "hot sauce", "salsa", "pickle"}},
}

// Categorizer 以關鍵字判斷類別，未命中時回傳 Default
type Categorizer struct {
	Default Category
}

// NewCategorizer 建立分類器，空白預設值視為 other
func NewCategorizer(defaultCategory string) Categorizer {
	if defaultCategory == "" {
		return Categorizer{Default: CategoryOther}
	}
	return Categorizer{Default: Category(defaultCategory)}
}

// Categorize 判斷已正規化文字所屬類別
func (c Categorizer) Categorize(normalized string) Category {
	for _, entry := range categoryTable {
		for _, kw := range entry.keywords {
			if strings.Contains(normalized, kw) {
				return entry.category
			}
		}
	}
	if c.Default == "" {
		return CategoryOther
	}
	return c.Default
}
