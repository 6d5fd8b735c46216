package image

import (
	"strings"

	"recipe-assistant/internal/core/normalize"
)

const (
	unsplashThumb = "?w=200&h=200&fit=crop"
	unsplashDish  = "?w=800&h=450&fit=crop"

	// GenericIngredientImage 最後一層備援
	GenericIngredientImage = "https://images.unsplash.com/photo-1512621776951-a57141f2eefd" + unsplashThumb
)

func unsplash(id, params string) string {
	return "https://images.unsplash.com/photo-" + id + params
}

// catalogEntry 靜態食材資料
type catalogEntry struct {
	key      string
	category normalize.Category
	imageURL string
	aliases  []string
}

func thumb(key string, category normalize.Category, photoID string, aliases ...string) catalogEntry {
	return catalogEntry{key: key, category: category, imageURL: unsplash(photoID, unsplashThumb), aliases: aliases}
}

// ingredientCatalog 依插入順序比對，先出現者優先
var ingredientCatalog = []catalogEntry{
	thumb("onion", normalize.CategoryVegetable, "1580201092675-a0a6a6cafbb1", "yellow onion", "white onion", "red onion", "sweet onion"),
	thumb("garlic", normalize.CategoryVegetable, "1615474634824-f45fb12b24a7", "garlic clove", "minced garlic", "garlic powder"),
	thumb("tomato", normalize.CategoryVegetable, "1561136594-7f68413baa99", "roma tomato", "cherry tomato", "tomatoes", "diced tomatoes"),
	thumb("potato", normalize.CategoryVegetable, "1518977676601-b53f82aba655", "russet potato", "yukon gold potato", "sweet potato", "potatoes"),
	thumb("carrot", normalize.CategoryVegetable, "1598170845057-d2686cfc7e1b", "carrots", "baby carrots", "sliced carrots", "shredded carrots"),
	thumb("bell pepper", normalize.CategoryVegetable, "1563565375-f3fdfdbefa83", "red pepper", "green pepper", "yellow pepper", "sweet pepper", "capsicum"),
	thumb("broccoli", normalize.CategoryVegetable, "1584270354949-c26b0d080672", "broccoli florets"),
	thumb("spinach", normalize.CategoryVegetable, "1576045057995-568f588f82fb", "baby spinach", "fresh spinach", "spinach leaves"),
	thumb("cucumber", normalize.CategoryVegetable, "1604977042946-1eecc30f269e", "cucumbers", "english cucumber", "pickle"),
	thumb("lettuce", normalize.CategoryVegetable, "1621794939886-6494d66a8c3e", "romaine lettuce", "iceberg lettuce", "green leaf lettuce"),
	thumb("mushroom", normalize.CategoryVegetable, "1552825897-bb5efa86eab1", "mushrooms", "cremini mushrooms", "portobello mushrooms", "shiitake mushrooms"),
	thumb("zucchini", normalize.CategoryVegetable, "1587334207855-d698c41c546c", "courgette", "summer squash"),

	thumb("apple", normalize.CategoryFruit, "1570913149827-d2ac84ab3f9a", "green apple", "red apple", "granny smith", "fuji apple", "apples"),
	thumb("banana", normalize.CategoryFruit, "1571771894821-ce9b6c11b08e", "bananas", "ripe banana"),
	thumb("lemon", normalize.CategoryFruit, "1582287014914-1db836440335", "lemons", "lemon juice", "lemon zest"),
	thumb("lime", normalize.CategoryFruit, "1622957461168-202c792b3703", "limes", "lime juice", "lime zest"),
	thumb("orange", normalize.CategoryFruit, "1582979512210-99b6a53386f9", "oranges", "orange juice", "orange zest", "mandarin"),
	thumb("strawberry", normalize.CategoryFruit, "1543158181-e6f9f6712055", "strawberries", "sliced strawberries"),
	thumb("blueberry", normalize.CategoryFruit, "1498557850523-fd3d118b962e", "blueberries", "fresh blueberries"),
	thumb("avocado", normalize.CategoryFruit, "1523049673857-eb18f1d7b578", "avocados", "avocado slices", "guacamole"),

	thumb("chicken", normalize.CategoryProtein, "1604503468506-a8da13d82791", "chicken breast", "chicken thigh", "chicken leg", "chicken wings", "ground chicken"),
	thumb("beef", normalize.CategoryProtein, "1588347875129-2a3133cbae99", "ground beef", "steak", "beef chuck", "beef tenderloin", "stewing beef"),
	thumb("pork", normalize.CategoryProtein, "1602901248692-06c8935adac0", "pork chop", "pork tenderloin", "ground pork", "pork shoulder", "bacon"),
	thumb("fish", normalize.CategoryProtein, "1611171711791-b34b41b1b1a4", "white fish", "tilapia", "cod", "halibut", "trout"),
	thumb("salmon", normalize.CategoryProtein, "1599084993091-1cb5c0721cc6", "salmon fillet", "smoked salmon", "grilled salmon"),
	thumb("shrimp", normalize.CategoryProtein, "1565680018434-b513d5e5fd47", "prawns", "jumbo shrimp", "shrimps"),
	thumb("tofu", normalize.CategoryProtein, "1584321893279-012788df9f22", "firm tofu", "silken tofu", "extra firm tofu"),
	thumb("egg", normalize.CategoryProtein, "1506976785307-8732e854ad03", "eggs", "egg whites", "egg yolks", "hard boiled eggs", "fried egg"),

	thumb("milk", normalize.CategoryDairy, "1563636619-e9143da7973b", "whole milk", "skim milk", "2% milk", "almond milk", "soy milk"),
	thumb("butter", normalize.CategoryDairy, "1589985270826-4b7bb135bc9d", "unsalted butter", "salted butter", "melted butter"),
	thumb("cheese", normalize.CategoryDairy, "1486297678162-eb2a19b0a32d", "cheddar", "mozzarella", "parmesan", "feta", "cream cheese"),
	thumb("yogurt", normalize.CategoryDairy, "1584278868734-7d1d2388c55c", "greek yogurt", "plain yogurt", "vanilla yogurt"),
	thumb("cream", normalize.CategoryDairy, "1587657565520-6c0c52d70b2a", "heavy cream", "whipping cream", "sour cream", "half and half"),
	thumb("parmesan", normalize.CategoryDairy, "1646627928092-44c8e964481d", "parmesan cheese", "grated parmesan", "parmigiano reggiano"),

	thumb("rice", normalize.CategoryGrain, "1536304993881-ff6e9eefa2a6", "white rice", "brown rice", "jasmine rice", "basmati rice", "arborio rice"),
	thumb("pasta", normalize.CategoryGrain, "1551462147-37885acc36f1", "noodles", "macaroni", "penne", "rotini", "farfalle"),
	thumb("spaghetti", normalize.CategoryGrain, "1598866594230-a7c12756260f", "spaghettini", "linguine", "fettuccine", "angel hair pasta"),
	thumb("bread", normalize.CategoryGrain, "1549931319-a545dcf3bc73", "white bread", "wheat bread", "sourdough", "baguette", "rolls"),
	thumb("flour", normalize.CategoryGrain, "1612878100556-032e2dccb2f8", "all-purpose flour", "bread flour", "cake flour", "whole wheat flour"),

	thumb("basil", normalize.CategoryHerb, "1600692280094-368bccd586c1", "fresh basil", "basil leaves", "dried basil"),
	thumb("parsley", normalize.CategoryHerb, "1590759485418-80637e77174d", "fresh parsley", "dried parsley", "parsley leaves", "chopped parsley"),
	thumb("cilantro", normalize.CategoryHerb, "1596546463702-7d15868439ae", "coriander", "fresh cilantro", "chinese parsley"),
	thumb("mint", normalize.CategoryHerb, "1628196237219-9d0ab2abeee1", "fresh mint", "mint leaves", "peppermint", "spearmint"),

	thumb("salt", normalize.CategorySpice, "1610154941541-0c11face5b2e", "sea salt", "kosher salt", "table salt", "pink salt"),
	thumb("pepper", normalize.CategorySpice, "1556060986-7ad911cc81b8", "black pepper", "white pepper", "ground pepper", "peppercorns"),
	thumb("cinnamon", normalize.CategorySpice, "1587132137056-bfbf0166836e", "ground cinnamon", "cinnamon sticks", "cassia"),
	{key: "cumin", category: normalize.CategorySpice, imageURL: "https://images.pexels.com/photos/4198384/pexels-photo-4198384.jpeg?auto=compress&cs=tinysrgb&w=200&h=200&dpr=1", aliases: []string{"ground cumin", "cumin seeds", "jeera"}},

	thumb("olive oil", normalize.CategoryCondiment, "1579448824458-19df7f39f146", "extra virgin olive oil", "EVOO", "virgin olive oil"),
	{key: "vegetable oil", category: normalize.CategoryCondiment, imageURL: "https://images.pexels.com/photos/2611814/pexels-photo-2611814.jpeg?auto=compress&cs=tinysrgb&w=200&h=200&dpr=1", aliases: []string{"canola oil", "cooking oil", "sunflower oil", "corn oil"}},
	thumb("sugar", normalize.CategoryCondiment, "1584478400633-3c9ed0161667", "white sugar", "granulated sugar", "cane sugar", "brown sugar"),
	thumb("honey", normalize.CategoryCondiment, "1550583724-b2692b85b150", "raw honey", "clover honey", "wildflower honey"),
	thumb("vinegar", normalize.CategoryCondiment, "1593486918626-6d589403e4de", "white vinegar", "apple cider vinegar", "balsamic vinegar", "red wine vinegar"),
	thumb("soy sauce", normalize.CategoryCondiment, "1598546924034-798a5637a823", "tamari", "shoyu", "light soy sauce", "dark soy sauce"),
}

// categoryImages 類別備援圖片
var categoryImages = map[normalize.Category]string{
	normalize.CategoryVegetable: unsplash("1540420773420-3366772f4999", unsplashThumb),
	normalize.CategoryFruit:     unsplash("1610832958506-aa56368176cf", unsplashThumb),
	normalize.CategoryProtein:   unsplash("1607623814075-e51df1bdc82f", unsplashThumb),
	normalize.CategoryDairy:     unsplash("1628088062854-d1870b4553da", unsplashThumb),
	normalize.CategoryGrain:     unsplash("1586444248890-2e772fcbdcb2", unsplashThumb),
	normalize.CategoryHerb:      unsplash("1611822417661-e6a3cc9892b8", unsplashThumb),
	normalize.CategorySpice:     unsplash("1532336414038-cf19250c5757", unsplashThumb),
	normalize.CategoryCondiment: unsplash("1589540306194-e0054daa4ae9", unsplashThumb),
}

// dishImages 各料理分類的菜色圖片
var dishImages = map[normalize.DishCuisine][]string{
	normalize.DishItalian: {
		unsplash("1598866594230-a7c12756260f", unsplashDish),
		unsplash("1551183053-bf91a1d81141", unsplashDish),
	},
	normalize.DishIndian: {
		unsplash("1585937421612-70a008356fbe", unsplashDish),
		unsplash("1505253758473-96b7015fcd40", unsplashDish),
	},
	normalize.DishMexican: {
		unsplash("1513456852971-30c0b8199d4d", unsplashDish),
		unsplash("1582234372722-50d7ccc30ebd", unsplashDish),
	},
	normalize.DishChinese: {
		unsplash("1563245372-f21724e3856d", unsplashDish),
		unsplash("1525755662778-989d0524087e", unsplashDish),
	},
	normalize.DishAmerican: {
		unsplash("1550317138-10000687a72b", unsplashDish),
		unsplash("1608039858788-553a3f1e9be9", unsplashDish),
	},
	normalize.DishDefault: {
		unsplash("1504674900247-0877df9cc836", unsplashDish),
		unsplash("1512621776951-a57141f2eefd", unsplashDish),
		unsplash("1540189549336-e6e99c3679fe", unsplashDish),
		unsplash("1565299624946-b28f40a0ae38", unsplashDish),
	},
}

// normalizedCatalog 別名預先正規化後的目錄
type normalizedCatalog struct {
	entries []catalogEntry
}

func newNormalizedCatalog() normalizedCatalog {
	entries := make([]catalogEntry, len(ingredientCatalog))
	for i, e := range ingredientCatalog {
		aliases := make([]string, 0, len(e.aliases))
		for _, a := range e.aliases {
			if n := normalize.Normalize(a); n != "" {
				aliases = append(aliases, n)
			}
		}
		entries[i] = catalogEntry{key: e.key, category: e.category, imageURL: e.imageURL, aliases: aliases}
	}
	return normalizedCatalog{entries: entries}
}

// match 依序比對：主鍵、別名、主鍵部分比對、別名部分比對
func (c normalizedCatalog) match(normalized string) (string, Source, bool) {
	if normalized == "" {
		return "", "", false
	}

	for _, e := range c.entries {
		if e.key == normalized {
			return e.imageURL, SourceDatabase, true
		}
	}
	for _, e := range c.entries {
		for _, a := range e.aliases {
			if a == normalized {
				return e.imageURL, SourceAliasMatch, true
			}
		}
	}
	for _, e := range c.entries {
		if strings.Contains(normalized, e.key) || strings.Contains(e.key, normalized) {
			return e.imageURL, SourcePartialMatch, true
		}
	}
	for _, e := range c.entries {
		for _, a := range e.aliases {
			if strings.Contains(normalized, a) || strings.Contains(a, normalized) {
				return e.imageURL, SourcePartialMatch, true
			}
		}
	}
	return "", "", false
}
