package tools

// 工具名稱
const (
	SearchRecipes    = "searchRecipes"
	GetRecipeDetails = "getRecipeDetails"
	FindRecipeVideo  = "findRecipeVideo"
)

// Definition 提供給模型註冊的工具描述
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// Definitions 所有工具的描述
func Definitions() []Definition {
	return []Definition{
		{
			Name:        SearchRecipes,
			Description: "Search for recipes matching a query, optionally filtered by cuisine and dietary restriction. Returns at most 4 recipe summaries.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":   stringProp("What the user wants to cook, e.g. \"quick chicken dinner\""),
					"cuisine": stringProp("Optional cuisine, e.g. \"Italian\""),
					"dietary": stringProp("Optional dietary restriction, e.g. \"vegetarian\""),
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        GetRecipeDetails,
			Description: "Get the full recipe for a recipe id returned by searchRecipes, including ingredients with images, instructions and a video.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"recipeId":   stringProp("Recipe id, e.g. \"recipe_spaghetti-carbonara\""),
					"recipeName": stringProp("Optional display name of the recipe"),
				},
				"required": []string{"recipeId"},
			},
		},
		{
			Name:        FindRecipeVideo,
			Description: "Find a cooking video for a recipe.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"recipeName": stringProp("Recipe name, e.g. \"pad thai\""),
				},
				"required": []string{"recipeName"},
			},
		},
	}
}
