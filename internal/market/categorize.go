// Package market infers a shopping type for market items that were created
// without one.
package market

import "strings"

// Other is returned when no keyword matches.
const Other = "other"

// keywords maps each type to the words that identify it. When several
// keywords match a name the longest one wins, so "peanut butter" beats
// "butter". Equal lengths resolve alphabetically by type.
var keywords = map[string][]string{
	"produce": {
		"apple", "banana", "orange", "lemon", "lime", "avocado", "tomato",
		"potato", "onion", "garlic", "lettuce", "spinach", "kale", "broccoli",
		"carrot", "celery", "cucumber", "pepper", "mushroom", "grape",
		"strawberr", "blueberr", "watermelon", "pineapple", "mango", "peach",
		"pear", "cilantro", "basil", "parsley", "ginger", "zucchini", "salad",
		"fruit", "vegetable",
	},
	"dairy": {
		"milk", "cheese", "yogurt", "butter", "cream", "egg", "sour cream",
		"cream cheese", "cottage",
	},
	"meat": {
		"chicken", "beef", "pork", "turkey", "bacon", "sausage", "ham",
		"steak", "ground beef", "salmon", "shrimp", "tuna", "fish",
	},
	"bakery": {
		"bread", "bagel", "muffin", "croissant", "tortilla", "bun", "roll",
		"cake",
	},
	"pantry": {
		"rice", "pasta", "flour", "sugar", "salt", "oil", "vinegar", "beans",
		"cereal", "oats", "peanut butter", "jam", "honey", "sauce", "spice",
		"canned", "soup", "coffee beans",
	},
	"frozen": {
		"frozen", "ice cream", "popsicle",
	},
	"beverages": {
		"water", "juice", "soda", "coffee", "tea", "beer", "wine",
	},
	"snacks": {
		"chips", "cookie", "cracker", "popcorn", "pretzel", "chocolate",
		"candy", "nuts",
	},
	"cleaning": {
		"detergent", "bleach", "soap", "sponge", "paper towel", "trash bag",
		"toilet paper", "cleaner", "dish",
	},
	"personal care": {
		"shampoo", "conditioner", "toothpaste", "toothbrush", "deodorant",
		"lotion", "razor", "floss",
	},
}

// Categorize returns the market type for an item name. Matching ignores case
// and surrounding whitespace.
func Categorize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Other
	}

	best, bestLen := Other, 0
	for category, words := range keywords {
		for _, w := range words {
			if !strings.Contains(name, w) {
				continue
			}
			if len(w) > bestLen || (len(w) == bestLen && category < best) {
				best, bestLen = category, len(w)
			}
		}
	}
	return best
}
