package milkyway

import "context"

// VisionGuess is the best-effort field guess a vision collaborator
// extracts from a cup label or receipt photo. Any field may be empty.
type VisionGuess struct {
	Brand       string `json:"brand"`
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	Sugar       string `json:"sugar"`
	Ice         string `json:"ice"`
	Price       string `json:"price"`
	Shop        string `json:"shop"`
	Calories    int    `json:"calories"`
}

// Recognizer pre-fills record fields from a photo. Implementations may
// fail or return empty guesses; callers must work without one.
type Recognizer interface {
	Recognize(ctx context.Context, imageBase64 string) (VisionGuess, error)
}

// CalorieLookup resolves an advisory calorie estimate for a brand and
// product name. A false second return means no match.
type CalorieLookup interface {
	Match(brand, name string) (int, bool)
}
