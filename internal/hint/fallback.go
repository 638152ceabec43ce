package hint

import "gamified-learning/internal/domain"

var fallbackHints = map[domain.Difficulty][]string{
	domain.DifficultyEasy: {
		"Try breaking down the problem into smaller steps.",
		"Review the basic syntax of the language you're using.",
		"Think about the input and output requirements carefully.",
	},
	domain.DifficultyMedium: {
		"Consider the edge cases in your solution.",
		"There might be a more efficient algorithm to solve this.",
		"Think about how to optimize your data structures.",
	},
	domain.DifficultyHard: {
		"This problem likely requires an advanced algorithm technique.",
		"Consider time and space complexity tradeoffs in your approach.",
		"Break this complex problem into subproblems you can solve individually.",
	},
}

// Fallback picks the canned hint for a difficulty and level.
// Unknown difficulties use the medium table.
func Fallback(difficulty domain.Difficulty, level int) string {
	hints, ok := fallbackHints[difficulty]
	if !ok {
		hints = fallbackHints[domain.DifficultyMedium]
	}
	idx := ClampLevel(level) - 1
	if idx > len(hints)-1 {
		idx = len(hints) - 1
	}
	return hints[idx]
}
