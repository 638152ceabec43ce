package domain

import "time"

// Difficulty grades a challenge.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// LanguageJavaScript is the default (and currently only executable) submission language.
const LanguageJavaScript = "javascript"

// TestCase is an (input, expected output) pair. Input and ExpectedOutput hold decoded JSON values.
type TestCase struct {
	Input          any    `json:"input"`
	ExpectedOutput any    `json:"expectedOutput"`
	Description    string `json:"description,omitempty"`
	Hidden         bool   `json:"hidden"`
}

// Challenge is a coding exercise with ordered test cases.
type Challenge struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Content          string     `json:"content"`
	Difficulty       Difficulty `json:"difficulty"`
	Category         string     `json:"category"`
	Points           int        `json:"points"`
	Language         string     `json:"language"`
	TestCases        []TestCase `json:"testCases,omitempty"`
	CreatedBy        string     `json:"createdBy"`
	Active           bool       `json:"active"`
	TotalSubmissions int        `json:"totalSubmissions"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// PublicView returns a copy safe to show to submitters: hidden test cases are dropped.
func (c Challenge) PublicView() Challenge {
	visible := make([]TestCase, 0, len(c.TestCases))
	for _, tc := range c.TestCases {
		if !tc.Hidden {
			visible = append(visible, tc)
		}
	}
	c.TestCases = visible
	return c
}

// Summary strips test cases entirely, used by list views.
func (c Challenge) Summary() Challenge {
	c.TestCases = nil
	c.Content = ""
	return c
}

// ChallengeFilter narrows challenge listings.
type ChallengeFilter struct {
	Difficulty      string
	Category        string
	IncludeInactive bool
}

// ChallengePatch lists the fields an update may change. Nil or empty fields are left untouched.
type ChallengePatch struct {
	Title       *string
	Description *string
	Content     *string
	Difficulty  *Difficulty
	Category    *string
	Points      *int
	TestCases   []TestCase
	Active      *bool
}

// Apply returns c with the non-empty patch fields applied.
func (c Challenge) Apply(p ChallengePatch) Challenge {
	if p.Title != nil && *p.Title != "" {
		c.Title = *p.Title
	}
	if p.Description != nil && *p.Description != "" {
		c.Description = *p.Description
	}
	if p.Content != nil && *p.Content != "" {
		c.Content = *p.Content
	}
	if p.Difficulty != nil && *p.Difficulty != "" {
		c.Difficulty = *p.Difficulty
	}
	if p.Category != nil && *p.Category != "" {
		c.Category = *p.Category
	}
	if p.Points != nil && *p.Points > 0 {
		c.Points = *p.Points
	}
	if len(p.TestCases) > 0 {
		c.TestCases = p.TestCases
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	return c
}
