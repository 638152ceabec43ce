package hint

import (
	"context"
	"fmt"
	"strings"

	"gamified-learning/internal/domain"
	"go.uber.org/zap"
)

const (
	MinLevel = 1
	MaxLevel = 3
)

// Prompt is a chat-style request for a text generation model.
type Prompt struct {
	System string
	User   string
}

// Generator produces hint text. Implementations talk to an external model.
type Generator interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Request carries everything needed to phrase a hint.
type Request struct {
	Description string
	Difficulty  domain.Difficulty
	Code        string
	Language    string
	Level       int
}

// Hint is the advisor's answer. Fallback is set when the canned table was used.
type Hint struct {
	Text     string `json:"hint"`
	Level    int    `json:"level"`
	Fallback bool   `json:"is_fallback"`
}

// Advisor produces progressive hints and never fails: any generator problem degrades to a canned hint.
type Advisor struct {
	gen Generator
	log *zap.Logger
}

// NewAdvisor accepts a nil generator, in which case every hint comes from the fallback table.
func NewAdvisor(gen Generator, log *zap.Logger) *Advisor {
	return &Advisor{gen: gen, log: log}
}

// ClampLevel forces a hint level into [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

func (a *Advisor) Hint(ctx context.Context, req Request) Hint {
	level := ClampLevel(req.Level)
	if a.gen == nil {
		return Hint{Text: Fallback(req.Difficulty, level), Level: level, Fallback: true}
	}

	text, err := a.gen.Complete(ctx, BuildPrompt(req, level))
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		a.log.Warn("hint generation failed, using fallback",
			zap.Error(err),
			zap.String("difficulty", string(req.Difficulty)),
			zap.Int("level", level))
		return Hint{Text: Fallback(req.Difficulty, level), Level: level, Fallback: true}
	}
	return Hint{Text: text, Level: level}
}

func explicitness(level int) string {
	switch level {
	case 1:
		return "subtle"
	case 2:
		return "clear"
	default:
		return "detailed"
	}
}

// BuildPrompt renders the instructor persona and the learner's context for one level.
func BuildPrompt(req Request, level int) Prompt {
	strength := explicitness(level)
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyMedium
	}
	language := req.Language
	if language == "" {
		language = domain.LanguageJavaScript
	}

	system := fmt.Sprintf("You are a helpful coding instructor that provides %s hints to students. "+
		"You should guide learners without giving away complete solutions. "+
		"For level %d hints, provide %s guidance appropriate for %s difficulty challenges. "+
		"Your hints should be concise, educational, and promote learning.",
		strength, level, strength, difficulty)

	var user strings.Builder
	fmt.Fprintf(&user, "I'm working on this %s challenge: %q", language, req.Description)
	if strings.TrimSpace(req.Code) != "" {
		fmt.Fprintf(&user, "\n\nHere's my current code:\n```%s\n%s\n```", language, req.Code)
	}
	fmt.Fprintf(&user, "\n\nPlease provide a %s hint to help me progress without giving away the full solution.", strength)

	return Prompt{System: system, User: user.String()}
}
