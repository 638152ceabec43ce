package cli

import (
	"context"
	"time"

	"gamified-learning/internal/app"
	"gamified-learning/internal/config"
	"gamified-learning/internal/domain"
	"gamified-learning/internal/infra/memory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type seedOptions struct {
	adminUsername string
	adminEmail    string
	adminPassword string
}

// NewSeedCmd loads the starter challenges and optionally an admin account into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var opts seedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert starter challenges and an optional admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, opts)
		},
	}
	cmd.Flags().StringVar(&opts.adminUsername, "admin-username", "admin", "admin username")
	cmd.Flags().StringVar(&opts.adminEmail, "admin-email", "admin@example.com", "admin email")
	cmd.Flags().StringVar(&opts.adminPassword, "admin-password", "", "admin password; no admin is created when empty")
	return cmd
}

func runSeed(ctx context.Context, configPath string, opts seedOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	challenges := app.NewChallengeService(b.store.Challenges, memory.NewChallengeCache(b.store.Challenges, 0), log)
	for _, c := range sampleChallenges() {
		if _, err := challenges.Create(ctx, c, "seed"); err != nil {
			return err
		}
	}
	log.Info("challenges seeded", zap.Int("count", len(sampleChallenges())))

	if opts.adminPassword == "" {
		return nil
	}
	auth := app.NewAuthService(b.store.Users, nil, bcrypt.DefaultCost, log)
	_, err = auth.CreateUser(ctx, app.Registration{
		Username: opts.adminUsername,
		Email:    opts.adminEmail,
		Password: opts.adminPassword,
		FullName: "Administrator",
	}, domain.RoleAdmin)
	return err
}

// sampleChallenges is the starter catalogue. The in-memory store is preloaded with it.
func sampleChallenges() []domain.Challenge {
	created := time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC)
	return []domain.Challenge{
		{
			ID:          "sum-two-numbers",
			Title:       "Sum Two Numbers",
			Description: "Return the sum of input.a and input.b.",
			Content:     "Write `function solution(input)` returning `input.a + input.b`.",
			Difficulty:  domain.DifficultyEasy,
			Category:    "basics",
			Points:      50,
			Language:    domain.LanguageJavaScript,
			TestCases: []domain.TestCase{
				{Input: map[string]any{"a": 1, "b": 2}, ExpectedOutput: 3},
				{Input: map[string]any{"a": -4, "b": 4}, ExpectedOutput: 0},
				{Input: map[string]any{"a": 1000, "b": 2345}, ExpectedOutput: 3345, Hidden: true},
			},
			Active:    true,
			CreatedAt: created,
		},
		{
			ID:          "reverse-string",
			Title:       "Reverse a String",
			Description: "Return the input string reversed.",
			Difficulty:  domain.DifficultyEasy,
			Category:    "strings",
			Points:      50,
			Language:    domain.LanguageJavaScript,
			TestCases: []domain.TestCase{
				{Input: "hello", ExpectedOutput: "olleh"},
				{Input: "", ExpectedOutput: ""},
				{Input: "racecar", ExpectedOutput: "racecar", Hidden: true},
			},
			Active:    true,
			CreatedAt: created.Add(time.Minute),
		},
		{
			ID:          "fizzbuzz",
			Title:       "FizzBuzz",
			Description: "Return an array of the FizzBuzz sequence from 1 to n.",
			Difficulty:  domain.DifficultyMedium,
			Category:    "loops",
			Points:      100,
			Language:    domain.LanguageJavaScript,
			TestCases: []domain.TestCase{
				{Input: 3, ExpectedOutput: []any{"1", "2", "Fizz"}},
				{Input: 5, ExpectedOutput: []any{"1", "2", "Fizz", "4", "Buzz"}},
				{Input: 15, ExpectedOutput: []any{"1", "2", "Fizz", "4", "Buzz", "Fizz", "7", "8", "Fizz", "Buzz", "11", "Fizz", "13", "14", "FizzBuzz"}, Hidden: true},
			},
			Active:    true,
			CreatedAt: created.Add(2 * time.Minute),
		},
		{
			ID:          "group-anagrams",
			Title:       "Group Anagrams",
			Description: "Group words that are anagrams of each other. Sort words inside each group and sort groups by their first word.",
			Difficulty:  domain.DifficultyHard,
			Category:    "hashing",
			Points:      200,
			Language:    domain.LanguageJavaScript,
			TestCases: []domain.TestCase{
				{Input: []any{"eat", "tea", "tan", "ate", "nat", "bat"}, ExpectedOutput: []any{[]any{"ate", "eat", "tea"}, []any{"bat"}, []any{"nat", "tan"}}},
				{Input: []any{}, ExpectedOutput: []any{}},
			},
			Active:    true,
			CreatedAt: created.Add(3 * time.Minute),
		},
	}
}
