package domain

import "time"

// Role gates administrative endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Stats are the attempt counters kept per user.
type Stats struct {
	ChallengesCompleted int `json:"challengesCompleted" bson:"challengesCompleted"`
	TotalAttempts       int `json:"totalAttempts" bson:"totalAttempts"`
	SuccessfulAttempts  int `json:"successfulAttempts" bson:"successfulAttempts"`
	CurrentAccuracy     int `json:"currentAccuracy" bson:"currentAccuracy"`
}

// Completion records one successful challenge run.
type Completion struct {
	ChallengeID     string    `json:"challengeId" bson:"challengeId"`
	CompletedAt     time.Time `json:"completedAt" bson:"completedAt"`
	Score           int       `json:"score" bson:"score"`
	ExecutionTimeMs int64     `json:"executionTime" bson:"executionTime"`
}

// User is a learner account with its gamification state.
// Version increments on every progress write and guards concurrent updates.
type User struct {
	ID                  string       `json:"id"`
	Username            string       `json:"username"`
	Email               string       `json:"email"`
	FullName            string       `json:"fullName"`
	PasswordHash        string       `json:"-"`
	Role                Role         `json:"role"`
	Points              int          `json:"points"`
	Badges              []string     `json:"badges"`
	Stats               Stats        `json:"stats"`
	CompletedChallenges []Completion `json:"completedChallenges"`
	RecentSubmissions   []string     `json:"-"`
	Version             int64        `json:"-"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// HasBadge reports whether the badge id is already earned.
func (u User) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// Badge is a registry entry describing an achievement.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

// Progress is the outcome of applying one evaluation to a user.
type Progress struct {
	PointsEarned int      `json:"pointsEarned"`
	NewBadges    []string `json:"newBadges"`
	TotalPoints  int      `json:"totalPoints"`
	Stats        Stats    `json:"stats"`
}

// ProfileUpdate holds the self-service profile fields. Empty values are ignored.
type ProfileUpdate struct {
	FullName string
	Email    string
}
