package domain

import "time"

// LeaderboardEntry is a ranked, display-friendly view of a user.
type LeaderboardEntry struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Points   int      `json:"points"`
	Badges   []string `json:"badges"`
	Stats    Stats    `json:"stats"`
	Rank     int      `json:"rank"`
}

// Leaderboard captures an ordered scoreboard snapshot.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Pagination describes a leaderboard page.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalUsers  int64 `json:"totalUsers"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

// EntryFromUser projects a user into a leaderboard row.
func EntryFromUser(u User, rank int) LeaderboardEntry {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	return LeaderboardEntry{
		UserID:   u.ID,
		Username: u.Username,
		Points:   u.Points,
		Badges:   badges,
		Stats:    u.Stats,
		Rank:     rank,
	}
}
