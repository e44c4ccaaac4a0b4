package app

import (
	"sort"

	"quiz-master/internal/domain"
)

// LeaderboardSize caps how many results are retained.
const LeaderboardSize = 5

// InsertLeaderboard returns a new leaderboard with entry ranked in.
// Entries are ordered by score desc, then remaining time desc; on a full tie
// the older entry keeps the higher rank.
func InsertLeaderboard(entries []domain.LeaderboardEntry, entry domain.LeaderboardEntry) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, 0, len(entries)+1)
	out = append(out, entries...)
	out = append(out, entry)
	return rankLeaderboard(out)
}

func rankLeaderboard(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].TimeRemaining > entries[j].TimeRemaining
	})
	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}
	return entries
}
