package syncer

import "time"

// AutoSeason returns the heuristic current season for a date. European
// seasons roll over in August: from August onward the season is the
// calendar year, before that it is the previous year.
func AutoSeason(now time.Time) int {
	if now.Month() >= time.August {
		return now.Year()
	}
	return now.Year() - 1
}

// SeasonCandidates builds the ordered, de-duplicated list of seasons to try
// for a league: the store-known current season first, then the auto-detected
// season, then the season before it, then any other previously observed
// seasons. Trying the most likely season first minimizes wasted calls.
//
// Edge cases:
//   - zero recorded seasons in the store: only the auto-detected season;
//   - auto-detected season equal to the stale sentinel year: the heuristic
//     is considered broken and store-known seasons are used exclusively.
func SeasonCandidates(stored int, history []int, now time.Time, staleYear int) []int {
	auto := AutoSeason(now)

	if auto == staleYear {
		var candidates []int
		if stored != 0 {
			candidates = append(candidates, stored)
		}
		candidates = append(candidates, history...)
		return dedupSeasons(candidates)
	}

	if stored == 0 && len(history) == 0 {
		return []int{auto}
	}

	var candidates []int
	if stored != 0 {
		candidates = append(candidates, stored)
	}
	candidates = append(candidates, auto, auto-1)
	candidates = append(candidates, history...)
	return dedupSeasons(candidates)
}

// dedupSeasons keeps first occurrences, dropping zero years
func dedupSeasons(seasons []int) []int {
	seen := make(map[int]bool, len(seasons))
	out := make([]int, 0, len(seasons))
	for _, year := range seasons {
		if year == 0 || seen[year] {
			continue
		}
		seen[year] = true
		out = append(out, year)
	}
	return out
}
