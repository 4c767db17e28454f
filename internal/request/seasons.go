package request

import "github.com/requesterrr/requesterrr/internal/metadata"

// BuildSeasonPayload computes the per-season monitor list for a series
// acquisition command. mode=all monitors every canonical season;
// mode=custom monitors only the selected numbers that exist in the
// canonical list. Selected numbers with no canonical season are
// ignored. An empty canonical list yields an empty payload regardless
// of mode.
func BuildSeasonPayload(seasons []metadata.SeasonInfo, mode SeasonMode, selected []int) []SeasonMonitor {
	numbers := make([]int, 0, len(seasons))
	for _, s := range seasons {
		if s.SeasonNumber > 0 {
			numbers = append(numbers, s.SeasonNumber)
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	selectedSet := make(map[int]bool, len(selected))
	for _, n := range selected {
		if n > 0 {
			selectedSet[n] = true
		}
	}

	payload := make([]SeasonMonitor, 0, len(numbers))
	for _, n := range numbers {
		monitored := mode == SeasonModeAll || selectedSet[n]
		payload = append(payload, SeasonMonitor{SeasonNumber: n, Monitored: monitored})
	}
	return payload
}

// monitoredCount reports how many payload entries are monitored.
func monitoredCount(payload []SeasonMonitor) int {
	count := 0
	for _, s := range payload {
		if s.Monitored {
			count++
		}
	}
	return count
}
