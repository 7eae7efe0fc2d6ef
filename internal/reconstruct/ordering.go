package reconstruct

import (
	"sort"

	"poolscope/internal/domain"
)

// SortSwapEvents orders swaps by (timestamp ASC, logIndex ASC). Timestamps
// are monotonic per emission order but not globally unique, so the log
// index breaks ties deterministically.
func SortSwapEvents(events []*domain.SwapEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].LogIndex < events[j].LogIndex
	})
}

// SortLiquidityEvents orders liquidity modifications by
// (timestamp ASC, logIndex ASC).
func SortLiquidityEvents(events []*domain.ModifyLiquidityEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].LogIndex < events[j].LogIndex
	})
}
