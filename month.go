package milkyway

import (
	"fmt"
	"sort"
)

// MonthPrefix returns the date prefix selecting a calendar month,
// e.g. (2024, 3) -> "2024-03-". Month is 1-indexed.
func MonthPrefix(year, month int) string {
	return fmt.Sprintf("%04d-%02d-", year, month)
}

// GroupByMonth projects records onto a calendar month: records whose date
// carries the month prefix, grouped by exact date, each group sorted
// ascending by creation time. This is the local counterpart of the record
// store's month query and must order identically for identical data.
func GroupByMonth(records []Record, year, month int) map[string][]Record {
	prefix := MonthPrefix(year, month)
	byDate := make(map[string][]Record)
	for _, r := range records {
		if len(r.Date) >= len(prefix) && r.Date[:len(prefix)] == prefix {
			byDate[r.Date] = append(byDate[r.Date], r)
		}
	}
	for date := range byDate {
		group := byDate[date]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt < group[j].CreatedAt
		})
	}
	return byDate
}

// SortNewestFirst orders records descending by creation time, the order
// of the full listing.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
}
