package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/highercomve/timesheet/internal/models"
)

const (
	GroupByNone        = "None"
	GroupByDay         = "Daily"
	GroupByWeek        = "Weekly"
	GroupByWeekOfMonth = "WeeklyOfMonth"
)

// Group is a run of records sharing a grouping key.
type Group struct {
	Key     string
	Title   string
	Records []models.TimeRecord
	Total   time.Duration
}

// mondayOf returns local midnight of the Monday of t's week.
func mondayOf(t time.Time) time.Time {
	offset := int(t.Weekday())
	if offset == 0 {
		offset = 7
	}
	y, m, d := t.Date()
	return time.Date(y, m, d-offset+1, 0, 0, 0, 0, t.Location())
}

func GetWeekOfMonth(t time.Time) int {
	year, month, _ := t.Date()
	firstMonday := mondayOf(time.Date(year, month, 1, 0, 0, 0, 0, t.Location()))
	days := int(mondayOf(t).Sub(firstMonday).Hours()/24 + 0.5)
	return days/7 + 1
}

// GetWeekRange returns the Monday and Sunday of t's week.
func GetWeekRange(t time.Time) (time.Time, time.Time) {
	start := mondayOf(t)
	return start, start.AddDate(0, 0, 6)
}

func GetGroupKey(t time.Time, groupBy string) string {
	switch groupBy {
	case GroupByDay:
		return t.Format("2006-01-02")
	case GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GroupByWeekOfMonth:
		year, month, _ := t.Date()
		return fmt.Sprintf("%d-%02d-W%d", year, month, GetWeekOfMonth(t))
	}
	return ""
}

func GetGroupTitle(t time.Time, groupBy string) string {
	switch groupBy {
	case GroupByDay:
		return t.Format("Monday, 02 Jan 2006")
	case GroupByWeek:
		start, end := GetWeekRange(t)
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	case GroupByWeekOfMonth:
		start, end := GetWeekRange(t)

		// Clamp to month of t
		year, month, _ := t.Date()
		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
		lastOfMonth := firstOfMonth.AddDate(0, 1, -1)
		if start.Before(firstOfMonth) {
			start = firstOfMonth
		}
		if end.After(lastOfMonth) {
			end = lastOfMonth
		}
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	}
	return "All records"
}

// GroupRecords buckets records by the local start time, oldest group first.
// Records inside a group keep start order. Totals use now for running records.
func GroupRecords(records []models.TimeRecord, groupBy string, now time.Time) []Group {
	sorted := append([]models.TimeRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime.Before(sorted[j].StartTime) })

	var groups []Group
	index := map[string]int{}
	for _, r := range sorted {
		start := r.StartTime.Local()
		key := GetGroupKey(start, groupBy)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Title: GetGroupTitle(start, groupBy)})
		}
		groups[i].Records = append(groups[i].Records, r)
		groups[i].Total += r.Duration(now)
	}
	return groups
}
