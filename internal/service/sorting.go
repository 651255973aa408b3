package service

import (
	"sort"
	"strings"
	"time"

	"github.com/highercomve/timesheet/internal/models"
)

const (
	SortManual   = "manual"
	SortCategory = "category"
	SortName     = "name"
	SortColor    = "color"
	SortRecent   = "recent"
)

// SortProjects returns projects ordered for display. Unknown modes fall back
// to manual order. Ties always fall back to manual order too.
func SortProjects(ts models.Timesheet, projects []models.Project, mode string) []models.Project {
	out := append([]models.Project(nil), projects...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })

	switch mode {
	case SortCategory:
		rank := map[int]int{}
		for _, c := range ts.Categories {
			rank[c.ID] = c.Order
		}
		sort.SliceStable(out, func(i, j int) bool {
			ri, iok := rank[out[i].CategoryID]
			rj, jok := rank[out[j].CategoryID]
			if iok != jok {
				return iok
			}
			return ri < rj
		})
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortColor:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Color) < strings.ToLower(out[j].Color)
		})
	case SortRecent:
		last := map[int]time.Time{}
		for _, r := range ts.Records {
			if r.StartTime.After(last[r.ProjectID]) {
				last[r.ProjectID] = r.StartTime
			}
		}
		// never used projects end up last
		sort.SliceStable(out, func(i, j int) bool {
			return last[out[i].ID].After(last[out[j].ID])
		})
	}
	return out
}
