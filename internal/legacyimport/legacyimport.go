// Package legacyimport reads the tab separated backup written by the
// Simple Time Tracker mobile app and folds it into a timesheet.
package legacyimport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/highercomve/timesheet/internal/codec"
	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/timesheet"
)

var ErrNoData = errors.New("no valid data found in the backup file")

type RecordType struct {
	ID       int
	Name     string
	Icon     string
	Color    int64
	Archived bool
}

type Record struct {
	ID        int
	TypeID    int
	StartTime time.Time
	EndTime   time.Time
	Comment   string
}

type Category struct {
	ID    int
	Name  string
	Color int64
}

type TypeCategory struct {
	TypeID     int
	CategoryID int
}

// Backup is the parsed content of an export.
type Backup struct {
	RecordTypes    []RecordType
	Records        []Record
	Categories     []Category
	TypeCategories []TypeCategory
}

// Parse reads a backup. Lines with an unknown tag or too few or malformed
// fields are skipped.
func Parse(r io.Reader) (Backup, error) {
	var b Backup
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		switch parts[0] {
		case "recordType":
			// recordType id name icon color archived ...
			if len(parts) < 6 {
				continue
			}
			id, err1 := strconv.Atoi(parts[1])
			color, err2 := strconv.ParseInt(parts[4], 10, 64)
			if err1 != nil || err2 != nil {
				continue
			}
			b.RecordTypes = append(b.RecordTypes, RecordType{
				ID: id, Name: parts[2], Icon: parts[3], Color: color, Archived: parts[5] == "1",
			})
		case "record":
			// record id typeId start end [comment]
			if len(parts) < 5 {
				continue
			}
			id, err1 := strconv.Atoi(parts[1])
			typeID, err2 := strconv.Atoi(parts[2])
			start, err3 := strconv.ParseInt(parts[3], 10, 64)
			end, err4 := strconv.ParseInt(parts[4], 10, 64)
			if err := errors.Join(err1, err2, err3, err4); err != nil {
				continue
			}
			rec := Record{ID: id, TypeID: typeID, StartTime: time.UnixMilli(start), EndTime: time.UnixMilli(end)}
			if len(parts) > 5 {
				rec.Comment = parts[5]
			}
			b.Records = append(b.Records, rec)
		case "category":
			// category id name color ...
			if len(parts) < 4 {
				continue
			}
			id, err1 := strconv.Atoi(parts[1])
			color, err2 := strconv.ParseInt(parts[3], 10, 64)
			if err1 != nil || err2 != nil {
				continue
			}
			b.Categories = append(b.Categories, Category{ID: id, Name: parts[2], Color: color})
		case "typeCategory":
			// typeCategory typeId categoryId
			if len(parts) < 3 {
				continue
			}
			typeID, err1 := strconv.Atoi(parts[1])
			catID, err2 := strconv.Atoi(parts[2])
			if err1 != nil || err2 != nil {
				continue
			}
			b.TypeCategories = append(b.TypeCategories, TypeCategory{TypeID: typeID, CategoryID: catID})
		}
	}
	if err := sc.Err(); err != nil {
		return Backup{}, fmt.Errorf("read backup: %w", err)
	}
	return b, nil
}

// Summary counts what an import added.
type Summary struct {
	Records        int
	Duplicates     int
	Projects       int
	Categories     int
	SourceProjects int
	SourceRecords  int
}

func (s Summary) String() string {
	return fmt.Sprintf("Imported %d time records, %d projects, %d categories", s.Records, s.Projects, s.Categories)
}

var courseCode = regexp.MustCompile(`^\d{3}$`)

var icons = map[string]string{
	"ic_account_balance_24px":               "🏛️",
	"ic_phone_iphone_24px":                  "📱",
	"ic_public_24px":                        "🌐",
	"ic_check_circle_24px":                  "✅",
	"ic_electric_car_24px":                  "🚗",
	"ic_airplanemode_active_24px":           "✈️",
	"ic_videogame_asset_24px":               "🎮",
	"ic_menu_book_24px":                     "📖",
	"ic_sports_motorsports_24px":            "🏍️",
	"ic_keyboard_24px":                      "⌨️",
	"ic_laptop_windows_24px":                "💻",
	"ic_train_24px":                         "🚆",
	"ic_business_center_24px":               "💼",
	"ic_local_hospital_24px":                "🏥",
	"ic_audiotrack_24px":                    "🎸",
	"ic_headset_24px":                       "🎧",
	"ic_desktop_windows_24px":               "🖥️",
	"ic_fitness_center_24px":                "🏋️",
	"ic_assignment_24px":                    "📋",
	"ic_park_24px":                          "🌳",
	"ic_restaurant_menu_24px":               "🍽️",
	"ic_airline_seat_individual_suite_24px": "🛏️",
	"ic_phone_android_24px":                 "📱",
	"ic_chat_24px":                          "💬",
	"ic_directions_car_24px":                "🚗",
	"ic_elderly_24px":                       "🚶",
	"ic_wash_24px":                          "🧼",
	"ic_airline_seat_recline_extra_24px":    "💺",
	"ic_group_24px":                         "👥",
	"ic_motorcycle_24px":                    "🏍️",
	"ic_schedule_24px":                      "⏰",
	"ic_event_note_24px":                    "📅",
	"ic_local_grocery_store_24px":           "🛒",
	"ic_query_builder_24px":                 "⏱️",
	"ic_favorite_24px":                      "❤️",
}

// Icon maps an app icon name to an emoji. Three digit codes are kept.
func Icon(name string) string {
	if e, ok := icons[name]; ok {
		return e
	}
	if courseCode.MatchString(name) {
		return name
	}
	return models.DefaultProjectIcon
}

// Apply merges b into ts in place. Categories and projects that already
// exist by name (case-insensitive) are reused; a record with the same
// project and start time as an existing one is skipped.
func Apply(ts *models.Timesheet, b Backup) (Summary, error) {
	if len(b.RecordTypes) == 0 && len(b.Records) == 0 {
		return Summary{}, ErrNoData
	}
	sum := Summary{SourceProjects: len(b.RecordTypes), SourceRecords: len(b.Records)}

	catMap := make(map[int]int, len(b.Categories))
	for _, c := range b.Categories {
		if existing, ok := timesheet.CategoryByName(*ts, c.Name); ok {
			catMap[c.ID] = existing.ID
			continue
		}
		id := models.NextID(ts.Categories)
		ts.Categories = append(ts.Categories, models.Category{
			ID:    id,
			Name:  c.Name,
			Color: codec.ARGBToHex(c.Color),
			Order: len(ts.Categories),
		})
		catMap[c.ID] = id
		sum.Categories++
	}

	typeCat := make(map[int]int, len(b.TypeCategories))
	for _, tc := range b.TypeCategories {
		if id, ok := catMap[tc.CategoryID]; ok {
			typeCat[tc.TypeID] = id
		}
	}

	projMap := make(map[int]int, len(b.RecordTypes))
	for _, rt := range b.RecordTypes {
		if existing, ok := timesheet.ProjectByName(*ts, rt.Name); ok {
			projMap[rt.ID] = existing.ID
			continue
		}
		cat, ok := typeCat[rt.ID]
		if !ok {
			cat = models.Uncategorized
		}
		id := models.NextID(ts.Projects)
		ts.Projects = append(ts.Projects, models.Project{
			ID:         id,
			Name:       rt.Name,
			Icon:       Icon(rt.Icon),
			Color:      codec.ARGBToHex(rt.Color),
			CategoryID: cat,
			Archived:   rt.Archived,
			Order:      len(ts.Projects),
		})
		projMap[rt.ID] = id
		sum.Projects++
	}

	type key struct {
		project int
		start   int64
	}
	nextID := models.NextID(ts.Records)
	seen := make(map[key]bool, len(ts.Records))
	for _, r := range ts.Records {
		seen[key{r.ProjectID, r.StartTime.Unix()}] = true
	}
	for _, r := range b.Records {
		pid, ok := projMap[r.TypeID]
		if !ok {
			continue
		}
		// the timesheet file keeps whole seconds
		k := key{pid, r.StartTime.Unix()}
		if seen[k] {
			sum.Duplicates++
			continue
		}
		seen[k] = true
		ts.Records = append(ts.Records, models.TimeRecord{
			ID:        nextID,
			ProjectID: pid,
			StartTime: timesheet.WholeSeconds(r.StartTime.In(time.Local)),
			EndTime:   models.TimePtr(timesheet.WholeSeconds(r.EndTime.In(time.Local))),
			Title:     r.Comment,
		})
		nextID++
		sum.Records++
	}
	return sum, nil
}

// Import is the store command form of Apply.
type Import struct {
	Backup  Backup
	Summary Summary
}

func (c *Import) Execute(tx *timesheet.Tx) (timesheet.Event, error) {
	sum, err := Apply(tx.Timesheet(), c.Backup)
	if err != nil {
		return timesheet.Event{}, err
	}
	c.Summary = sum
	if sum.Records == 0 && sum.Projects == 0 && sum.Categories == 0 {
		return timesheet.Event{}, nil
	}
	return timesheet.Event{Kind: timesheet.EventMerged}, nil
}
