package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/highercomve/timesheet/internal/models"
)

const (
	TagCategory  = "category"
	TagProject   = "project"
	TagRecord    = "record"
	TagTimeblock = "timeblock"
)

var (
	// ErrUnknownRow is returned by ParseRow for tags this version does not know.
	// Parse skips such rows without reporting them.
	ErrUnknownRow = errors.New("unknown row type")
	ErrShortRow   = errors.New("missing required fields")
)

// Row is one parsed line of a timesheet or timeblocks file.
type Row interface {
	Tag() string
}

type CategoryRow struct {
	Category models.Category
}

type ProjectRow struct {
	Project models.Project
}

// RecordRow keeps the raw project reference; it is resolved once every
// project row of the file is known.
type RecordRow struct {
	ID        int
	Project   string
	StartTime time.Time
	EndTime   *time.Time
	Title     string
}

type TimeblockRow struct {
	Timeblock models.Timeblock
}

func (CategoryRow) Tag() string  { return TagCategory }
func (ProjectRow) Tag() string   { return TagProject }
func (RecordRow) Tag() string    { return TagRecord }
func (TimeblockRow) Tag() string { return TagTimeblock }

// RowError describes a skipped line.
type RowError struct {
	Line   int
	Fields []string
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ParseRow turns the fields of a single line into a Row.
func ParseRow(fields []string) (Row, error) {
	if len(fields) == 0 {
		return nil, ErrShortRow
	}
	switch strings.TrimSpace(fields[0]) {
	case TagCategory:
		return parseCategory(fields)
	case TagProject:
		return parseProject(fields)
	case TagRecord:
		return parseRecord(fields)
	case TagTimeblock:
		return parseTimeblock(fields)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRow, fields[0])
}

// category,<id>,<name>,<color>[,<archived>]
func parseCategory(f []string) (Row, error) {
	if len(f) < 4 {
		return nil, fmt.Errorf("category: %w", ErrShortRow)
	}
	id, err := parseID(f[1])
	if err != nil {
		return nil, fmt.Errorf("category: %w", err)
	}
	c := models.Category{ID: id, Name: f[2], Color: NormalizeColor(f[3])}
	if len(f) > 4 {
		c.Archived = parseBool(f[4])
	}
	return CategoryRow{Category: c}, nil
}

// project,<id>,<name>,<icon>,<color>[,<archived>[,<categoryId>]]
func parseProject(f []string) (Row, error) {
	if len(f) < 5 {
		return nil, fmt.Errorf("project: %w", ErrShortRow)
	}
	id, err := parseID(f[1])
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	p := models.Project{
		ID:         id,
		Name:       f[2],
		Icon:       f[3],
		Color:      NormalizeColor(f[4]),
		CategoryID: models.Uncategorized,
	}
	if len(f) > 5 {
		p.Archived = parseBool(f[5])
	}
	if len(f) > 6 {
		if cat, err := strconv.Atoi(strings.TrimSpace(f[6])); err == nil {
			p.CategoryID = cat
		}
	}
	return ProjectRow{Project: p}, nil
}

// record,<id>,<project>,<start>[,<end>[,<title>]]
func parseRecord(f []string) (Row, error) {
	if len(f) < 4 {
		return nil, fmt.Errorf("record: %w", ErrShortRow)
	}
	id, err := parseID(f[1])
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	start, err := ParseTime(f[3])
	if err != nil {
		return nil, fmt.Errorf("record start: %w", err)
	}
	r := RecordRow{ID: id, Project: f[2], StartTime: start}
	if len(f) > 4 && strings.TrimSpace(f[4]) != "" {
		end, err := ParseTime(f[4])
		if err != nil {
			return nil, fmt.Errorf("record end: %w", err)
		}
		r.EndTime = &end
	}
	if len(f) > 5 {
		r.Title = f[5]
	}
	return r, nil
}

// timeblock,<id>,<title>,<start>,<end>[,<color>[,<notes>]]
func parseTimeblock(f []string) (Row, error) {
	if len(f) < 5 {
		return nil, fmt.Errorf("timeblock: %w", ErrShortRow)
	}
	id, err := parseID(f[1])
	if err != nil {
		return nil, fmt.Errorf("timeblock: %w", err)
	}
	start, err := ParseTime(f[3])
	if err != nil {
		return nil, fmt.Errorf("timeblock start: %w", err)
	}
	end, err := ParseTime(f[4])
	if err != nil {
		return nil, fmt.Errorf("timeblock end: %w", err)
	}
	b := models.Timeblock{ID: id, Title: f[2], StartTime: start, EndTime: end, Color: models.DefaultTimeblockColor}
	if len(f) > 5 && strings.TrimSpace(f[5]) != "" {
		b.Color = NormalizeColor(f[5])
	}
	if len(f) > 6 {
		b.Notes = f[6]
	}
	return TimeblockRow{Timeblock: b}, nil
}
