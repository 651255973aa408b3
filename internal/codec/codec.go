// Package codec reads and writes the comma separated timesheet and
// timeblocks files. Every line starts with a row tag; quoting follows
// RFC 4180. Parsing is lenient: bad lines are skipped and reported,
// unknown tags are ignored.
package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/highercomve/timesheet/internal/models"
)

// Result is the outcome of parsing a timesheet file.
type Result struct {
	Timesheet models.Timesheet
	Errors    []RowError
}

// TimeblockResult is the outcome of parsing a timeblocks file.
type TimeblockResult struct {
	Timeblocks []models.Timeblock
	Errors     []RowError
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return cr
}

// readRows feeds every well formed row to fn. Lines the csv reader cannot
// split, and rows ParseRow rejects, are collected as RowErrors. Only a
// failing reader aborts.
func readRows(r io.Reader, fn func(Row)) ([]RowError, error) {
	cr := newReader(r)
	var errs []RowError
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return errs, nil
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			errs = append(errs, RowError{Line: pe.StartLine, Err: pe.Err})
			continue
		}
		if err != nil {
			return errs, err
		}
		line, _ := cr.FieldPos(0)
		row, err := ParseRow(fields)
		if errors.Is(err, ErrUnknownRow) {
			continue
		}
		if err != nil {
			errs = append(errs, RowError{Line: line, Fields: fields, Err: err})
			continue
		}
		fn(row)
	}
}

// Parse reads a timesheet. The returned error is non-nil only when r fails.
func Parse(r io.Reader) (*Result, error) {
	res := &Result{Timesheet: models.Timesheet{
		Records:    []models.TimeRecord{},
		Projects:   []models.Project{},
		Categories: []models.Category{},
	}}
	var records []RecordRow

	errs, err := readRows(r, func(row Row) {
		switch v := row.(type) {
		case CategoryRow:
			v.Category.Order = len(res.Timesheet.Categories)
			res.Timesheet.Categories = append(res.Timesheet.Categories, v.Category)
		case ProjectRow:
			v.Project.Order = len(res.Timesheet.Projects)
			res.Timesheet.Projects = append(res.Timesheet.Projects, v.Project)
		case RecordRow:
			records = append(records, v)
		}
	})
	res.Errors = errs
	if err != nil {
		return nil, fmt.Errorf("read timesheet: %w", err)
	}

	for _, rr := range records {
		res.Timesheet.Records = append(res.Timesheet.Records, models.TimeRecord{
			ID:        rr.ID,
			ProjectID: resolveProject(res.Timesheet.Projects, rr.Project),
			StartTime: rr.StartTime,
			EndTime:   rr.EndTime,
			Title:     rr.Title,
		})
	}
	return res, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(text string) *Result {
	res, _ := Parse(strings.NewReader(text))
	return res
}

// resolveProject maps the record project column to an id: a project name
// first, then a bare numeric id (dangling ids are kept), else NoProject.
func resolveProject(projects []models.Project, ref string) int {
	if ref == "" {
		return models.NoProject
	}
	for _, p := range projects {
		if p.Name == ref {
			return p.ID
		}
	}
	if id, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		return id
	}
	return models.NoProject
}

func projectRef(projects []models.Project, id int) string {
	if id == models.NoProject {
		return ""
	}
	for _, p := range projects {
		if p.ID == id {
			return p.Name
		}
	}
	return strconv.Itoa(id)
}

// Serialize writes categories, then projects, then records. Categories and
// projects are written in display order.
func Serialize(w io.Writer, t models.Timesheet) error {
	cw := csv.NewWriter(w)

	categories := append([]models.Category(nil), t.Categories...)
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].Order < categories[j].Order })
	for _, c := range categories {
		if err := cw.Write([]string{
			TagCategory, strconv.Itoa(c.ID), c.Name, c.Color, formatBool(c.Archived),
		}); err != nil {
			return err
		}
	}

	projects := append([]models.Project(nil), t.Projects...)
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].Order < projects[j].Order })
	for _, p := range projects {
		if err := cw.Write([]string{
			TagProject, strconv.Itoa(p.ID), p.Name, p.Icon, p.Color, formatBool(p.Archived), strconv.Itoa(p.CategoryID),
		}); err != nil {
			return err
		}
	}

	for _, r := range t.Records {
		end := ""
		if r.EndTime != nil {
			end = FormatTime(*r.EndTime)
		}
		if err := cw.Write([]string{
			TagRecord, strconv.Itoa(r.ID), projectRef(t.Projects, r.ProjectID), FormatTime(r.StartTime), end, r.Title,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SerializeString is Serialize into a string.
func SerializeString(t models.Timesheet) string {
	var buf bytes.Buffer
	// bytes.Buffer never fails a write.
	_ = Serialize(&buf, t)
	return buf.String()
}

// ParseTimeblocks reads a timeblocks file; non-timeblock rows are ignored.
func ParseTimeblocks(r io.Reader) (*TimeblockResult, error) {
	res := &TimeblockResult{Timeblocks: []models.Timeblock{}}
	errs, err := readRows(r, func(row Row) {
		if v, ok := row.(TimeblockRow); ok {
			res.Timeblocks = append(res.Timeblocks, v.Timeblock)
		}
	})
	res.Errors = errs
	if err != nil {
		return nil, fmt.Errorf("read timeblocks: %w", err)
	}
	return res, nil
}

func SerializeTimeblocks(w io.Writer, blocks []models.Timeblock) error {
	cw := csv.NewWriter(w)
	for _, b := range blocks {
		if err := cw.Write([]string{
			TagTimeblock, strconv.Itoa(b.ID), b.Title, FormatTime(b.StartTime), FormatTime(b.EndTime), b.Color, b.Notes,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
