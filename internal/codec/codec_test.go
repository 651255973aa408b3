package codec

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highercomve/timesheet/internal/models"
)

func at(h, m int) time.Time {
	return time.Date(2024, time.March, 4, h, m, 0, 0, time.Local)
}

func sampleTimesheet() models.Timesheet {
	return models.Timesheet{
		Categories: []models.Category{
			{ID: 1, Name: "Uncategorized", Color: "#88C0D0", Order: 0},
			{ID: 2, Name: "Work, paid", Color: "#ff0000", Archived: true, Order: 1},
		},
		Projects: []models.Project{
			{ID: 1, Name: "Code", Icon: "💻", Color: "#00ff00", CategoryID: 2, Order: 0},
			{ID: 2, Name: `Say "hi"`, Icon: "📌", Color: "#0000ff", CategoryID: models.Uncategorized, Archived: true, Order: 1},
		},
		Records: []models.TimeRecord{
			{ID: 1, ProjectID: 1, StartTime: at(9, 0), EndTime: models.TimePtr(at(10, 30)), Title: "review, merge"},
			{ID: 2, ProjectID: 2, StartTime: at(11, 0), EndTime: models.TimePtr(at(11, 15)), Title: "multi\nline"},
			{ID: 3, ProjectID: models.NoProject, StartTime: at(12, 0), EndTime: models.TimePtr(at(12, 5))},
			{ID: 5, ProjectID: 2, StartTime: at(13, 0)},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	ts := sampleTimesheet()

	res := ParseString(SerializeString(ts))

	require.Empty(t, res.Errors)
	assert.True(t, ts.Equal(res.Timesheet), "round trip changed the timesheet:\n%s", SerializeString(res.Timesheet))
}

func TestRoundTripFreshTimesheet(t *testing.T) {
	ts := models.NewTimesheet()
	text := SerializeString(ts)

	assert.Equal(t, "category,1,Uncategorized,#88C0D0,0\n", text)

	res := ParseString(text)
	require.Empty(t, res.Errors)
	assert.True(t, ts.Equal(res.Timesheet))
	assert.Empty(t, res.Timesheet.Projects)
	assert.Empty(t, res.Timesheet.Records)
}

func TestRunningRecordHasEmptyEndField(t *testing.T) {
	ts := models.Timesheet{
		Projects: []models.Project{{ID: 2, Name: "P", CategoryID: -1}},
		Records:  []models.TimeRecord{{ID: 5, ProjectID: 2, StartTime: at(8, 0)}},
	}

	text := SerializeString(ts)
	assert.Contains(t, text, "record,5,P,2024-03-04 08:00:00,,\n")

	res := ParseString(text)
	require.Len(t, res.Timesheet.Records, 1)
	assert.Nil(t, res.Timesheet.Records[0].EndTime)
	assert.Equal(t, 2, res.Timesheet.Records[0].ProjectID)
}

func TestDanglingProjectIDSurvives(t *testing.T) {
	ts := models.Timesheet{
		Records: []models.TimeRecord{{ID: 1, ProjectID: 42, StartTime: at(8, 0), EndTime: models.TimePtr(at(9, 0))}},
	}

	res := ParseString(SerializeString(ts))

	require.Len(t, res.Timesheet.Records, 1)
	assert.Equal(t, 42, res.Timesheet.Records[0].ProjectID)
}

func TestParseIsLenient(t *testing.T) {
	text := strings.Join([]string{
		"category,1,Work,#ff0000,0",
		"timeblock,1,Plan,2024-03-04 08:00:00,2024-03-04 09:00:00",
		"record,x,Code,2024-03-04 10:00:00,,t",
		"record,2,Code,zzz,,t",
		"record,3,Code,2024-03-04 10:00:00,2024-03-04 11:00:00,later project row",
		"project,1,Code,💻,#00ff00,0,1",
		"project,2",
		"future,1,2,3",
		"",
	}, "\n")

	res, err := Parse(strings.NewReader(text))
	require.NoError(t, err)

	require.Len(t, res.Errors, 3)
	assert.Equal(t, 3, res.Errors[0].Line)
	assert.Equal(t, 4, res.Errors[1].Line)
	assert.Equal(t, 7, res.Errors[2].Line)
	assert.True(t, errors.Is(res.Errors[2], ErrShortRow))

	require.Len(t, res.Timesheet.Records, 1)
	assert.Equal(t, 1, res.Timesheet.Records[0].ProjectID)
	require.Len(t, res.Timesheet.Projects, 1)
	require.Len(t, res.Timesheet.Categories, 1)
}

func TestParseToleratesMissingTrailingFields(t *testing.T) {
	res := ParseString("category,3,Home,#123456\nproject,4,Gym,🏋️,#abcdef\nrecord,1,Gym,2024-03-04 07:00:00\n")

	require.Empty(t, res.Errors)
	assert.False(t, res.Timesheet.Categories[0].Archived)
	assert.Equal(t, models.Uncategorized, res.Timesheet.Projects[0].CategoryID)
	require.Len(t, res.Timesheet.Records, 1)
	assert.True(t, res.Timesheet.Records[0].Running())
	assert.Equal(t, "", res.Timesheet.Records[0].Title)
}

func TestParseLegacyFields(t *testing.T) {
	start := time.Date(2023, 5, 6, 7, 8, 9, 0, time.Local)
	text := "project,1,Old,x,-16776961,true,abc\n" +
		"record,1,1," + itoa(start.UnixMilli()) + ",2023-05-06T08:00:00,legacy\n"

	res := ParseString(text)

	require.Empty(t, res.Errors)
	p := res.Timesheet.Projects[0]
	assert.Equal(t, "#0000ff", p.Color)
	assert.True(t, p.Archived)
	assert.Equal(t, models.Uncategorized, p.CategoryID)

	r := res.Timesheet.Records[0]
	assert.Equal(t, 1, r.ProjectID)
	assert.True(t, r.StartTime.Equal(start))
	require.NotNil(t, r.EndTime)
	assert.Equal(t, 8, r.EndTime.Hour())
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#FF00FF", "#FF00FF"},
		{"#abc", "#abc"},
		{"-16776961", "#0000ff"},
		{"4294901760", "#ff0000"},
		{"-1", "#ffffff"},
		{"0", "#000000"},
		{"teal", "teal"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColor(tt.in))
		})
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)

	got, err := ParseTime("2024-01-02 03:04:05")
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	got, err = ParseTime(itoa(want.UnixMilli()))
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	_, err = ParseTime("")
	assert.Error(t, err)
	_, err = ParseTime("zzz")
	assert.Error(t, err)
}

func TestTimeblocksRoundTrip(t *testing.T) {
	blocks := []models.Timeblock{
		{ID: 1, Title: "Deep work", StartTime: at(9, 0), EndTime: at(11, 0), Color: "#6b7280", Notes: "no, meetings"},
		{ID: 2, Title: "Lunch", StartTime: at(12, 0), EndTime: at(13, 0), Color: "#a3be8c"},
	}
	var sb strings.Builder
	require.NoError(t, SerializeTimeblocks(&sb, blocks))

	res, err := ParseTimeblocks(strings.NewReader(sb.String() + "record,1,x,2024-03-04 10:00:00,,\n"))
	require.NoError(t, err)
	require.Len(t, res.Timeblocks, 2)
	for i := range blocks {
		assert.Equal(t, blocks[i].Title, res.Timeblocks[i].Title)
		assert.Equal(t, blocks[i].Notes, res.Timeblocks[i].Notes)
		assert.True(t, blocks[i].StartTime.Equal(res.Timeblocks[i].StartTime))
		assert.True(t, blocks[i].EndTime.Equal(res.Timeblocks[i].EndTime))
	}
}

func TestTimeblockDefaultColor(t *testing.T) {
	res, err := ParseTimeblocks(strings.NewReader("timeblock,1,Plan,2024-03-04 08:00:00,2024-03-04 09:00:00,,\n"))
	require.NoError(t, err)
	require.Len(t, res.Timeblocks, 1)
	assert.Equal(t, models.DefaultTimeblockColor, res.Timeblocks[0].Color)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
