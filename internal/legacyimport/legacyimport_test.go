package legacyimport

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highercomve/timesheet/internal/codec"
	"github.com/highercomve/timesheet/internal/models"
)

const backup = "recordType\t1\tWork\tic_laptop_windows_24px\t-16776961\t0\n" +
	"recordType\t2\tGym\tic_fitness_center_24px\t-65536\t1\n" +
	"recordType\t3\tMath\t101\t-1\t0\n" +
	"recordType\t4\tOther\tic_unknown\t0\t0\n" +
	"recordType\tbroken\n" +
	"category\t10\tJob\t-16711936\n" +
	"typeCategory\t1\t10\n" +
	"record\t1\t1\t1709542800000\t1709546400000\tstandup\n" +
	"record\t2\t2\t1709550000000\t1709553600000\n" +
	"record\t3\t99\t1709550000000\t1709553600000\torphan\n" +
	"record\tx\t1\t0\t0\n" +
	"runningRecord\t1\t1\t0\n"

func TestParse(t *testing.T) {
	b, err := Parse(strings.NewReader(backup))
	require.NoError(t, err)

	assert.Len(t, b.RecordTypes, 4)
	assert.Len(t, b.Records, 3)
	assert.Len(t, b.Categories, 1)
	assert.Len(t, b.TypeCategories, 1)
	assert.True(t, b.RecordTypes[1].Archived)
	assert.Equal(t, "standup", b.Records[0].Comment)
	assert.Equal(t, int64(1709542800000), b.Records[0].StartTime.UnixMilli())
}

func TestApply(t *testing.T) {
	b, err := Parse(strings.NewReader(backup))
	require.NoError(t, err)
	ts := models.NewTimesheet()
	ts.Projects = append(ts.Projects, models.Project{ID: 1, Name: "gym", CategoryID: -1})

	sum, err := Apply(&ts, b)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Records)
	assert.Equal(t, 3, sum.Projects)
	assert.Equal(t, 1, sum.Categories)
	assert.Equal(t, "Imported 2 time records, 3 projects, 1 categories", sum.String())

	require.Len(t, ts.Categories, 2)
	job := ts.Categories[1]
	assert.Equal(t, "Job", job.Name)
	assert.Equal(t, "#00ff00", job.Color)

	byName := map[string]models.Project{}
	for _, p := range ts.Projects {
		byName[p.Name] = p
	}
	assert.Equal(t, "💻", byName["Work"].Icon)
	assert.Equal(t, "#0000ff", byName["Work"].Color)
	assert.Equal(t, job.ID, byName["Work"].CategoryID)
	assert.Equal(t, "101", byName["Math"].Icon)
	assert.Equal(t, models.DefaultProjectIcon, byName["Other"].Icon)
	assert.Equal(t, models.Uncategorized, byName["Other"].CategoryID)
	_, dup := byName["Gym"]
	assert.False(t, dup)

	// the Gym record went to the existing "gym" project
	require.Len(t, ts.Records, 2)
	assert.Equal(t, 1, ts.Records[1].ProjectID)
	assert.False(t, ts.Records[0].Running())
}

func TestApplyTwiceSkipsDuplicates(t *testing.T) {
	b, err := Parse(strings.NewReader(backup))
	require.NoError(t, err)
	ts := models.NewTimesheet()

	_, err = Apply(&ts, b)
	require.NoError(t, err)
	sum, err := Apply(&ts, b)
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Records)
	assert.Equal(t, 2, sum.Duplicates)
	assert.Equal(t, 0, sum.Projects)
	assert.Len(t, ts.Records, 2)
}

func TestApplyAfterSaveSkipsDuplicates(t *testing.T) {
	b, err := Parse(strings.NewReader("recordType\t1\tWork\tic_work\t-16776961\t0\n" +
		"record\t1\t1\t1709542800123\t1709546400987\tstandup\n"))
	require.NoError(t, err)
	ts := models.NewTimesheet()

	sum, err := Apply(&ts, b)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Records)
	assert.Zero(t, ts.Records[0].StartTime.Nanosecond())

	res := codec.ParseString(codec.SerializeString(ts))
	require.Empty(t, res.Errors)
	reloaded := res.Timesheet
	assert.True(t, reloaded.Equal(ts))

	sum, err = Apply(&reloaded, b)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Records)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Len(t, reloaded.Records, 1)
}

func TestApplyWithoutData(t *testing.T) {
	b, err := Parse(strings.NewReader("category\t1\tX\t0\n"))
	require.NoError(t, err)
	ts := models.NewTimesheet()

	_, err = Apply(&ts, b)

	assert.ErrorIs(t, err, ErrNoData)
}

func TestIcon(t *testing.T) {
	assert.Equal(t, "❤️", Icon("ic_favorite_24px"))
	assert.Equal(t, "042", Icon("042"))
	assert.Equal(t, "📌", Icon("1234"))
}

func TestRecordTimesAreLocal(t *testing.T) {
	b, err := Parse(strings.NewReader(backup))
	require.NoError(t, err)
	ts := models.NewTimesheet()
	_, err = Apply(&ts, b)
	require.NoError(t, err)

	assert.Equal(t, time.Local, ts.Records[0].StartTime.Location())
}
