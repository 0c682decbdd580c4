package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/todolist/internal/domain/report"
	csvreport "github.com/geocoder89/todolist/internal/report"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteCSV_UserTasksSummary(t *testing.T) {
	rows := []report.UserTaskSummary{
		{UserID: "u-1", UserName: "ada@example.com", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", TaskCount: 2},
		{UserID: "u-2", UserName: "alan@example.com", Email: "alan@example.com", FirstName: "Alan", LastName: "Turing, Jr.", TaskCount: 0},
	}

	var buf bytes.Buffer
	n, err := csvreport.WriteCSV(&buf, rows)
	require.NoError(t, err)
	assert.Equal(t, len(rows)+1, n)

	newGoldie(t).Assert(t, "user_tasks_summary", buf.Bytes())
}

func TestWriteCSV_TasksWithOwners(t *testing.T) {
	rows := []report.TaskWithOwner{
		{
			TaskID:        1,
			Title:         "Buy milk",
			Description:   "2% if they have it",
			DueDate:       report.Date{Time: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)},
			IsActive:      true,
			OwnerFullName: "Ada Lovelace",
			OwnerEmail:    "ada@example.com",
		},
		{
			TaskID:        2,
			Title:         `Write "report"`,
			DueDate:       report.Date{Time: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)},
			IsActive:      false,
			OwnerFullName: "Alan Turing",
			OwnerEmail:    "alan@example.com",
		},
	}

	var buf bytes.Buffer
	n, err := csvreport.WriteCSV(&buf, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	newGoldie(t).Assert(t, "tasks_with_owners", buf.Bytes())
}

func TestWriteCSV_EmptyRowsWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	n, err := csvreport.WriteCSV(&buf, []report.UserTaskSummary{})
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, "UserId,UserName,Email,FirstName,LastName,TaskCount\n", buf.String())
}

func TestWriteCSV_RowCountMatchesRecords(t *testing.T) {
	rows := make([]report.TaskWithOwner, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, report.TaskWithOwner{TaskID: int64(i + 1), Title: "t", OwnerEmail: "x@example.com"})
	}

	var buf bytes.Buffer
	n, err := csvreport.WriteCSV(&buf, rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, len(rows)+1)
	assert.Equal(t, len(rows)+1, n)
}

func TestWriteCSV_UsesFieldNameWithoutTag(t *testing.T) {
	type row struct {
		Name    string
		Skipped string `csv:"-"`
		hidden  string
	}

	var buf bytes.Buffer
	_, err := csvreport.WriteCSV(&buf, []row{{Name: "a", Skipped: "b", hidden: "c"}})
	require.NoError(t, err)

	assert.Equal(t, "Name\na\n", buf.String())
}

func TestWriteCSV_RejectsNonStructRows(t *testing.T) {
	var buf bytes.Buffer
	_, err := csvreport.WriteCSV(&buf, []string{"a"})

	assert.ErrorIs(t, err, csvreport.ErrNotStruct)
}

func TestWriteCSV_ZeroDateIsEmptyCell(t *testing.T) {
	rows := []*report.TaskWithOwner{{TaskID: 7, Title: "undated", OwnerEmail: "x@example.com"}}

	var buf bytes.Buffer
	_, err := csvreport.WriteCSV(&buf, rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "7,undated,,,false,,x@example.com", lines[1])
}
