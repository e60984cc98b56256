package attendance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/roster"
	"github.com/trezcool/rollcall/storage/kv"
	"github.com/trezcool/rollcall/storage/kv/memkv"
	"github.com/trezcool/rollcall/tests"
)

var errDiskFull = errors.New("quota exceeded")

type brokenStore struct {
	kv.Store
}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestRecordStore_SetStatusThenGetDay(t *testing.T) {
	ctx := context.Background()
	rs := testutil.LoadRecords(t, memkv.Open())

	tests := []struct {
		date   string
		id     int
		status attendance.Status
	}{
		{"2025-11-03", 101, attendance.Present},
		{"2025-11-03", 102, attendance.Absent},
		{"2025-11-03", 101, attendance.Absent}, // overwrite
		{"2024-02-29", 105, attendance.Present},
	}
	for _, tt := range tests {
		require.NoError(t, rs.SetStatus(ctx, tt.date, tt.id, tt.status))
		assert.Equal(t, tt.status, rs.GetDay(tt.date)[tt.id])
	}
}

func TestRecordStore_GetDayDoesNotCreate(t *testing.T) {
	rs := testutil.LoadRecords(t, memkv.Open())

	day := rs.GetDay("2025-11-07")
	assert.Empty(t, day)
	assert.Equal(t, attendance.NotMarked, day.Status(101))
	assert.Empty(t, rs.DatesInMonth("2025-11"))

	// mutating the returned copy does not reach the store
	day[101] = attendance.Present
	assert.Empty(t, rs.GetDay("2025-11-07"))
	assert.Empty(t, rs.DatesInMonth("2025-11"))
}

func TestRecordStore_SetStatusCreatesDayLazily(t *testing.T) {
	ctx := context.Background()
	db := memkv.Open()
	rs := testutil.LoadRecords(t, db)
	testutil.Mark(t, rs, map[string]map[int]attendance.Status{
		"2025-11-04": {101: attendance.Present},
	})

	require.NoError(t, rs.SetStatus(ctx, "2025-11-03", 103, attendance.Present))

	assert.Equal(t, attendance.DayRecord{103: attendance.Present}, rs.GetDay("2025-11-03"))
	assert.Equal(t, attendance.NotMarked, rs.GetDay("2025-11-03").Status(101))

	data, err := db.Get(ctx, attendance.RecordsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2025-11-03":{"103":"Present"},"2025-11-04":{"101":"Present"}}`, string(data))
}

func TestRecordStore_SetStatusIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := memkv.Open()
	rs := testutil.LoadRecords(t, db)

	require.NoError(t, rs.SetStatus(ctx, "2025-11-03", 101, attendance.Present))
	require.NoError(t, rs.SetStatus(ctx, "2025-11-05", 102, attendance.Absent))
	once, err := db.Get(ctx, attendance.RecordsKey)
	require.NoError(t, err)

	require.NoError(t, rs.SetStatus(ctx, "2025-11-05", 102, attendance.Absent))
	twice, err := db.Get(ctx, attendance.RecordsKey)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestRecordStore_SetStatusValidation(t *testing.T) {
	ctx := context.Background()
	db := memkv.Open()
	rs := testutil.LoadRecords(t, db)

	tests := []struct {
		name      string
		date      string
		status    attendance.Status
		wantField string
	}{
		{name: "no date", date: "", status: attendance.Present, wantField: "date"},
		{name: "bad format", date: "03/11/2025", status: attendance.Present, wantField: "date"},
		{name: "not a calendar date", date: "2025-02-30", status: attendance.Present, wantField: "date"},
		{name: "month only", date: "2025-11", status: attendance.Present, wantField: "date"},
		{name: "not marked is not storable", date: "2025-11-03", status: attendance.NotMarked, wantField: "status"},
		{name: "unknown status", date: "2025-11-03", status: "Late", wantField: "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rs.SetStatus(ctx, tt.date, 101, tt.status)
			var vErr *core.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
		})
	}

	_, err := db.Get(ctx, attendance.RecordsKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestRecordStore_SetStatusRollsBackOnPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	db := memkv.Open()
	rs := testutil.LoadRecords(t, db)
	testutil.Mark(t, rs, map[string]map[int]attendance.Status{
		"2025-11-03": {101: attendance.Present},
	})
	before, err := db.Get(ctx, attendance.RecordsKey)
	require.NoError(t, err)

	db.FailWrites(errDiskFull)

	tests := []struct {
		name string
		date string
		id   int
	}{
		{name: "overwrite existing status", date: "2025-11-03", id: 101},
		{name: "new student on existing day", date: "2025-11-03", id: 102},
		{name: "new day", date: "2025-11-04", id: 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rs.SetStatus(ctx, tt.date, tt.id, attendance.Absent)
			require.Error(t, err)
			assert.True(t, core.IsPersistence(err))
			assert.ErrorIs(t, err, errDiskFull)
		})
	}

	assert.Equal(t, attendance.DayRecord{101: attendance.Present}, rs.GetDay("2025-11-03"))
	assert.Empty(t, rs.GetDay("2025-11-04"))
	assert.Equal(t, []string{"2025-11-03"}, rs.DatesInMonth("2025-11"))

	db.FailWrites(nil)
	after, err := db.Get(ctx, attendance.RecordsKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// a reload sees exactly what memory holds
	reloaded := testutil.LoadRecords(t, db)
	assert.Equal(t, rs.GetDay("2025-11-03"), reloaded.GetDay("2025-11-03"))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		doc       string
		wantDates []string
		wantDay   attendance.DayRecord
	}{
		{name: "missing", wantDates: []string{}},
		{name: "malformed json", doc: `{"2025-11-03": [`, wantDates: []string{}},
		{name: "wrong shape", doc: `["2025-11-03"]`, wantDates: []string{}},
		{name: "non numeric student id", doc: `{"2025-11-03": {"abc": "Present"}}`, wantDates: []string{}},
		{name: "null document", doc: `null`, wantDates: []string{}},
		{name: "day with only invalid statuses", doc: `{"2025-11-03": {"101": "Late"}}`, wantDates: []string{}},
		{
			name:      "valid",
			doc:       `{"2025-11-03": {"101": "Present", "102": "Absent"}, "2025-11-04": {"101": "Present"}}`,
			wantDates: []string{"2025-11-03", "2025-11-04"},
			wantDay:   attendance.DayRecord{101: attendance.Present, 102: attendance.Absent},
		},
		{
			name:      "invalid entries dropped",
			doc:       `{"2025-11-03": {"101": "Present", "102": "Late"}, "yesterday": {"101": "Absent"}}`,
			wantDates: []string{"2025-11-03"},
			wantDay:   attendance.DayRecord{101: attendance.Present},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := memkv.Open()
			if tt.doc != "" {
				require.NoError(t, db.Set(ctx, attendance.RecordsKey, []byte(tt.doc)))
			}
			rs, err := attendance.Load(ctx, db, testutil.Logger())
			require.NoError(t, err)
			assert.Equal(t, tt.wantDates, rs.DatesInMonth("2025-11"))
			if tt.wantDay != nil {
				assert.Equal(t, tt.wantDay, rs.GetDay("2025-11-03"))
			}
		})
	}
}

func TestLoad_InvalidDaysLeaveMonthEmpty(t *testing.T) {
	ctx := context.Background()
	db := memkv.Open()
	require.NoError(t, db.Set(ctx, attendance.RecordsKey, []byte(`{"2025-11-03": {"101": "Late", "102": "NotMarked"}}`)))

	rs, err := attendance.Load(ctx, db, testutil.Logger())
	require.NoError(t, err)
	report := attendance.AggregateMonth(roster.Default(), rs, "2025-11")
	assert.True(t, report.IsEmpty())
	assert.Zero(t, report.TotalDaysMarked)
}

func TestLoad_BackendFailure(t *testing.T) {
	_, err := attendance.Load(context.Background(), brokenStore{memkv.Open()}, testutil.Logger())
	assert.Error(t, err)
}

func TestRecordStore_DatesInMonth(t *testing.T) {
	rs := testutil.LoadRecords(t, memkv.Open())
	testutil.Mark(t, rs, map[string]map[int]attendance.Status{
		"2025-10-31": {101: attendance.Present},
		"2025-11-03": {101: attendance.Present},
		"2025-11-01": {102: attendance.Absent},
		"2025-12-01": {101: attendance.Absent},
		"2024-11-05": {101: attendance.Absent},
	})

	assert.Equal(t, []string{"2025-11-01", "2025-11-03"}, rs.DatesInMonth("2025-11"))
	assert.Equal(t, []string{"2024-11-05"}, rs.DatesInMonth("2024-11"))
	assert.Empty(t, rs.DatesInMonth("2025-01"))
}
