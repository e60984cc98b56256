package attendance

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/storage/kv"
)

// RecordsKey is the key of the records document: date -> student ID -> status.
const RecordsKey = "attendanceRecords"

// RecordStore is the date keyed attendance record. Every mutation is written through to the
// kv.Store as one whole document before it returns; a failed write is rolled back in memory.
//
// Two processes sharing a backend overwrite each other's snapshot: last write wins.
type RecordStore struct {
	mu     sync.RWMutex
	store  kv.Store
	days   map[string]DayRecord
	logger core.Logger
}

// Load reads the records document. A missing or malformed document yields an empty store.
// Backend failures are returned: starting empty there would overwrite the real records on the next write.
func Load(ctx context.Context, store kv.Store, logger core.Logger) (*RecordStore, error) {
	rs := &RecordStore{
		store:  store,
		days:   make(map[string]DayRecord),
		logger: logger,
	}

	data, err := store.Get(ctx, RecordsKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return rs, nil
		}
		return nil, errors.Wrap(err, "loading attendance records")
	}

	var doc map[string]DayRecord
	if err = json.Unmarshal(data, &doc); err != nil {
		logger.Warn("attendance records are malformed, starting empty", err)
		return rs, nil
	}
	for date, day := range doc {
		if !core.IsDateKey(date) {
			logger.Warn("dropping attendance records with an invalid date", map[string]interface{}{"date": date})
			continue
		}
		rec := make(DayRecord, len(day))
		for id, st := range day {
			if !st.Storable() {
				logger.Warn("dropping an invalid attendance status", map[string]interface{}{
					"date": date, "student": id, "status": st,
				})
				continue
			}
			rec[id] = st
		}
		if len(rec) == 0 {
			continue
		}
		rs.days[date] = rec
	}
	return rs, nil
}

// GetDay returns a copy of the record of date, empty if nothing was marked that day.
// Reading never creates a date.
func (rs *RecordStore) GetDay(date string) DayRecord {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	day, ok := rs.days[date]
	if !ok {
		return DayRecord{}
	}
	return day.clone()
}

// SetStatus records status for the student on date and persists the whole store.
func (rs *RecordStore) SetStatus(ctx context.Context, date string, studentID int, status Status) error {
	if !core.IsDateKey(date) {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be a valid date (YYYY-MM-DD)"})
	}
	if !status.Storable() {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "status must be one of Present or Absent"})
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	day, existed := rs.days[date]
	if !existed {
		day = make(DayRecord)
		rs.days[date] = day
	}
	prev, hadPrev := day[studentID]
	day[studentID] = status

	if err := rs.persist(ctx); err != nil {
		// roll back: memory must match what is persisted
		if hadPrev {
			day[studentID] = prev
		} else {
			delete(day, studentID)
		}
		if !existed {
			delete(rs.days, date)
		}
		return err
	}
	return nil
}

// persist writes the whole store; the caller holds the write lock.
func (rs *RecordStore) persist(ctx context.Context) error {
	data, err := json.Marshal(rs.days)
	if err == nil {
		err = rs.store.Set(ctx, RecordsKey, data)
	}
	if err != nil {
		return core.NewPersistenceError("attendance records", err)
	}
	return nil
}

// DatesInMonth returns the marked dates of yearMonth (YYYY-MM), sorted.
func (rs *RecordStore) DatesInMonth(yearMonth string) []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	dates := make([]string, 0)
	for date := range rs.days {
		if strings.HasPrefix(date, yearMonth) {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}
