package attendance

import "strings"

const (
	Present Status = "Present"
	Absent  Status = "Absent"
	// NotMarked is never stored, it is the absence of an entry in a DayRecord.
	NotMarked Status = "Not Marked"
)

type Status string

// Storable reports whether s may be written to a DayRecord.
func (s Status) Storable() bool {
	return s == Present || s == Absent
}

// ParseStatus accepts any casing of "present" and "absent".
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present":
		return Present, true
	case "absent":
		return Absent, true
	}
	return "", false
}

// DayRecord maps a student ID to the status marked on one date.
// Students without an entry are NotMarked.
type DayRecord map[int]Status

// Status returns the student's status on that day, NotMarked if none was recorded.
func (d DayRecord) Status(studentID int) Status {
	if st, ok := d[studentID]; ok {
		return st
	}
	return NotMarked
}

func (d DayRecord) clone() DayRecord {
	c := make(DayRecord, len(d))
	for id, st := range d {
		c[id] = st
	}
	return c
}
