// Package roster holds the fixed, ordered list of students tracked by the system.
package roster

type Student struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Roster is immutable once built; accessors hand out copies.
type Roster struct {
	students []Student
	index    map[int]int
}

// New builds a Roster keeping the given order. Later duplicates of an ID are ignored.
func New(students ...Student) Roster {
	r := Roster{
		students: make([]Student, 0, len(students)),
		index:    make(map[int]int, len(students)),
	}
	for _, s := range students {
		if _, dup := r.index[s.ID]; dup {
			continue
		}
		r.index[s.ID] = len(r.students)
		r.students = append(r.students, s)
	}
	return r
}

// Default is the roster the application ships with.
func Default() Roster {
	return New(
		Student{ID: 101, Name: "Alex Johnson"},
		Student{ID: 102, Name: "Bella Cruz"},
		Student{ID: 103, Name: "Chris Evans"},
		Student{ID: 104, Name: "David Lee"},
		Student{ID: 105, Name: "Emily White"},
	)
}

func (r Roster) Students() []Student {
	return append([]Student(nil), r.students...)
}

func (r Roster) Len() int { return len(r.students) }

func (r Roster) Lookup(id int) (Student, bool) {
	i, ok := r.index[id]
	if !ok {
		return Student{}, false
	}
	return r.students[i], true
}
