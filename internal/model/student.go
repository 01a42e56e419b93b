package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/jacentio/dojo/internal/counter"
	"github.com/jacentio/dojo/store"
)

// NoteDateLayout is the layout of Note.Date.
const NoteDateLayout = "01-02-06"

// NoteKind names one of a student's note lists.
type NoteKind string

const (
	KindLogins     NoteKind = "logins"
	KindNotes      NoteKind = "notes"
	KindBehaviours NoteKind = "behaviours"
)

// NoteKinds lists every kind in display order.
var NoteKinds = []NoteKind{KindLogins, KindNotes, KindBehaviours}

// ParseNoteKind validates a note kind name.
func ParseNoteKind(s string) (NoteKind, error) {
	for _, k := range NoteKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("note kind must be one of %v, got %q", NoteKinds, s)
}

// Note is one entry in a student's note list.
type Note struct {
	ID      uint32 `dynamodbav:"id" json:"id"`
	Date    string `dynamodbav:"date" json:"date"`
	User    string `dynamodbav:"user" json:"user"`
	Content string `dynamodbav:"content" json:"content"`
}

// Student is a dojo student and their notes.
// NoteCounter numbers notes across all three lists.
type Student struct {
	FirstName   string                  `dynamodbav:"first_name" json:"first_name"`
	LastName    string                  `dynamodbav:"last_name" json:"last_name"`
	ID          string                  `dynamodbav:"id" json:"id"`
	Name        string                  `dynamodbav:"name" json:"name"`
	Date        *store.Timestamp        `dynamodbav:"date" json:"date,omitempty"`
	Time        *string                 `dynamodbav:"time" json:"time,omitempty"`
	Belt        string                  `dynamodbav:"belt" json:"belt"`
	Logins      []Note                  `dynamodbav:"logins" json:"logins"`
	Notes       []Note                  `dynamodbav:"notes" json:"notes"`
	Behaviours  []Note                  `dynamodbav:"behaviours" json:"behaviours"`
	Assigned    *string                 `dynamodbav:"assigned" json:"assigned,omitempty"`
	NoteCounter counter.Counter[uint32] `dynamodbav:"note_counter" json:"note_counter"`
}

func (Student) TableName() string    { return StudentsTable }
func (Student) KeyAttribute() string { return StudentKeyAttribute }
func (s Student) PrimaryKey() string { return s.ID }

// List returns a pointer to the note list for kind, or nil for an unknown kind.
func (s *Student) List(kind NoteKind) *[]Note {
	switch kind {
	case KindLogins:
		return &s.Logins
	case KindNotes:
		return &s.Notes
	case KindBehaviours:
		return &s.Behaviours
	}
	return nil
}

// AppendNote numbers a new note from NoteCounter and appends it to kind's list.
func (s *Student) AppendNote(kind NoteKind, author, content string, at time.Time) uint32 {
	list := s.List(kind)
	if list == nil {
		return 0
	}
	id := s.NoteCounter.Increment()
	*list = append(*list, Note{
		ID:      id,
		Date:    at.Format(NoteDateLayout),
		User:    author,
		Content: content,
	})
	return id
}

// FindNote returns the index of note id in kind's list, or -1.
func (s *Student) FindNote(kind NoteKind, id uint32) int {
	list := s.List(kind)
	if list == nil {
		return -1
	}
	for i, n := range *list {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// CheckedInOn reports whether the student has a check-in on the same calendar
// day as now, less than a day ago.
func (s Student) CheckedInOn(now time.Time) bool {
	if s.Date == nil {
		return false
	}
	d := s.Date.In(now.Location())
	return now.Sub(d) < 24*time.Hour && d.YearDay() == now.YearDay() && d.Year() == now.Year()
}

// SplitName splits "First Last Names" at the first space.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}
