package portal

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jacentio/dojo/internal/model"
)

// AddStudent creates a student with a generated id.
func (s *Service) AddStudent(ctx context.Context, first, last, belt string) (model.Student, error) {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	student := model.Student{
		FirstName:  first,
		LastName:   last,
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(first + " " + last),
		Belt:       belt,
		Logins:     []model.Note{},
		Notes:      []model.Note{},
		Behaviours: []model.Note{},
	}
	if err := s.students.Put(ctx, student.ID, student); err != nil {
		return model.Student{}, err
	}
	return student, nil
}

// Student returns one student.
func (s *Service) Student(ctx context.Context, id string) (model.Student, error) {
	student, ok, err := s.students.Get(ctx, id)
	if err != nil {
		return model.Student{}, err
	}
	if !ok {
		return model.Student{}, ErrStudentNotFound
	}
	return student, nil
}

// updateStudent reads the student and applies mutate through DiffUpdate.
func (s *Service) updateStudent(ctx context.Context, id string, mutate func(*model.Student)) error {
	student, err := s.Student(ctx, id)
	if err != nil {
		return err
	}
	return s.students.DiffUpdate(ctx, id, student, mutate)
}

// AddNote appends a note written by author and returns its id.
func (s *Service) AddNote(ctx context.Context, id string, kind model.NoteKind, author, content string) (uint32, error) {
	if _, err := model.ParseNoteKind(string(kind)); err != nil {
		return 0, ErrUnknownNoteKind
	}

	student, err := s.Student(ctx, id)
	if err != nil {
		return 0, err
	}
	now := s.config.Now()
	written, err := s.students.DiffUpdateValue(ctx, id, student, func(st *model.Student) {
		st.AppendNote(kind, author, content, now)
	})
	if err != nil {
		return 0, err
	}
	return written.NoteCounter.Current(), nil
}

// EditNote replaces the content of an existing note.
func (s *Service) EditNote(ctx context.Context, id string, kind model.NoteKind, noteID uint32, content string) error {
	return s.changeNote(ctx, id, kind, noteID, func(list *[]model.Note, i int) {
		(*list)[i].Content = content
	})
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, id string, kind model.NoteKind, noteID uint32) error {
	return s.changeNote(ctx, id, kind, noteID, func(list *[]model.Note, i int) {
		*list = slices.Delete(*list, i, i+1)
	})
}

func (s *Service) changeNote(ctx context.Context, id string, kind model.NoteKind, noteID uint32, change func(*[]model.Note, int)) error {
	if _, err := model.ParseNoteKind(string(kind)); err != nil {
		return ErrUnknownNoteKind
	}
	student, err := s.Student(ctx, id)
	if err != nil {
		return err
	}
	if student.FindNote(kind, noteID) < 0 {
		return ErrNoteNotFound
	}
	return s.students.DiffUpdate(ctx, id, student, func(st *model.Student) {
		if i := st.FindNote(kind, noteID); i >= 0 {
			change(st.List(kind), i)
		}
	})
}

// Assign records which sensei is responsible for a student.
func (s *Service) Assign(ctx context.Context, id, sensei string) error {
	return s.updateStudent(ctx, id, func(st *model.Student) {
		st.Assigned = &sensei
	})
}

// Unassign clears a student's sensei.
func (s *Service) Unassign(ctx context.Context, id string) error {
	return s.updateStudent(ctx, id, func(st *model.Student) {
		st.Assigned = nil
	})
}

// ClearCheckIns removes the check-in date from every student that has one and
// returns how many were cleared.
func (s *Service) ClearCheckIns(ctx context.Context) (int, error) {
	students, err := s.students.Values(ctx)
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, st := range students {
		if st.Date == nil {
			continue
		}
		if err := s.students.DiffUpdate(ctx, st.ID, st, func(st *model.Student) {
			st.Date = nil
		}); err != nil {
			return cleared, err
		}
		cleared++
	}
	s.logger.Info("cleared check-ins", "students", cleared)
	return cleared, nil
}

// Roster lists every student for display: stored students, plus imported rows
// that have not been merged into a student yet. Check-ins from another day are
// hidden. Students are matched to imported rows by case-insensitive name and
// the result is ordered by name.
func (s *Service) Roster(ctx context.Context) ([]model.Student, error) {
	students, err := s.students.Values(ctx)
	if err != nil {
		return nil, err
	}
	imported, err := s.imported.Values(ctx)
	if err != nil {
		return nil, err
	}

	now := s.config.Now()
	byName := make(map[string]model.Student, len(students)+len(imported))
	for _, st := range students {
		if !st.CheckedInOn(now) {
			st.Date = nil
		}
		byName[strings.ToLower(st.Name)] = st
	}
	for _, info := range imported {
		name := strings.ToLower(info.Name)
		if _, ok := byName[name]; !ok {
			byName[name] = info.ToStudent("")
		}
	}

	roster := make([]model.Student, 0, len(byName))
	for _, st := range byName {
		roster = append(roster, st)
	}
	slices.SortFunc(roster, func(a, b model.Student) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return roster, nil
}

// Import stores spreadsheet rows that will be merged into students when they
// next check in. Rows without a name are skipped. It returns the number of
// rows stored.
func (s *Service) Import(ctx context.Context, rows []model.StudentImportedInfo) (int, error) {
	stored := 0
	for _, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		if row.Name == "" {
			continue
		}
		if err := s.imported.Put(ctx, row.Name, row); err != nil {
			return stored, err
		}
		stored++
	}
	s.logger.Info("imported students", "rows", len(rows), "stored", stored)
	return stored, nil
}
