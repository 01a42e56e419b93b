package portal

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jacentio/dojo/internal/model"
	"github.com/jacentio/dojo/store"
)

// Participant is one student enrolled in today's classes, as reported by the
// attendance system.
type Participant struct {
	ID        string
	FirstName string
	LastName  string

	// Rank is the attendance system's rank name, e.g. "Orange Belt".
	Rank string

	// CheckIns holds the start times ("06:00 PM") of the classes the
	// participant checked in to today.
	CheckIns []string
}

// Name returns "First Last".
func (p Participant) Name() string {
	return p.FirstName + " " + p.LastName
}

// AttendanceSource lists the participants of a day's classes.
type AttendanceSource interface {
	Participants(ctx context.Context, day time.Time) ([]Participant, error)
}

// SyncReport summarises a SyncAttendance run.
type SyncReport struct {
	Created    int
	Updated    int
	Integrated int
	Cleared    int
	Skipped    []string
}

// SyncAttendance records today's check-ins from src. Each checked-in
// participant's student record gets today's date, earliest check-in time, and
// current belt; a student that does not exist yet is created. Imported notes
// for the participant's name are merged into empty note lists and the imported
// row is removed once the student is written. Students checked in before this run who are not in today's
// attendance have their check-in cleared.
//
// A participant whose records cannot be read is skipped. A failed write stops
// the sync.
func (s *Service) SyncAttendance(ctx context.Context, src AttendanceSource) (SyncReport, error) {
	var report SyncReport

	students, err := s.students.Values(ctx)
	if err != nil {
		return report, err
	}
	stale := make(map[string]bool)
	for _, st := range students {
		if st.Date != nil {
			stale[st.ID] = true
		}
	}

	now := s.config.Now()
	participants, err := src.Participants(ctx, now)
	if err != nil {
		return report, fmt.Errorf("list participants: %w", err)
	}

	for _, p := range participants {
		name := p.Name()
		if len(p.CheckIns) == 0 {
			s.logger.Debug("participant has not checked in", "name", name)
			continue
		}
		checkIns := slices.Clone(p.CheckIns)
		slices.Sort(checkIns)
		checkIn := strings.TrimLeft(checkIns[0], "0")
		belt := strings.ReplaceAll(p.Rank, " Belt", "")

		info, hasInfo, err := s.imported.Get(ctx, name)
		if err != nil {
			s.logger.Warn("failed to read imported student", "name", name, "error", err)
			report.Skipped = append(report.Skipped, name)
			continue
		}

		student, exists, err := s.students.Get(ctx, p.ID)
		if err != nil {
			s.logger.Warn("failed to read student", "id", p.ID, "name", name, "error", err)
			report.Skipped = append(report.Skipped, name)
			continue
		}

		if !exists {
			student = model.Student{
				ID:         p.ID,
				Logins:     []model.Note{},
				Notes:      []model.Note{},
				Behaviours: []model.Note{},
			}
			student.FirstName, student.LastName, student.Name = p.FirstName, p.LastName, name
		}
		student.Date = store.NewTimestamp(now)
		student.Time = &checkIn
		student.Belt = belt

		if hasInfo {
			s.logger.Info("integrating imported notes", "name", name)
			student.MergeImported(info)
		}

		if err := s.students.Put(ctx, student.ID, student); err != nil {
			return report, err
		}
		// The imported row goes only once its notes are stored on the student.
		if hasInfo {
			if err := s.imported.Delete(ctx, name); err != nil {
				return report, err
			}
			report.Integrated++
		}
		if exists {
			report.Updated++
		} else {
			report.Created++
		}
		delete(stale, student.ID)
	}

	for _, id := range slices.Sorted(maps.Keys(stale)) {
		applied, err := s.students.GetUpdate(ctx, id, func(st *model.Student) {
			st.Date = nil
		})
		if err != nil {
			return report, err
		}
		if applied {
			report.Cleared++
		}
	}

	s.logger.Info("synced attendance",
		"created", report.Created,
		"updated", report.Updated,
		"integrated", report.Integrated,
		"cleared", report.Cleared,
		"skipped", len(report.Skipped),
	)
	return report, nil
}
