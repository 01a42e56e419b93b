package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/dojo/internal/model"
	"github.com/jacentio/dojo/internal/portal"
)

func newImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import spreadsheet notes to merge into students at their next check-in",
		Long: `Import a YAML list of students:

  - name: Jo Park
    belt: Orange
    logins: ["pw hint"]
    notes: ["likes kata"]
    behaviours: []

Rows are stored by name and merged into the matching student's empty note
lists when attendance is next synced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []model.StudentImportedInfo
			if err := readYAML(args[0], &rows); err != nil {
				return err
			}
			return opts.run(cmd, func(s *session) error {
				n, err := s.svc.Import(cmd.Context(), rows)
				if err != nil {
					return classify("import failed", err)
				}
				return s.out.Success(map[string]int{"rows": len(rows), "stored": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Imported %d of %d rows\n", n, len(rows))
				})
			})
		},
	}
}

func newSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <attendance.yaml>",
		Short: "Record today's check-ins from an attendance export",
		Long: `Record check-ins from a YAML attendance export:

  participants:
    - id: "1042"
      first_name: Jo
      last_name: Park
      rank: Orange Belt
      check_ins: ["06:00 PM", "07:00 PM"]

Students are created when they do not exist yet. Students checked in earlier
who are missing from the export have their check-in cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := &fileAttendance{path: args[0]}
			if _, err := src.load(); err != nil {
				return err
			}
			return opts.run(cmd, func(s *session) error {
				report, err := s.svc.SyncAttendance(cmd.Context(), src)
				if err != nil {
					return classify("sync failed", err)
				}
				return s.out.Success(report, func(w io.Writer) {
					fmt.Fprintf(w, "Created %d, updated %d, integrated %d, cleared %d\n",
						report.Created, report.Updated, report.Integrated, report.Cleared)
					if len(report.Skipped) > 0 {
						fmt.Fprintf(w, "Skipped: %s\n", strings.Join(report.Skipped, ", "))
					}
				})
			})
		},
	}
}

type attendanceFile struct {
	// Date limits the export to one day (YYYY-MM-DD). Empty matches any day.
	Date         string `yaml:"date"`
	Participants []struct {
		ID        string   `yaml:"id"`
		FirstName string   `yaml:"first_name"`
		LastName  string   `yaml:"last_name"`
		Rank      string   `yaml:"rank"`
		CheckIns  []string `yaml:"check_ins"`
	} `yaml:"participants"`
}

// fileAttendance is a portal.AttendanceSource backed by a YAML export.
type fileAttendance struct {
	path string
}

var _ portal.AttendanceSource = (*fileAttendance)(nil)

func (f *fileAttendance) load() (attendanceFile, error) {
	var file attendanceFile
	if err := readYAML(f.path, &file); err != nil {
		return attendanceFile{}, err
	}
	if file.Date != "" {
		if _, err := time.Parse(time.DateOnly, file.Date); err != nil {
			return attendanceFile{}, WrapExitError(ExitCommandError, "invalid attendance date", err)
		}
	}
	return file, nil
}

func (f *fileAttendance) Participants(ctx context.Context, day time.Time) ([]portal.Participant, error) {
	file, err := f.load()
	if err != nil {
		return nil, err
	}
	if file.Date != "" && file.Date != day.Format(time.DateOnly) {
		return nil, fmt.Errorf("attendance export is for %s, not %s", file.Date, day.Format(time.DateOnly))
	}

	out := make([]portal.Participant, 0, len(file.Participants))
	for _, p := range file.Participants {
		out = append(out, portal.Participant{
			ID:        p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Rank:      p.Rank,
			CheckIns:  p.CheckIns,
		})
	}
	return out, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read file", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return WrapExitError(ExitCommandError, "failed to parse "+path, err)
	}
	return nil
}
