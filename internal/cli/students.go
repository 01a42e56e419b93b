package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/jacentio/dojo/internal/model"
)

func newStudentsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Manage students and their notes",
	}

	cmd.AddCommand(newStudentsListCommand(opts))
	cmd.AddCommand(newStudentsAddCommand(opts))
	cmd.AddCommand(newStudentsShowCommand(opts))
	cmd.AddCommand(newNoteCommand(opts))
	cmd.AddCommand(newAssignCommand(opts))
	cmd.AddCommand(newUnassignCommand(opts))
	cmd.AddCommand(newClearTimesCommand(opts))

	return cmd
}

func newStudentsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the roster, including imported students not yet merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				roster, err := s.svc.Roster(cmd.Context())
				if err != nil {
					return classify("list students failed", err)
				}
				return s.out.Success(roster, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tBELT\tCHECK-IN\tASSIGNED")
					for _, st := range roster {
						checkIn := "-"
						if st.Date != nil {
							checkIn = aws.ToString(st.Time)
						}
						assigned := aws.ToString(st.Assigned)
						if assigned == "" {
							assigned = "-"
						}
						id := st.ID
						if id == "" {
							id = "(imported)"
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, st.Name, st.Belt, checkIn, assigned)
					}
					tw.Flush()
				})
			})
		},
	}
}

func newStudentsAddCommand(opts *RootOptions) *cobra.Command {
	var belt string

	cmd := &cobra.Command{
		Use:   "add <first> <last>",
		Short: "Add a student",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				st, err := s.svc.AddStudent(cmd.Context(), args[0], args[1], belt)
				if err != nil {
					return classify("add student failed", err)
				}
				return s.out.Success(st, func(w io.Writer) {
					fmt.Fprintf(w, "Added %s (%s)\n", st.Name, st.ID)
				})
			})
		},
	}

	cmd.Flags().StringVar(&belt, "belt", "White", "current belt")
	return cmd
}

func newStudentsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a student and their notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				st, err := s.svc.Student(cmd.Context(), args[0])
				if err != nil {
					return classify("show student failed", err)
				}
				return s.out.Success(st, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s belt)\n", st.Name, st.Belt)
					for _, kind := range model.NoteKinds {
						notes := *st.List(kind)
						if len(notes) == 0 {
							continue
						}
						fmt.Fprintf(w, "\n%s:\n", kind)
						for _, n := range notes {
							fmt.Fprintf(w, "  [%d] %s %s: %s\n", n.ID, n.Date, n.User, n.Content)
						}
					}
				})
			})
		},
	}
}

func newNoteCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Add, edit, or remove a student's notes",
	}

	var author string
	add := &cobra.Command{
		Use:   "add <id> <kind> <content>",
		Short: "Append a note (kind: logins|notes|behaviours)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseNoteKind(args[1])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid note kind", err)
			}
			return opts.run(cmd, func(s *session) error {
				id, err := s.svc.AddNote(cmd.Context(), args[0], kind, author, args[2])
				if err != nil {
					return classify("add note failed", err)
				}
				return s.out.Success(map[string]uint32{"id": id}, func(w io.Writer) {
					fmt.Fprintf(w, "Added %s note %d\n", kind, id)
				})
			})
		},
	}
	add.Flags().StringVar(&author, "author", "admin", "name recorded on the note")

	edit := &cobra.Command{
		Use:   "edit <id> <kind> <note-id> <content>",
		Short: "Replace a note's content",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, noteID, err := parseNoteRef(args[1], args[2])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(s *session) error {
				if err := s.svc.EditNote(cmd.Context(), args[0], kind, noteID, args[3]); err != nil {
					return classify("edit note failed", err)
				}
				return s.out.Success(map[string]uint32{"id": noteID}, func(w io.Writer) {
					fmt.Fprintf(w, "Edited %s note %d\n", kind, noteID)
				})
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id> <kind> <note-id>",
		Short: "Remove a note",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, noteID, err := parseNoteRef(args[1], args[2])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(s *session) error {
				if err := s.svc.DeleteNote(cmd.Context(), args[0], kind, noteID); err != nil {
					return classify("remove note failed", err)
				}
				return s.out.Success(map[string]uint32{"id": noteID}, func(w io.Writer) {
					fmt.Fprintf(w, "Removed %s note %d\n", kind, noteID)
				})
			})
		},
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}

func parseNoteRef(kindArg, idArg string) (model.NoteKind, uint32, error) {
	kind, err := model.ParseNoteKind(kindArg)
	if err != nil {
		return "", 0, WrapExitError(ExitFailure, "invalid note kind", err)
	}
	id, err := strconv.ParseUint(idArg, 10, 32)
	if err != nil {
		return "", 0, WrapExitError(ExitFailure, "invalid note id", err)
	}
	return kind, uint32(id), nil
}

func newAssignCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <sensei>",
		Short: "Assign a student to a sensei",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if err := s.svc.Assign(cmd.Context(), args[0], args[1]); err != nil {
					return classify("assign failed", err)
				}
				return s.out.Success(map[string]string{"id": args[0], "assigned": args[1]}, func(w io.Writer) {
					fmt.Fprintf(w, "Assigned %s to %s\n", args[0], args[1])
				})
			})
		},
	}
}

func newUnassignCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <id>",
		Short: "Clear a student's sensei",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if err := s.svc.Unassign(cmd.Context(), args[0]); err != nil {
					return classify("unassign failed", err)
				}
				return s.out.Success(map[string]string{"id": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Unassigned %s\n", args[0])
				})
			})
		},
	}
}

func newClearTimesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-times",
		Short: "Clear every student's check-in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				n, err := s.svc.ClearCheckIns(cmd.Context())
				if err != nil {
					return classify("clear check-ins failed", err)
				}
				return s.out.Success(map[string]int{"cleared": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Cleared %d check-ins\n", n)
				})
			})
		},
	}
}
