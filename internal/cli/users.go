package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jacentio/dojo/internal/model"
)

func newInviteCommand(opts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "invite <name> <password>",
		Short: "Create an invite and install a user with it",
		Long: `Create a single-use invite for the given role and redeem it immediately
for the named user. Invites live in the service's memory, so the command line
can only hand one out and use it within the same run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid role", err)
			}
			return opts.run(cmd, func(s *session) error {
				token := s.svc.Invite(r)
				u, err := s.svc.InstallUser(cmd.Context(), token, args[0], args[1])
				if err != nil {
					return classify("install failed", err)
				}
				return s.out.Success(u, func(w io.Writer) {
					fmt.Fprintf(w, "Installed %s (%s)\n", u.Name, u.Role)
				})
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", string(model.RoleStandard), "role of the new user (standard|admin)")
	return cmd
}

func newUsersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage portal users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				users, err := s.svc.Users(cmd.Context())
				if err != nil {
					return classify("list users failed", err)
				}
				return s.out.Success(users, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "NAME\tROLE")
					for _, u := range users {
						fmt.Fprintf(tw, "%s\t%s\n", u.Name, u.Role)
					}
					tw.Flush()
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "login <name> <password>",
		Short: "Check a user's credentials",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				sess, err := s.svc.Login(cmd.Context(), args[0], args[1])
				if err != nil {
					return classify("login failed", err)
				}
				return s.out.Success(sess, func(w io.Writer) {
					fmt.Fprintf(w, "Logged in %s (%s)\n", sess.User.Name, sess.User.Role)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "passwd <name> <password>",
		Short: "Change a user's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if err := s.svc.ChangePassword(cmd.Context(), args[0], args[1]); err != nil {
					return classify("change password failed", err)
				}
				return s.out.Success(map[string]string{"user": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Password changed for %s\n", args[0])
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <name> <password>",
		Short: "Overwrite a user's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if err := s.svc.ResetPassword(cmd.Context(), args[0], args[1]); err != nil {
					return classify("reset password failed", err)
				}
				return s.out.Success(map[string]string{"user": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Password reset for %s\n", args[0])
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				if err := s.svc.DeleteUser(cmd.Context(), args[0]); err != nil {
					return classify("delete user failed", err)
				}
				return s.out.Success(map[string]string{"user": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted %s\n", args[0])
				})
			})
		},
	})

	return cmd
}
