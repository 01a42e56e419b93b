package portal

import "errors"

var (
	ErrInvalidInvite      = errors.New("portal: invalid invite token")
	ErrInvalidCredentials = errors.New("portal: invalid name or password")
	ErrUserNotFound       = errors.New("portal: user not found")
	ErrStudentNotFound    = errors.New("portal: student not found")
	ErrNoteNotFound       = errors.New("portal: note not found")
	ErrUnknownNoteKind    = errors.New("portal: unknown note kind")
)
