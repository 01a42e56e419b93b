package portal

import (
	"context"
	"fmt"

	"github.com/jacentio/dojo/internal/digest"
	"github.com/jacentio/dojo/internal/model"
)

// Invite registers a single-use token that lets its holder create an account
// with role.
func (s *Service) Invite(role model.Role) string {
	token := s.config.NewToken()

	s.mu.Lock()
	s.invites[token] = role
	s.mu.Unlock()

	s.logger.Info("created invite", "role", role)
	return token
}

// InstallUser consumes an invite and creates the account. The invite is spent
// even if the account cannot be written.
func (s *Service) InstallUser(ctx context.Context, token, name, password string) (model.User, error) {
	s.mu.Lock()
	role, ok := s.invites[token]
	delete(s.invites, token)
	s.mu.Unlock()

	if !ok {
		return model.User{}, ErrInvalidInvite
	}

	user := model.NewUser(name, password, role)
	if err := s.users.Put(ctx, user.Key, user); err != nil {
		return model.User{}, fmt.Errorf("install user %q: %w", name, err)
	}
	s.logger.Info("installed user", "name", user.Name, "role", user.Role)
	return user, nil
}

// Login checks the credentials and opens a session.
func (s *Service) Login(ctx context.Context, name, password string) (model.Session, error) {
	key := digest.UserKey(name)
	if key == "" {
		return model.Session{}, ErrInvalidCredentials
	}

	user, ok, err := s.users.Get(ctx, key)
	if err != nil {
		return model.Session{}, err
	}
	if !ok || !user.CheckPassword(password) {
		return model.Session{}, ErrInvalidCredentials
	}

	session := model.Session{
		Token:   s.config.NewToken(),
		Expires: s.config.Now().Add(s.config.SessionLifetime).Unix(),
		User:    user,
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()
	return session, nil
}

// Logout ends a session. Unknown tokens are ignored.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Session returns the live session for token. Expired sessions are removed.
func (s *Service) Session(token string) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return model.Session{}, false
	}
	if session.Expired(s.config.Now()) {
		delete(s.sessions, token)
		return model.Session{}, false
	}
	return session, true
}

// ChangePassword replaces a user's password, trusting the cached record.
func (s *Service) ChangePassword(ctx context.Context, name, password string) error {
	key := digest.UserKey(name)
	user, ok, err := s.users.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return s.users.DiffUpdate(ctx, key, user, func(u *model.User) {
		u.SetPassword(password)
	})
}

// ResetPassword overwrites a user's password. It is the administrator's
// variant of ChangePassword and writes the whole record.
func (s *Service) ResetPassword(ctx context.Context, name, password string) error {
	key := digest.UserKey(name)
	user, ok, err := s.users.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	user.SetPassword(password)
	return s.users.Put(ctx, key, user)
}

// DeleteUser removes an account and ends its sessions. Deleting an unknown
// user is not an error.
func (s *Service) DeleteUser(ctx context.Context, name string) error {
	key := digest.UserKey(name)
	if err := s.users.Delete(ctx, key); err != nil {
		return err
	}

	s.mu.Lock()
	for token, session := range s.sessions {
		if session.User.Key == key {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()

	s.logger.Info("deleted user", "key", key)
	return nil
}

// Users returns every account.
func (s *Service) Users(ctx context.Context) ([]model.User, error) {
	return s.users.Values(ctx)
}

// Senseis returns the display names of every account, for assigning students.
func (s *Service) Senseis(ctx context.Context) ([]string, error) {
	users, err := s.users.Values(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	return names, nil
}
