package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
)

// CreateUser registers a new user with the next free id.
func (s *Store) CreateUser(ctx context.Context, username, email, password string) (u model.User, err error) {
	defer s.observe("create_user", time.Now(), &err)
	if err := validateSignup(username, email, password); err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.nameIndex[username]; taken {
		return model.User{}, apperrors.Newf(apperrors.ErrAlreadyExists, "username %q is taken", username)
	}
	u = model.User{
		ID:       s.lastUserID + 1,
		Username: username,
		Email:    email,
		Password: password,
	}
	s.addUser(u)
	s.notes.Enqueuef("You signed up as user ID %d", u.ID)
	s.track(activity.Event{Type: activity.EventUserSignup, ActorID: u.ID, Username: u.Username})
	s.logger.Info("user created", "user_id", u.ID, "username", u.Username)
	return u, s.persistLocked(ctx)
}

// Authenticate returns the id of the user with matching credentials. Unknown
// usernames and wrong passwords both report ErrNotFound.
func (s *Store) Authenticate(username, password string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nameIndex[username]
	if !ok || s.users[s.userSlot[id]].Password != password {
		return 0, apperrors.New(apperrors.ErrNotFound, "invalid username or password")
	}
	return id, nil
}

// Login authenticates and records the login in the activity log. A failed
// log write is reported but the session is still returned.
func (s *Store) Login(ctx context.Context, username, password string) (sess Session, err error) {
	defer s.observe("login", time.Now(), &err)
	id, err := s.Authenticate(username, password)
	if err != nil {
		s.logger.Info("login failed", "username", username)
		return Session{}, err
	}
	sess = Session{UserID: id, Username: username}
	s.track(activity.Event{Type: activity.EventUserLogin, ActorID: id, Username: username})
	if s.actlog != nil {
		if err := s.actlog.Append(ctx, fmt.Sprintf("User %s logged in.", username)); err != nil {
			s.logger.Warn("activity log append failed", "error", err)
			return sess, apperrors.Persistence(err)
		}
	}
	return sess, nil
}

func (s *Store) UserByID(id int) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.userSlot[id]
	if !ok {
		return model.User{}, apperrors.Newf(apperrors.ErrNotFound, "user %d", id)
	}
	return s.users[i], nil
}

func (s *Store) UserByUsername(username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nameIndex[username]
	if !ok {
		return model.User{}, apperrors.Newf(apperrors.ErrNotFound, "user %q", username)
	}
	return s.users[s.userSlot[id]], nil
}
