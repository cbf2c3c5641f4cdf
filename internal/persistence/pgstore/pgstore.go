// Package pgstore keeps the store in PostgreSQL. Save replaces every table
// inside one transaction, so readers see either the old or the new
// snapshot.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/resilience"
)

// Schema creates the tables this package reads and writes. Posts carry a
// position column so listing order survives a round trip.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id       INTEGER PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email    TEXT NOT NULL,
    password TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
    id         INTEGER PRIMARY KEY,
    position   INTEGER NOT NULL,
    owner_id   INTEGER NOT NULL,
    caption    TEXT NOT NULL,
    media_ref  TEXT NOT NULL DEFAULT '',
    like_count INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0)
);
CREATE TABLE IF NOT EXISTS comments (
    id        INTEGER PRIMARY KEY,
    post_id   INTEGER NOT NULL,
    author_id INTEGER NOT NULL,
    text      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS likes (
    post_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    PRIMARY KEY (post_id, user_id)
);
CREATE TABLE IF NOT EXISTS activity_log (
    id        BIGSERIAL PRIMARY KEY,
    line      TEXT NOT NULL,
    logged_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

type Store struct {
	db      *postgres.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a store over db. Each call is bounded by timeout; zero means
// no bound beyond the caller's context.
func New(db *postgres.Client, timeout time.Duration) *Store {
	return &Store{
		db:      db,
		timeout: timeout,
		logger:  slog.Default().With("component", "pgstore"),
	}
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := resilience.WithTimeout(ctx, s.timeout, "pgstore-load", func(ctx context.Context) error {
		var err error
		if snap.Users, err = queryRows(ctx, s.db.DB,
			`SELECT id, username, email, password FROM users ORDER BY id`,
			func(rows *sql.Rows) (model.User, error) {
				var u model.User
				return u, rows.Scan(&u.ID, &u.Username, &u.Email, &u.Password)
			}); err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		if snap.Posts, err = queryRows(ctx, s.db.DB,
			`SELECT id, owner_id, caption, media_ref, like_count FROM posts ORDER BY position`,
			func(rows *sql.Rows) (model.Post, error) {
				var p model.Post
				return p, rows.Scan(&p.ID, &p.OwnerID, &p.Caption, &p.MediaRef, &p.LikeCount)
			}); err != nil {
			return fmt.Errorf("loading posts: %w", err)
		}
		if snap.Comments, err = queryRows(ctx, s.db.DB,
			`SELECT id, post_id, author_id, text FROM comments ORDER BY id`,
			func(rows *sql.Rows) (model.Comment, error) {
				var c model.Comment
				return c, rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Text)
			}); err != nil {
			return fmt.Errorf("loading comments: %w", err)
		}
		if snap.Likes, err = queryRows(ctx, s.db.DB,
			`SELECT post_id, user_id FROM likes ORDER BY post_id, user_id`,
			func(rows *sql.Rows) (model.Like, error) {
				var l model.Like
				return l, rows.Scan(&l.PostID, &l.UserID)
			}); err != nil {
			return fmt.Errorf("loading likes: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

func queryRows[T any](ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Save replaces the contents of every record table with snap.
func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	start := time.Now()
	err := resilience.WithTimeout(ctx, s.timeout, "pgstore-save", func(ctx context.Context) error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `TRUNCATE users, posts, comments, likes`); err != nil {
				return fmt.Errorf("truncating tables: %w", err)
			}
			users := make([][]any, len(snap.Users))
			for i, u := range snap.Users {
				users[i] = []any{u.ID, u.Username, u.Email, u.Password}
			}
			if err := copyIn(ctx, tx, "users", []string{"id", "username", "email", "password"}, users); err != nil {
				return err
			}
			posts := make([][]any, len(snap.Posts))
			for i, p := range snap.Posts {
				posts[i] = []any{p.ID, i, p.OwnerID, p.Caption, p.MediaRef, p.LikeCount}
			}
			if err := copyIn(ctx, tx, "posts", []string{"id", "position", "owner_id", "caption", "media_ref", "like_count"}, posts); err != nil {
				return err
			}
			comments := make([][]any, len(snap.Comments))
			for i, c := range snap.Comments {
				comments[i] = []any{c.ID, c.PostID, c.AuthorID, c.Text}
			}
			if err := copyIn(ctx, tx, "comments", []string{"id", "post_id", "author_id", "text"}, comments); err != nil {
				return err
			}
			likes := make([][]any, len(snap.Likes))
			for i, l := range snap.Likes {
				likes[i] = []any{l.PostID, l.UserID}
			}
			return copyIn(ctx, tx, "likes", []string{"post_id", "user_id"}, likes)
		})
	})
	if err != nil {
		return err
	}
	s.logger.Debug("snapshot saved",
		"posts", len(snap.Posts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// copyIn bulk-loads rows with the COPY protocol.
func copyIn(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("preparing copy into %s: %w", table, err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			return fmt.Errorf("copying into %s: %w", table, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flushing copy into %s: %w", table, err)
	}
	return nil
}

// Append records one activity log line.
func (s *Store) Append(ctx context.Context, line string) error {
	return resilience.WithTimeout(ctx, s.timeout, "pgstore-append", func(ctx context.Context) error {
		if _, err := s.db.DB.ExecContext(ctx, `INSERT INTO activity_log (line) VALUES ($1)`, line); err != nil {
			return fmt.Errorf("appending activity log: %w", err)
		}
		return nil
	})
}

// ActivityLines returns the most recent log lines, oldest first.
func (s *Store) ActivityLines(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT line FROM (SELECT id, line FROM activity_log ORDER BY id DESC LIMIT $1) t ORDER BY id`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing activity log: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
