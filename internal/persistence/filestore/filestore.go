// Package filestore keeps the store in pipe-delimited text files, one
// record per line. Every save rewrites each file through a temporary file
// and a rename, so a crash leaves either the old or the new contents.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/config"
)

type Store struct {
	cfg    config.StoreConfig
	mu     sync.Mutex
	logger *slog.Logger
}

func New(cfg config.StoreConfig) *Store {
	return &Store{
		cfg:    cfg,
		logger: slog.Default().With("component", "filestore"),
	}
}

// Load reads all record files. A missing file is an empty collection.
func (s *Store) Load(ctx context.Context) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap model.Snapshot
	var err error
	if snap.Users, err = loadFile(s, s.cfg.UsersFile, DecodeUsers); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Posts, err = loadFile(s, s.cfg.PostsFile, DecodePosts); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Comments, err = loadFile(s, s.cfg.CommentsFile, DecodeComments); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Likes, err = loadFile(s, s.cfg.LikesFile, DecodeLikes); err != nil {
		return model.Snapshot{}, err
	}
	return snap, ctx.Err()
}

func loadFile[T any](s *Store, name string, decode func(io.Reader) ([]T, []LineError, error)) ([]T, error) {
	if name == "" {
		return nil, nil
	}
	path := s.cfg.Path(name)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("record file missing, starting empty", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, bad, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, b := range bad {
		s.logger.Warn("skipping malformed record", "path", path, "line", b.Line, "reason", b.Reason)
	}
	return records, nil
}

// Save rewrites every record file from snap.
func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDir(); err != nil {
		return err
	}
	writes := []struct {
		name   string
		encode func(io.Writer) error
	}{
		{s.cfg.UsersFile, func(w io.Writer) error { return EncodeUsers(w, snap.Users) }},
		{s.cfg.PostsFile, func(w io.Writer) error { return EncodePosts(w, snap.Posts) }},
		{s.cfg.CommentsFile, func(w io.Writer) error { return EncodeComments(w, snap.Comments) }},
		{s.cfg.LikesFile, func(w io.Writer) error { return EncodeLikes(w, snap.Likes) }},
	}
	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.name == "" {
			continue
		}
		if err := writeAtomic(s.cfg.Path(w.name), w.encode); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureDir() error {
	if s.cfg.DataDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

func writeAtomic(path string, encode func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Append adds one line to the activity log.
func (s *Store) Append(ctx context.Context, line string) error {
	if s.cfg.ActivityLog == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDir(); err != nil {
		return err
	}
	path := s.cfg.Path(s.cfg.ActivityLog)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := io.WriteString(f, line+"\n"); err != nil {
		f.Close()
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return f.Close()
}
