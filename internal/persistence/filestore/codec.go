package filestore

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
)

const maxLineBytes = 1 << 20

// LineError describes a record that could not be parsed. Decoders skip such
// lines and report them so the caller can log.
type LineError struct {
	Line   int
	Reason string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// scan calls fn with the fields of every non-blank line. The last field
// takes the rest of the line.
func scan(r io.Reader, nfields int, fn func(fields []string) error) ([]LineError, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var bad []LineError
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "|", nfields)
		if len(fields) != nfields {
			bad = append(bad, LineError{Line: n, Reason: fmt.Sprintf("want %d fields, got %d", nfields, len(fields))})
			continue
		}
		if err := fn(fields); err != nil {
			bad = append(bad, LineError{Line: n, Reason: err.Error()})
		}
	}
	if err := sc.Err(); err != nil {
		return bad, fmt.Errorf("reading records: %w", err)
	}
	return bad, nil
}

func atoi(name, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", name, s)
	}
	return v, nil
}

// DecodeUsers parses `id|username|email|password` records.
func DecodeUsers(r io.Reader) ([]model.User, []LineError, error) {
	var out []model.User
	bad, err := scan(r, 4, func(f []string) error {
		id, err := atoi("id", f[0])
		if err != nil {
			return err
		}
		out = append(out, model.User{ID: id, Username: f[1], Email: f[2], Password: f[3]})
		return nil
	})
	return out, bad, err
}

// DecodePosts parses `id|owner_id|caption|media_ref|like_count` records.
func DecodePosts(r io.Reader) ([]model.Post, []LineError, error) {
	var out []model.Post
	bad, err := scan(r, 5, func(f []string) error {
		id, err := atoi("id", f[0])
		if err != nil {
			return err
		}
		owner, err := atoi("owner_id", f[1])
		if err != nil {
			return err
		}
		likes, err := atoi("like_count", f[4])
		if err != nil {
			return err
		}
		out = append(out, model.Post{ID: id, OwnerID: owner, Caption: f[2], MediaRef: f[3], LikeCount: likes})
		return nil
	})
	return out, bad, err
}

// DecodeComments parses `id|post_id|author_id|text` records.
func DecodeComments(r io.Reader) ([]model.Comment, []LineError, error) {
	var out []model.Comment
	bad, err := scan(r, 4, func(f []string) error {
		id, err := atoi("id", f[0])
		if err != nil {
			return err
		}
		post, err := atoi("post_id", f[1])
		if err != nil {
			return err
		}
		author, err := atoi("author_id", f[2])
		if err != nil {
			return err
		}
		out = append(out, model.Comment{ID: id, PostID: post, AuthorID: author, Text: f[3]})
		return nil
	})
	return out, bad, err
}

// DecodeLikes parses `post_id|user_id` records.
func DecodeLikes(r io.Reader) ([]model.Like, []LineError, error) {
	var out []model.Like
	bad, err := scan(r, 2, func(f []string) error {
		post, err := atoi("post_id", f[0])
		if err != nil {
			return err
		}
		user, err := atoi("user_id", f[1])
		if err != nil {
			return err
		}
		out = append(out, model.Like{PostID: post, UserID: user})
		return nil
	})
	return out, bad, err
}

func EncodeUsers(w io.Writer, users []model.User) error {
	bw := bufio.NewWriter(w)
	for _, u := range users {
		fmt.Fprintf(bw, "%d|%s|%s|%s\n", u.ID, u.Username, u.Email, u.Password)
	}
	return bw.Flush()
}

func EncodePosts(w io.Writer, posts []model.Post) error {
	bw := bufio.NewWriter(w)
	for _, p := range posts {
		fmt.Fprintf(bw, "%d|%d|%s|%s|%d\n", p.ID, p.OwnerID, p.Caption, p.MediaRef, p.LikeCount)
	}
	return bw.Flush()
}

func EncodeComments(w io.Writer, comments []model.Comment) error {
	bw := bufio.NewWriter(w)
	for _, c := range comments {
		fmt.Fprintf(bw, "%d|%d|%d|%s\n", c.ID, c.PostID, c.AuthorID, c.Text)
	}
	return bw.Flush()
}

func EncodeLikes(w io.Writer, likes []model.Like) error {
	bw := bufio.NewWriter(w)
	for _, l := range likes {
		fmt.Fprintf(bw, "%d|%d\n", l.PostID, l.UserID)
	}
	return bw.Flush()
}
