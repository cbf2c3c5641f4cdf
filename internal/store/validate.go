package store

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
)

const (
	maxUsernameLength = 64
	maxEmailLength    = 254
	maxPasswordLength = 128
	maxCaptionLength  = 2200
	maxMediaLength    = 512
	maxCommentLength  = 1000
)

// ValidationError holds per-field validation failure messages. It matches
// apperrors.ErrInvalidInput under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

type fieldCheck struct {
	errs map[string]string
}

func newCheck() *fieldCheck {
	return &fieldCheck{errs: make(map[string]string)}
}

// text validates a single-line field that ends up in a pipe-delimited
// record.
func (c *fieldCheck) text(field, value string, required bool, maxLen int) {
	if _, done := c.errs[field]; done {
		return
	}
	switch {
	case required && strings.TrimSpace(value) == "":
		c.errs[field] = field + " is required"
	case len(value) > maxLen:
		c.errs[field] = fmt.Sprintf("%s must be at most %d characters", field, maxLen)
	case strings.ContainsAny(value, "|\r\n"):
		c.errs[field] = field + " must not contain '|' or line breaks"
	}
}

// trailing validates the last field of a record, which may contain '|'.
func (c *fieldCheck) trailing(field, value string, maxLen int) {
	switch {
	case strings.TrimSpace(value) == "":
		c.errs[field] = field + " is required"
	case len(value) > maxLen:
		c.errs[field] = fmt.Sprintf("%s must be at most %d characters", field, maxLen)
	case strings.ContainsAny(value, "\r\n"):
		c.errs[field] = field + " must not contain line breaks"
	}
}

func (c *fieldCheck) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.errs}
}

func validateSignup(username, email, password string) error {
	c := newCheck()
	c.text("username", username, true, maxUsernameLength)
	if strings.ContainsAny(username, " \t") {
		c.errs["username"] = "username must not contain spaces"
	}
	c.text("email", email, true, maxEmailLength)
	if _, bad := c.errs["email"]; !bad && !strings.Contains(email, "@") {
		c.errs["email"] = "email must contain '@'"
	}
	c.text("password", password, true, maxPasswordLength)
	return c.err()
}

func validatePost(caption, media string) error {
	c := newCheck()
	c.text("caption", caption, true, maxCaptionLength)
	c.text("media_ref", media, false, maxMediaLength)
	return c.err()
}

func validateComment(text string) error {
	c := newCheck()
	c.trailing("text", text, maxCommentLength)
	return c.err()
}
