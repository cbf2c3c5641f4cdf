// Package cli drives the store from a line-oriented numbered menu. It owns
// the login session; the store only ever sees the session's user id.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/tracing"
)

var (
	errInputClosed = errors.New("input closed")
	errReadInput   = errors.New("reading input")
	errLogout      = errors.New("logout")
)

type command struct {
	label string
	name  string
	run   func(ctx context.Context) error
}

type Menu struct {
	store   *store.Store
	in      *bufio.Scanner
	out     io.Writer
	tracer  *tracing.Tracer
	session *store.Session
	logger  *slog.Logger
}

func New(st *store.Store, in io.Reader, out io.Writer, tracer *tracing.Tracer) *Menu {
	return &Menu{
		store:  st,
		in:     bufio.NewScanner(in),
		out:    out,
		tracer: tracer,
		logger: logger.WithComponent("cli"),
	}
}

// Run shows the main menu until the user exits, input ends, or ctx is
// cancelled. Running out of input is a normal exit.
func (m *Menu) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		fmt.Fprint(m.out, "\n==================== CONTENT STORE ====================\n")
		fmt.Fprint(m.out, "  1. Sign Up\n  2. Log In\n  3. Exit\n")
		choice, err := m.number("Choose (1-3): ")
		if err == nil {
			switch choice {
			case 1:
				err = m.signup(ctx)
			case 2:
				if err = m.login(ctx); err == nil && m.session != nil {
					err = m.userLoop(ctx)
				}
			case 3:
				fmt.Fprintln(m.out, "Goodbye.")
				return nil
			default:
				fmt.Fprintln(m.out, "Invalid choice.")
			}
		}
		switch {
		case errors.Is(err, errInputClosed):
			return nil
		case errors.Is(err, errReadInput):
			return err
		case err != nil:
			m.report(err)
		}
	}
	return nil
}

func (m *Menu) userLoop(ctx context.Context) error {
	ctx = logger.WithActor(ctx, m.session.UserID)
	commands := m.userCommands()
	prompt := fmt.Sprintf("Choose (1-%d): ", len(commands))
	for ctx.Err() == nil {
		fmt.Fprintf(m.out, "\n==================== USER MENU (%s) ====================\n", m.session.Username)
		for i, c := range commands {
			fmt.Fprintf(m.out, " %2d. %s\n", i+1, c.label)
		}
		choice, err := m.number(prompt)
		if errors.Is(err, errInputClosed) || errors.Is(err, errReadInput) {
			return err
		}
		if err != nil {
			m.report(err)
			continue
		}
		if choice < 1 || choice > len(commands) {
			fmt.Fprintln(m.out, "Invalid choice.")
			continue
		}
		err = m.dispatch(ctx, commands[choice-1])
		if errors.Is(err, errLogout) {
			m.logger.Info("logged out", "user_id", m.session.UserID)
			m.session = nil
			fmt.Fprintln(m.out, "Logged out.")
			return nil
		}
		if errors.Is(err, errInputClosed) || errors.Is(err, errReadInput) {
			return err
		}
		if err != nil {
			m.report(err)
		}
	}
	return nil
}

func (m *Menu) dispatch(ctx context.Context, c command) error {
	ctx, span := m.tracer.Start(ctx, "menu."+c.name)
	span.SetAttr("actor_id", m.session.UserID)
	err := c.run(ctx)
	if err != nil && !errors.Is(err, errLogout) {
		span.SetAttr("error", err.Error())
	}
	m.tracer.Finish(span)
	return err
}

func (m *Menu) signup(ctx context.Context) error {
	username, err := m.line("Username: ")
	if err != nil {
		return err
	}
	email, err := m.line("Email: ")
	if err != nil {
		return err
	}
	password, err := m.line("Password: ")
	if err != nil {
		return err
	}
	_, err = m.store.CreateUser(ctx, username, email, password)
	return m.applied(err, "Signup successful. Please log in.")
}

func (m *Menu) login(ctx context.Context) error {
	username, err := m.line("Username: ")
	if err != nil {
		return err
	}
	password, err := m.line("Password: ")
	if err != nil {
		return err
	}
	sess, err := m.store.Login(ctx, username, password)
	if err != nil && !apperrors.IsPersistence(err) {
		fmt.Fprintln(m.out, "Login failed.")
		return nil
	}
	m.session = &sess
	return m.applied(err, "Login successful!")
}

// line prompts and returns the next trimmed input line.
func (m *Menu) line(prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", errReadInput, err)
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) number(prompt string) (int, error) {
	s, err := m.line(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, "%q is not a number", s)
	}
	return n, nil
}

// applied prints the message when the change took effect, which includes the case
// where only the snapshot write failed. Any other error is returned.
func (m *Menu) applied(err error, format string, args ...any) error {
	if err != nil && !apperrors.IsPersistence(err) {
		return err
	}
	fmt.Fprintf(m.out, format+"\n", args...)
	if err != nil {
		fmt.Fprintf(m.out, "Warning: the change was not saved to disk (%v).\n", err)
	}
	return nil
}

func (m *Menu) report(err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrNotOwner),
		errors.Is(err, apperrors.ErrAlreadyExists),
		errors.Is(err, apperrors.ErrAlreadyLiked),
		errors.Is(err, apperrors.ErrNotLiked),
		errors.Is(err, apperrors.ErrEmpty),
		errors.Is(err, apperrors.ErrInvalidInput):
		fmt.Fprintf(m.out, "Error: %v\n", err)
	default:
		m.logger.Error("command failed", "error", err)
		fmt.Fprintf(m.out, "Unexpected error: %v\n", err)
	}
}
