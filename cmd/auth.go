package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/dhunjam/internal/console"
	"github.com/desertthunder/dhunjam/internal/session"
	"github.com/desertthunder/dhunjam/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login signs in with username and password and stores the session for later commands.
//
// Validation matches the interactive form: both fields are required and the password must be at least
// [console.MinPasswordLength] characters; nothing is sent otherwise.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	if cmd.Bool("password-stdin") {
		if password != "" {
			return fmt.Errorf("%w: --password and --password-stdin are mutually exclusive", shared.ErrInvalidArgument)
		}
		line, err := bufio.NewReader(r.input).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("%w: failed to read password from stdin: %v", shared.ErrMissingArgument, err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	mgr, err := r.sessions()
	if err != nil {
		return err
	}

	form := console.NewLogin(r.adminAPI(), mgr)
	form.SetUsername(cmd.String("username"))
	form.SetPassword(password)

	task, notice, err := form.Submit()
	if err != nil {
		switch {
		case notice != nil:
			return fmt.Errorf("%w: %s", shared.ErrInvalidInput, notice.Text)
		case form.FieldError(console.UsernameField) != "":
			return fmt.Errorf("%w: %s", shared.ErrMissingArgument, form.FieldError(console.UsernameField))
		case form.FieldError(console.PasswordField) != "":
			return fmt.Errorf("%w: %s", shared.ErrMissingArgument, form.FieldError(console.PasswordField))
		}
		return err
	}

	r.logger.Info("signing in", "username", form.Username())
	res := task(ctx)
	out := form.Apply(res)
	if !out.Navigate {
		return fmt.Errorf("%w: %s: %v", shared.ErrAuthFailed, out.Notice.Text, res.Err)
	}

	r.logger.Info("session stored", "admin_id", res.Session.AdminID)
	return r.writePlain("✓ %s (admin %d)\n", out.Notice.Text, res.Session.AdminID)
}

// Logout forgets the stored session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	mgr, err := r.sessions()
	if err != nil {
		return err
	}
	if err := mgr.Clear(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// WhoAmI prints the stored session: admin id, username, sign-in time and token expiry when the token is a JWT.
func (r *Runner) WhoAmI(ctx context.Context, cmd *cli.Command) error {
	mgr, err := r.sessions()
	if err != nil {
		return err
	}

	s, err := mgr.Current(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return notSignedIn(err)
		}
		return err
	}

	if err := r.writePlain("Admin ID: %d\n", s.AdminID); err != nil {
		return err
	}
	if s.Username != "" {
		if err := r.writePlain("Username: %s\n", s.Username); err != nil {
			return err
		}
	}
	if !s.CreatedAt.IsZero() {
		if err := r.writePlain("Signed in: %s\n", s.CreatedAt.Local().Format(time.RFC1123)); err != nil {
			return err
		}
	}
	if exp, ok := session.TokenExpiry(s.Token); ok {
		return r.writePlain("Expires: %s (in %s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Minute))
	}
	return r.writePlain("Expires: unknown\n")
}
