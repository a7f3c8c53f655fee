package console

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/desertthunder/dhunjam/internal/services"
	"github.com/desertthunder/dhunjam/internal/session"
	"github.com/desertthunder/dhunjam/internal/shared"
)

// MinPasswordLength is the shortest password sent to the API.
const MinPasswordLength = 8

const (
	LoginSuccessMessage   = "Login successful"
	InvalidPasswordNotice = "Please enter a valid password"
	UsernameRequired      = "Please enter username"
	PasswordRequired      = "Please enter password"
)

// LoginField identifies an input on the login form.
type LoginField int

const (
	UsernameField LoginField = iota
	PasswordField
)

// Login is the login form controller.
type Login struct {
	api      services.AdminAPI
	sessions *session.Manager
	ops      ops

	username  string
	password  string
	revealed  bool
	signingIn bool
	done      bool
	fieldErrs map[LoginField]string
}

// NewLogin creates an empty login form.
func NewLogin(api services.AdminAPI, sessions *session.Manager) *Login {
	return &Login{api: api, sessions: sessions, fieldErrs: map[LoginField]string{}}
}

// SetUsername updates the username input.
func (l *Login) SetUsername(v string) {
	l.username = v
	if strings.TrimSpace(v) != "" {
		delete(l.fieldErrs, UsernameField)
	}
}

// SetPassword updates the password input.
func (l *Login) SetPassword(v string) {
	l.password = v
	if v != "" {
		delete(l.fieldErrs, PasswordField)
	}
}

// ToggleReveal shows or masks the password.
func (l *Login) ToggleReveal()    { l.revealed = !l.revealed }
func (l *Login) Revealed() bool   { return l.revealed }
func (l *Login) Username() string { return l.username }
func (l *Login) Password() string { return l.password }
func (l *Login) SigningIn() bool  { return l.signingIn }
func (l *Login) Done() bool       { return l.done }

// FieldError returns the inline message for f, or "".
func (l *Login) FieldError(f LoginField) string { return l.fieldErrs[f] }

// ButtonLabel is the text of the submit action.
func (l *Login) ButtonLabel() string {
	if l.signingIn {
		return "Signing in ..."
	}
	return "Sign In"
}

// Submit validates the form and, when it passes, returns the login task.
//
// Required-field problems are reported inline; a short password produces a notice. Neither issues a request.
func (l *Login) Submit() (Task, *Notice, error) {
	if l.signingIn {
		return nil, nil, shared.ErrBusy
	}

	l.fieldErrs = map[LoginField]string{}
	if strings.TrimSpace(l.username) == "" {
		l.fieldErrs[UsernameField] = UsernameRequired
	}
	if l.password == "" {
		l.fieldErrs[PasswordField] = PasswordRequired
	}
	if len(l.fieldErrs) > 0 {
		return nil, nil, fmt.Errorf("%w: required field missing", shared.ErrInvalidInput)
	}

	if utf8.RuneCountInString(l.password) < MinPasswordLength {
		return nil, noticeErr(InvalidPasswordNotice), fmt.Errorf("%w: password too short", shared.ErrInvalidInput)
	}

	creds := models.Credentials{Username: strings.TrimSpace(l.username), Password: l.password}
	token := l.ops.begin()
	api, sessions := l.api, l.sessions
	l.signingIn = true

	return func(ctx context.Context) Result {
		sess, err := api.Login(ctx, creds)
		if err == nil {
			err = sessions.Set(ctx, *sess)
		}
		return Result{Kind: OpLogin, Token: token, Session: sess, Err: err}
	}, nil, nil
}

// Apply folds a finished login task into the form.
func (l *Login) Apply(r Result) Outcome {
	if r.Kind != OpLogin || !l.ops.accept(r.Token) {
		return Outcome{Stale: true}
	}
	l.signingIn = false

	if r.Err != nil {
		return Outcome{Notice: noticeErr(services.UserMessage(r.Err, services.FallbackLoginMessage))}
	}

	l.done = true
	l.password = ""
	return Outcome{Notice: noticeOK(LoginSuccessMessage), Navigate: true}
}

// Unmount abandons an in-flight login.
func (l *Login) Unmount() {
	l.ops.cancel()
	l.signingIn = false
}
