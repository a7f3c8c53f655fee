package console

import (
	"context"

	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/desertthunder/dhunjam/internal/shared"
)

// OpKind names the remote operation a [Task] performs.
type OpKind int

const (
	OpLoad OpKind = iota
	OpSubmit
	OpLogin
)

func (k OpKind) String() string {
	switch k {
	case OpLoad:
		return "load"
	case OpSubmit:
		return "submit"
	case OpLogin:
		return "login"
	default:
		return "unknown"
	}
}

// Task performs one remote operation. It touches no controller state and is safe to run off the UI loop.
type Task func(ctx context.Context) Result

// Result is what a [Task] produces.
type Result struct {
	Kind     OpKind
	Token    string
	Settings *models.AdminSettings
	Session  *models.Session
	Err      error
}

// Level is the severity of a [Notice].
type Level int

const (
	Info Level = iota
	Success
	Error
)

// Notice is a transient, user visible message.
type Notice struct {
	Level Level
	Text  string
}

func noticeErr(text string) *Notice { return &Notice{Level: Error, Text: text} }
func noticeOK(text string) *Notice  { return &Notice{Level: Success, Text: text} }

// Outcome tells the caller what to do after a [Result] is applied.
type Outcome struct {
	Stale        bool    // result belonged to a superseded operation and was dropped
	Notice       *Notice // message to show, if any
	Reload       bool    // run Load again
	Navigate     bool    // leave for the next screen (login -> settings)
	Unauthorized bool    // the session was rejected; go back to login
}

// ops tracks the token of the single in-flight operation.
type ops struct {
	pending string
}

func (o *ops) begin() string {
	o.pending = shared.GenerateID()
	return o.pending
}

// accept consumes token if it is the pending one.
func (o *ops) accept(token string) bool {
	if token == "" || token != o.pending {
		return false
	}
	o.pending = ""
	return true
}

func (o *ops) cancel()        { o.pending = "" }
func (o *ops) inFlight() bool { return o.pending != "" }
