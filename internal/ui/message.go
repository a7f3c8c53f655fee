package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dhunjam/internal/console"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTaskDone MsgKind = iota
	MsgToastExpired
)

// taskDoneMsg is the constructor for [MsgTaskDone]
func taskDoneMsg(r console.Result) Msg {
	return Msg{kind: MsgTaskDone, data: r}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]. seq identifies the toast being dismissed.
func toastExpiredMsg(seq int) Msg {
	return Msg{kind: MsgToastExpired, data: seq}
}
