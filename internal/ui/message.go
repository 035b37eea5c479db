package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taskr/internal/tasks"
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
	MsgTaskUpdate MsgKind = iota
	MsgUpdatesClosed
)

// taskUpdateMsg is the constructor for [MsgTaskUpdate]
func taskUpdateMsg(update tasks.Update) Msg {
	return Msg{kind: MsgTaskUpdate, data: update}
}

// updatesClosedMsg is the constructor for [MsgUpdatesClosed]
func updatesClosedMsg() Msg {
	return Msg{kind: MsgUpdatesClosed}
}
