package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the list view.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	prev   key.Binding
	next   key.Binding
	create key.Binding
	edit   key.Binding
	toggle key.Binding
	remove key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		create: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		edit:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		remove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.create, k.edit, k.toggle, k.remove, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.prev, k.next},
		{k.create, k.edit, k.toggle, k.remove},
		{k.quit},
	}
}

// formKeyMap defines the bindings active while the modal form is open.
type formKeyMap struct {
	next     key.Binding
	prev     key.Binding
	submit   key.Binding
	save     key.Binding
	complete key.Binding
	cancel   key.Binding
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next/save")),
		save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		complete: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "completed")),
		cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// confirmKeyMap defines the bindings of the delete prompt.
type confirmKeyMap struct {
	yes key.Binding
	no  key.Binding
}

func newConfirmKeyMap() confirmKeyMap {
	return confirmKeyMap{
		yes: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		no:  key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
	}
}
