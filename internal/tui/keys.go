package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Tab      key.Binding
	Enter    key.Binding
	Start    key.Binding
	Stop     key.Binding
	Done     key.Binding
	Approve  key.Binding
	Delete   key.Binding
	Edit     key.Binding
	Due      key.Binding
	Sort     key.Binding
	LateKey  key.Binding
	Seen     key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
	Logout   key.Binding
	Refresh  key.Binding
	Search   key.Binding
	NextHit  key.Binding
	PrevHit  key.Binding
	Confirm  key.Binding
	GoBottom key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous tab")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next tab")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Stop:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "back to planned")),
	Done:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "complete")),
	Approve:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "approve")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
	Due:      key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "move due date")),
	Sort:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "toggle sort")),
	LateKey:  key.NewBinding(key.WithKeys("!"), key.WithHelp("!", "late first")),
	Seen:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear approvals")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Refresh:  key.NewBinding(key.WithKeys("R", "r"), key.WithHelp("r", "refresh")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	NextHit:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next match")),
	PrevHit:  key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "previous match")),
	Confirm:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	GoBottom: key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "bottom")),
}
