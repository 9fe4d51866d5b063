package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	toggle   key.Binding
	next     key.Binding
	prev     key.Binding
	seekBack key.Binding
	seekFwd  key.Binding
	volDown  key.Binding
	volUp    key.Binding
	shuffle  key.Binding
	repeat   key.Binding
	like     key.Binding
	add      key.Binding
	queue    key.Binding
	likes    key.Binding
	search   key.Binding
	curate   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		seekBack: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "seek -5s")),
		seekFwd:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "seek +5s")),
		volDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		volUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		shuffle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		like:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "enqueue")),
		queue:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "queue")),
		likes:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "likes")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		curate:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "curate")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.like, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.toggle, k.next, k.prev, k.seekBack, k.seekFwd},
		{k.volDown, k.volUp, k.shuffle, k.repeat, k.like},
		{k.queue, k.likes, k.search, k.curate, k.quit},
	}
}
