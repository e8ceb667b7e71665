package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the console key bindings.
type KeyMap struct {
	Up       Key
	Down     Key
	PageUp   Key
	PageDown Key

	Select  Key
	Back    Key
	Quit    Key
	Search  Key
	Sort    Key
	Type    Key
	Refresh Key

	// Function keys switch modules.
	F1  Key
	F2  Key
	F3  Key
	F4  Key
	F5  Key
	F6  Key
	F10 Key
}

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

func bind(help string, keys ...string) Key {
	return Key{Keys: keys, Help: help, Enabled: true}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       bind("up", "up", "k"),
		Down:     bind("down", "down", "j"),
		PageUp:   bind("page up", "pgup", "ctrl+u"),
		PageDown: bind("page down", "pgdown", "ctrl+d"),

		Select:  bind("select", "enter"),
		Back:    bind("back", "esc"),
		Quit:    bind("quit", "q", "ctrl+c"),
		Search:  bind("search", "/"),
		Sort:    bind("sort", "o"),
		Type:    bind("type filter", "t"),
		Refresh: bind("refresh", "r"),

		F1:  bind("Help", "f1"),
		F2:  bind("Dashboard", "f2"),
		F3:  bind("Inventory", "f3"),
		F4:  bind("Alerts", "f4"),
		F5:  bind("Documents", "f5"),
		F6:  bind("Moves", "f6"),
		F10: bind("Quit", "f10"),
	}
}

// Matches checks if a key message matches this key binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}

	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the provided key bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return km.Quit.Matches(msg) || km.F10.Matches(msg)
}

// IsFunctionKey checks if the key message is a module function key.
func (km KeyMap) IsFunctionKey(msg tea.KeyMsg) bool {
	return MatchesAny(msg, km.F1, km.F2, km.F3, km.F4, km.F5, km.F6, km.F10)
}

// FunctionKeyModule returns the module a function key opens, "quit" for F10,
// or "" for any other key.
func (km KeyMap) FunctionKeyModule(msg tea.KeyMsg) Module {
	switch {
	case km.F1.Matches(msg):
		return ModuleHelp
	case km.F2.Matches(msg):
		return ModuleDashboard
	case km.F3.Matches(msg):
		return ModuleInventory
	case km.F4.Matches(msg):
		return ModuleAlerts
	case km.F5.Matches(msg):
		return ModuleDocuments
	case km.F6.Matches(msg):
		return ModuleMoves
	case km.F10.Matches(msg):
		return "quit"
	default:
		return ""
	}
}

// StatusBarHelp returns the help text for the status bar.
func (km KeyMap) StatusBarHelp(width int) string {
	if width > 0 && width < 80 {
		return "F1 F2 Dash F3 Inv F4 Alrt F5 Docs F6 Mov F10 Quit"
	}
	return "[F1]Help [F2]Dashboard [F3]Inventory [F4]Alerts [F5]Documents [F6]Moves [F10]Quit"
}
