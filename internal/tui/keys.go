package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codefionn/tapcalc/internal/keypad"
)

// keyMap holds the application bindings. Calculator keys are looked up in
// calculatorKeys instead.
type keyMap struct {
	Quit         key.Binding
	Copy         key.Binding
	History      key.Binding
	ClearHistory key.Binding
	SwitchMode   key.Binding
	Help         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("ctrl+q", "quit"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy result"),
		),
		History: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "history"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "clear history"),
		),
		SwitchMode: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "basic/scientific"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "keys"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Copy, k.History, k.SwitchMode, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Copy, k.History, k.ClearHistory},
		{k.SwitchMode, k.Help, k.Quit},
	}
}

// calculatorKeys maps key strings, as reported by tea.KeyMsg.String, onto
// keypad events.
var calculatorKeys = map[string]keypad.Event{
	"+":     {Kind: keypad.Op, Value: "+"},
	"-":     {Kind: keypad.Op, Value: "-"},
	"*":     {Kind: keypad.Op, Value: "×"},
	"x":     {Kind: keypad.Op, Value: "×"},
	"/":     {Kind: keypad.Op, Value: "÷"},
	"enter": {Kind: keypad.Equal},
	"=":     {Kind: keypad.Equal},
	"esc":   {Kind: keypad.Clear},
	"c":     {Kind: keypad.Clear},
	"n":     {Kind: keypad.ToggleSign},
	"%":     {Kind: keypad.Percent},
	"(":     {Kind: keypad.OpenParen},
	")":     {Kind: keypad.CloseParen},
	"b":     {Kind: keypad.ParenToggle},
	"s":     {Kind: keypad.SciFn, Value: "sin"},
	"o":     {Kind: keypad.SciFn, Value: "cos"},
	"t":     {Kind: keypad.SciFn, Value: "tan"},
	"S":     {Kind: keypad.SciFn, Value: "sin⁻¹"},
	"O":     {Kind: keypad.SciFn, Value: "cos⁻¹"},
	"T":     {Kind: keypad.SciFn, Value: "tan⁻¹"},
	"l":     {Kind: keypad.SciFn, Value: "ln"},
	"L":     {Kind: keypad.SciFn, Value: "log"},
	"r":     {Kind: keypad.SciFn, Value: "√"},
	"R":     {Kind: keypad.SciFn, Value: "∛"},
	"i":     {Kind: keypad.SciFn, Value: "1/x"},
	"E":     {Kind: keypad.SciFn, Value: "eˣ"},
	"D":     {Kind: keypad.SciFn, Value: "10ˣ"},
	"q":     {Kind: keypad.SciFn, Value: "x²"},
	"Q":     {Kind: keypad.SciFn, Value: "x³"},
	"^":     {Kind: keypad.SciFn, Value: "xʸ"},
	"!":     {Kind: keypad.SciFn, Value: "x!"},
	"M":     {Kind: keypad.MemOp, Value: "mc"},
	"m":     {Kind: keypad.MemOp, Value: "m+"},
	"_":     {Kind: keypad.MemOp, Value: "m-"},
	"v":     {Kind: keypad.MemOp, Value: "mr"},
	"p":     {Kind: keypad.Constant, Value: "π"},
	"e":     {Kind: keypad.Constant, Value: "e"},
	"a":     {Kind: keypad.Answer},
	"d":     {Kind: keypad.ToggleAngleMode},
}

// eventForKey translates a key press. Both "." and "," enter the decimal
// separator of the active locale.
func eventForKey(msg tea.KeyMsg) (keypad.Event, bool) {
	s := msg.String()
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return keypad.Event{Kind: keypad.Digit, Value: s}, true
	}
	if s == "." || s == "," {
		return keypad.Event{Kind: keypad.Digit, Value: "."}, true
	}
	ev, ok := calculatorKeys[s]
	return ev, ok
}
