package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Input is a single-line text input, rune aware.
type Input struct {
	label     string
	value     []rune
	cursor    int
	maxLength int
	focused   bool

	labelStyle lipgloss.Style
	valueStyle lipgloss.Style
}

// NewInput creates an input with the given label.
func NewInput(label string) *Input {
	return &Input{
		label:      label,
		maxLength:  64,
		labelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		valueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")),
	}
}

// SetStyles sets the label and value styles.
func (i *Input) SetStyles(label, value lipgloss.Style) {
	i.labelStyle = label
	i.valueStyle = value
}

// SetValue replaces the value and moves the cursor to the end.
func (i *Input) SetValue(v string) {
	i.value = []rune(v)
	if len(i.value) > i.maxLength {
		i.value = i.value[:i.maxLength]
	}
	i.cursor = len(i.value)
}

// Value returns the current value.
func (i *Input) Value() string {
	return string(i.value)
}

// Focus sets the focus state.
func (i *Input) Focus(focused bool) {
	i.focused = focused
}

// Focused reports whether the input takes key presses.
func (i *Input) Focused() bool {
	return i.focused
}

// HandleKey applies an editing key. Keys are ignored while unfocused.
func (i *Input) HandleKey(key string) {
	if !i.focused {
		return
	}

	switch key {
	case "backspace":
		if i.cursor > 0 {
			i.value = append(i.value[:i.cursor-1], i.value[i.cursor:]...)
			i.cursor--
		}
	case "delete":
		if i.cursor < len(i.value) {
			i.value = append(i.value[:i.cursor], i.value[i.cursor+1:]...)
		}
	case "left":
		if i.cursor > 0 {
			i.cursor--
		}
	case "right":
		if i.cursor < len(i.value) {
			i.cursor++
		}
	case "home", "ctrl+a":
		i.cursor = 0
	case "end", "ctrl+e":
		i.cursor = len(i.value)
	case "ctrl+u":
		i.value = i.value[:0]
		i.cursor = 0
	default:
		r := []rune(key)
		if len(r) != 1 || len(i.value) >= i.maxLength {
			return
		}
		i.value = append(i.value[:i.cursor], append(r, i.value[i.cursor:]...)...)
		i.cursor++
	}
}

// Render renders the label and value, with a cursor while focused.
func (i *Input) Render() string {
	value := string(i.value)
	if i.focused {
		value = string(i.value[:i.cursor]) + "_" + string(i.value[i.cursor:])
	}
	return i.labelStyle.Render(strings.ToUpper(i.label)+": ") + i.valueStyle.Render(value)
}
