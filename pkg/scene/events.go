package scene

import (
	"strings"
	"unicode"
)

// Events maps handler property names to native signal names.
type Events map[string]string

// DefaultEvents is the built-in event table.
var DefaultEvents = Events{
	"onClick":        "Activated",
	"onActivated":    "Activated",
	"onMouseEnter":   "MouseEnter",
	"onMouseLeave":   "MouseLeave",
	"onMouseButton1": "MouseButton1Click",
	"onMouseButton2": "MouseButton2Click",
	"onFocus":        "Focused",
	"onFocusLost":    "FocusLost",
	"onTextChanged":  "TextChanged",
	"onInputBegan":   "InputBegan",
	"onInputEnded":   "InputEnded",
	"onChanged":      "Changed",
}

// Merge returns a copy of e with overrides applied. An empty signal name
// removes the entry.
func (e Events) Merge(overrides map[string]string) Events {
	out := make(Events, len(e)+len(overrides))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Signal returns the native signal for a handler property name.
func (e Events) Signal(prop string) (string, bool) {
	s, ok := e[prop]
	return s, ok
}

// LooksLikeEvent reports whether prop has the shape of a handler property:
// "on" followed by an upper-case letter.
func LooksLikeEvent(prop string) bool {
	rest, ok := strings.CutPrefix(prop, "on")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		return unicode.IsUpper(r)
	}
	return false
}
