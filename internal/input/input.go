// Package input translates key presses into the editor's key notation.
package input

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Modifier is a set of held modifier keys.
type Modifier uint8

const (
	Shift Modifier = 1 << iota
	Ctrl
	Alt
	Super
)

// keyNames maps toolkit key names to key notation names.
var keyNames = map[string]string{
	"Escape":       "Esc",
	"Return":       "CR",
	"KP_Enter":     "kEnter",
	"BackSpace":    "BS",
	"Tab":          "Tab",
	"ISO_Left_Tab": "Tab",
	"space":        "Space",
	"less":         "lt",
	"backslash":    "Bslash",
	"bar":          "Bar",
	"Up":           "Up",
	"Down":         "Down",
	"Left":         "Left",
	"Right":        "Right",
	"Page_Up":      "PageUp",
	"Page_Down":    "PageDown",
	"Home":         "Home",
	"End":          "End",
	"Insert":       "Insert",
	"Delete":       "Del",
	"Help":         "Help",
	"Undo":         "Undo",
	"KP_Up":        "kUp",
	"KP_Down":      "kDown",
	"KP_Left":      "kLeft",
	"KP_Right":     "kRight",
	"KP_Home":      "kHome",
	"KP_End":       "kEnd",
	"KP_Page_Up":   "kPageUp",
	"KP_Page_Down": "kPageDown",
	"KP_Insert":    "kInsert",
	"KP_Delete":    "kDel",
	"KP_Add":       "kPlus",
	"KP_Subtract":  "kMinus",
	"KP_Multiply":  "kMultiply",
	"KP_Divide":    "kDivide",
	"KP_Decimal":   "kPoint",
	"F1":           "F1",
	"F2":           "F2",
	"F3":           "F3",
	"F4":           "F4",
	"F5":           "F5",
	"F6":           "F6",
	"F7":           "F7",
	"F8":           "F8",
	"F9":           "F9",
	"F10":          "F10",
	"F11":          "F11",
	"F12":          "F12",
}

var modifierKeys = map[string]bool{
	"Shift_L": true, "Shift_R": true,
	"Control_L": true, "Control_R": true,
	"Alt_L": true, "Alt_R": true,
	"Meta_L": true, "Meta_R": true,
	"Super_L": true, "Super_R": true,
	"Hyper_L": true, "Hyper_R": true,
	"Caps_Lock": true, "ISO_Level3_Shift": true,
}

// IsModifier reports whether name is a modifier-only key.
func IsModifier(name string) bool {
	return modifierKeys[name]
}

func (m Modifier) prefix() string {
	var sb strings.Builder
	if m&Shift != 0 {
		sb.WriteString("S-")
	}
	if m&Ctrl != 0 {
		sb.WriteString("C-")
	}
	if m&Alt != 0 {
		sb.WriteString("A-")
	}
	if m&Super != 0 {
		sb.WriteString("D-")
	}
	return sb.String()
}

// Key returns the key notation for a press of the named key with mods held,
// e.g. Key("a", Ctrl|Shift) is "<S-C-a>".  A single-character name is the
// character itself.  ok is false for modifier-only presses and unknown
// names.
func Key(name string, mods Modifier) (keys string, ok bool) {
	if name == "" || IsModifier(name) {
		return "", false
	}
	var key string
	if utf8.RuneCountInString(name) == 1 {
		key = name
		if key == "<" {
			key = "lt"
		}
	} else if key, ok = keyNames[name]; !ok {
		return "", false
	}
	return "<" + mods.prefix() + key + ">", true
}

// Commit returns key notation for text committed by an input method.
func Commit(text string) string {
	return strings.ReplaceAll(text, "<", "<lt>")
}

// ParseModifiers parses a comma separated list such as "ctrl,shift".
func ParseModifiers(s string) (Modifier, error) {
	var m Modifier
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case "shift", "s":
			m |= Shift
		case "ctrl", "control", "c":
			m |= Ctrl
		case "alt", "meta", "a", "m":
			m |= Alt
		case "super", "cmd", "d":
			m |= Super
		default:
			return 0, fmt.Errorf("unknown modifier %q", name)
		}
	}
	return m, nil
}
