package input

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// ErrSyntax reports a key specification that cannot be parsed.
var ErrSyntax = errors.New("invalid key specification")

const keyMods = tcell.ModCtrl | tcell.ModAlt | tcell.ModShift

// Key is one key press. Characters use Code tcell.KeyRune; everything else
// uses the tcell key code with Rune zero. Shift is never set on characters:
// uppercase letters are their own keys.
type Key struct {
	Code tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// Sequence is an ordered list of key presses bound to one action.
type Sequence []Key

var namedKeys = map[string]tcell.Key{
	"up":       tcell.KeyUp,
	"down":     tcell.KeyDown,
	"left":     tcell.KeyLeft,
	"right":    tcell.KeyRight,
	"pageup":   tcell.KeyPgUp,
	"pagedown": tcell.KeyPgDn,
	"home":     tcell.KeyHome,
	"end":      tcell.KeyEnd,
	"insert":   tcell.KeyInsert,
	"del":      tcell.KeyDelete,
	"delete":   tcell.KeyDelete,
	"bs":       tcell.KeyBackspace2,
	"tab":      tcell.KeyTab,
	"enter":    tcell.KeyEnter,
	"cr":       tcell.KeyEnter,
	"return":   tcell.KeyEnter,
	"esc":      tcell.KeyEscape,
}

// canonical names used when printing keys
var keyNames = map[tcell.Key]string{
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyPgUp:       "PageUp",
	tcell.KeyPgDn:       "PageDown",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyInsert:     "Insert",
	tcell.KeyDelete:     "Del",
	tcell.KeyBackspace2: "BS",
	tcell.KeyTab:        "Tab",
	tcell.KeyBacktab:    "S-Tab",
	tcell.KeyEnter:      "Enter",
	tcell.KeyEscape:     "Esc",
}

func init() {
	for i := 1; i <= 12; i++ {
		code := tcell.KeyF1 + tcell.Key(i-1)
		namedKeys[fmt.Sprintf("f%d", i)] = code
		keyNames[code] = fmt.Sprintf("F%d", i)
	}
}

// ParseSequence parses a vim-style key specification such as "gg", "G",
// "<C-d>" or "z<Space>".
func ParseSequence(spec string) (Sequence, error) {
	if spec == "" {
		return nil, fmt.Errorf("%w: empty sequence", ErrSyntax)
	}
	var seq Sequence
	rest := spec
	for rest != "" {
		if rest[0] == '<' {
			end := strings.IndexByte(rest[1:], '>')
			// "<" alone, or "<>" with nothing in between, is a literal.
			if end > 0 {
				key, err := parseBracketed(rest[1 : end+1])
				if err != nil {
					return nil, fmt.Errorf("%q: %w", spec, err)
				}
				seq = append(seq, key)
				rest = rest[end+2:]
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(rest)
		if r == utf8.RuneError && size <= 1 {
			return nil, fmt.Errorf("%w: %q is not valid UTF-8", ErrSyntax, spec)
		}
		if unicode.IsControl(r) {
			return nil, fmt.Errorf("%w: %q contains a control character", ErrSyntax, spec)
		}
		seq = append(seq, Key{Code: tcell.KeyRune, Rune: r})
		rest = rest[size:]
	}
	return seq, nil
}

func parseBracketed(body string) (Key, error) {
	var mod tcell.ModMask
	for len(body) > 2 && body[1] == '-' {
		switch body[0] {
		case 'C', 'c':
			mod |= tcell.ModCtrl
		case 'A', 'a', 'M', 'm':
			mod |= tcell.ModAlt
		case 'S', 's':
			mod |= tcell.ModShift
		default:
			return Key{}, fmt.Errorf("%w: unknown modifier %q in <%s>", ErrSyntax, body[0], body)
		}
		body = body[2:]
	}

	if utf8.RuneCountInString(body) == 1 {
		r, _ := utf8.DecodeRuneInString(body)
		if mod&tcell.ModShift != 0 {
			return Key{}, fmt.Errorf("%w: shift cannot be combined with %q, write the shifted character instead", ErrSyntax, r)
		}
		if unicode.IsControl(r) {
			return Key{}, fmt.Errorf("%w: control character in <%s>", ErrSyntax, body)
		}
		if mod&tcell.ModCtrl != 0 {
			r = unicode.ToLower(r)
		}
		return Key{Code: tcell.KeyRune, Rune: r, Mod: mod}, nil
	}

	name := strings.ToLower(body)
	switch name {
	case "lt":
		return characterKey('<', mod)
	case "space":
		return characterKey(' ', mod)
	}
	code, ok := namedKeys[name]
	if !ok {
		return Key{}, fmt.Errorf("%w: unknown key <%s>", ErrSyntax, body)
	}
	if code == tcell.KeyTab && mod == tcell.ModShift {
		return Key{Code: tcell.KeyBacktab}, nil
	}
	return Key{Code: code, Mod: mod}, nil
}

func characterKey(r rune, mod tcell.ModMask) (Key, error) {
	if mod&tcell.ModShift != 0 {
		return Key{}, fmt.Errorf("%w: shift cannot be combined with %q", ErrSyntax, r)
	}
	return Key{Code: tcell.KeyRune, Rune: r, Mod: mod}, nil
}

// String prints the key in the syntax ParseSequence accepts.
func (k Key) String() string {
	var mods strings.Builder
	if k.Mod&tcell.ModCtrl != 0 {
		mods.WriteString("C-")
	}
	if k.Mod&tcell.ModAlt != 0 {
		mods.WriteString("A-")
	}
	if k.Mod&tcell.ModShift != 0 {
		mods.WriteString("S-")
	}

	var name string
	if k.Code == tcell.KeyRune {
		switch k.Rune {
		case '<':
			name = "lt"
		case ' ':
			name = "Space"
		default:
			if mods.Len() == 0 {
				return string(k.Rune)
			}
			name = string(k.Rune)
		}
	} else {
		var ok bool
		if name, ok = keyNames[k.Code]; !ok {
			name = fmt.Sprintf("Key%d", k.Code)
		}
	}
	return "<" + mods.String() + name + ">"
}

func (s Sequence) String() string {
	var b strings.Builder
	for _, k := range s {
		b.WriteString(k.String())
	}
	return b.String()
}

// FromEvent normalises a tcell key event so that it compares equal to the
// parsed form of the same key.
func FromEvent(ev *tcell.EventKey) Key {
	mod := ev.Modifiers()
	if mod&tcell.ModMeta != 0 {
		mod |= tcell.ModAlt
	}
	mod &= keyMods

	code := ev.Key()
	switch {
	case code == tcell.KeyRune:
		r := ev.Rune()
		mod &^= tcell.ModShift
		if mod&tcell.ModCtrl != 0 {
			r = unicode.ToLower(r)
		}
		return Key{Code: tcell.KeyRune, Rune: r, Mod: mod}
	case code == tcell.KeyBackspace:
		// Ctrl+H and Backspace share a byte on most terminals.
		return Key{Code: tcell.KeyBackspace2, Mod: mod &^ tcell.ModCtrl}
	case code == tcell.KeyBacktab:
		return Key{Code: code}
	case code == tcell.KeyTab || code == tcell.KeyEnter || code == tcell.KeyEscape:
		return Key{Code: code, Mod: mod &^ tcell.ModCtrl}
	case code >= tcell.KeyCtrlA && code <= tcell.KeyCtrlZ:
		return Key{Code: tcell.KeyRune, Rune: 'a' + rune(code-tcell.KeyCtrlA), Mod: (mod | tcell.ModCtrl) &^ tcell.ModShift}
	case code == tcell.KeyCtrlSpace:
		return Key{Code: tcell.KeyRune, Rune: ' ', Mod: tcell.ModCtrl}
	}
	return Key{Code: code, Mod: mod}
}
