package input

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kk-code-lab/meowpdf/internal/state"
)

// ErrConflict reports two bindings that cannot coexist.
var ErrConflict = errors.New("conflicting key binding")

// Match classifies a lookup.
type Match int

const (
	MatchNone Match = iota
	MatchPrefix
	MatchExact
)

// DefaultBindings are the bindings used for actions the configuration does
// not mention.
var DefaultBindings = map[state.Action][]string{
	state.ActionScrollDown:    {"j", "<Down>"},
	state.ActionScrollUp:      {"k", "<Up>"},
	state.ActionScrollLeft:    {"h", "<Left>"},
	state.ActionScrollRight:   {"l", "<Right>"},
	state.ActionPageDown:      {"<C-f>", "<PageDown>", "<Space>"},
	state.ActionPageUp:        {"<C-b>", "<PageUp>"},
	state.ActionHalfPageDown:  {"<C-d>"},
	state.ActionHalfPageUp:    {"<C-u>"},
	state.ActionNextPage:      {"J"},
	state.ActionPrevPage:      {"K"},
	state.ActionJumpFirstPage: {"gg", "<Home>"},
	state.ActionJumpLastPage:  {"G", "<End>"},
	state.ActionZoomIn:        {"+", "="},
	state.ActionZoomOut:       {"-"},
	state.ActionFitWidth:      {"zw"},
	state.ActionCenterViewer:  {"zc"},
	state.ActionToggleAlpha:   {"ta"},
	state.ActionToggleInverse: {"ti"},
	state.ActionQuit:          {"q", "<C-c>"},
}

type node struct {
	action   state.Action
	children map[Key]*node
}

// Table maps key sequences to actions as a trie, so a lookup tells apart a
// complete binding from the prefix of a longer one.
type Table struct {
	root node
}

func NewTable() *Table {
	return &Table{root: node{children: map[Key]*node{}}}
}

// NewTableFrom parses and binds every specification of bindings.
func NewTableFrom(bindings map[state.Action][]string) (*Table, error) {
	t := NewTable()
	actions := make([]state.Action, 0, len(bindings))
	for action := range bindings {
		actions = append(actions, action)
	}
	slices.Sort(actions)

	for _, action := range actions {
		for _, spec := range bindings[action] {
			seq, err := ParseSequence(spec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", action, err)
			}
			if err := t.Bind(action, seq); err != nil {
				return nil, fmt.Errorf("%s: %w", action, err)
			}
		}
	}
	return t, nil
}

// Bind adds a binding. A sequence that is a prefix of an existing binding, or
// extends one, is rejected because the shorter binding would always win.
func (t *Table) Bind(action state.Action, seq Sequence) error {
	if len(seq) == 0 {
		return fmt.Errorf("%w: empty sequence", ErrSyntax)
	}
	if action == state.ActionNone {
		return fmt.Errorf("%w: cannot bind %s to no action", ErrConflict, seq)
	}
	n := &t.root
	for i, key := range seq {
		if n.action != state.ActionNone {
			return fmt.Errorf("%w: %s extends %s bound to %s", ErrConflict, seq, seq[:i], n.action)
		}
		child, ok := n.children[key]
		if !ok {
			child = &node{children: map[Key]*node{}}
			n.children[key] = child
		}
		n = child
	}
	switch {
	case n.action == action:
		return nil
	case n.action != state.ActionNone:
		return fmt.Errorf("%w: %s is already bound to %s", ErrConflict, seq, n.action)
	case len(n.children) > 0:
		return fmt.Errorf("%w: %s is a prefix of a longer binding", ErrConflict, seq)
	}
	n.action = action
	return nil
}

// Lookup resolves a (possibly partial) sequence.
func (t *Table) Lookup(seq Sequence) (state.Action, Match) {
	if len(seq) == 0 {
		return state.ActionNone, MatchNone
	}
	n := &t.root
	for _, key := range seq {
		child, ok := n.children[key]
		if !ok {
			return state.ActionNone, MatchNone
		}
		n = child
	}
	if n.action != state.ActionNone {
		return n.action, MatchExact
	}
	return state.ActionNone, MatchPrefix
}
