package evidence

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrMarkup is returned when evidence markup cannot be parsed
var ErrMarkup = errors.New("malformed evidence markup")

// Markup is the tokenized form of an evidence markup string such as
// "Drinking {Mate|thing*} makes you go to the {toilet|thing**}".
//
// Entity occurrences are written {surface|kind}. A single '*' after the kind
// marks the left operand of the relation and '**' the right operand; other
// occurrences are entities of the segment that take no part in the relation.
// Either both operands are marked or neither is.
type Markup struct {
	Tokens      []string
	Occurrences []Occurrence
	// Left and Right index Occurrences, -1 when the operand is absent
	Left  int
	Right int
}

// ParseMarkup tokenizes markup. Every chunk of plain text and every entity
// surface is tokenized on its own so occurrences always align with tokens.
func ParseMarkup(markup string) (*Markup, error) {
	m := &Markup{Left: -1, Right: -1}

	rest := markup
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if err := m.plain(rest); err != nil {
				return nil, err
			}
			if (m.Left < 0) != (m.Right < 0) {
				return nil, errors.Wrapf(ErrMarkup, "%q marks only one relation operand", markup)
			}
			return m, nil
		}
		if err := m.plain(rest[:open]); err != nil {
			return nil, err
		}

		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, errors.Wrapf(ErrMarkup, "unterminated entity in %q", markup)
		}
		body := rest[open+1 : open+end]
		if strings.ContainsRune(body, '{') {
			return nil, errors.Wrapf(ErrMarkup, "nested entity in %q", markup)
		}
		if err := m.entity(body); err != nil {
			return nil, err
		}
		rest = rest[open+end+1:]
	}
}

func (m *Markup) plain(text string) error {
	if strings.ContainsRune(text, '}') {
		return errors.Wrapf(ErrMarkup, "unbalanced '}' in %q", text)
	}
	toks, err := Tokenize(text)
	if err != nil {
		return err
	}
	m.Tokens = append(m.Tokens, toks...)
	return nil
}

func (m *Markup) entity(body string) error {
	bar := strings.LastIndexByte(body, '|')
	if bar < 0 {
		return errors.Wrapf(ErrMarkup, "entity %q has no kind", body)
	}

	kind := strings.TrimSpace(body[bar+1:])
	trimmed := strings.TrimRight(kind, "*")
	stars := len(kind) - len(trimmed)
	if trimmed == "" {
		return errors.Wrapf(ErrMarkup, "entity %q has an empty kind", body)
	}

	toks, err := Tokenize(body[:bar])
	if err != nil {
		return err
	}
	if len(toks) == 0 {
		return errors.Wrapf(ErrMarkup, "entity %q has no tokens", body)
	}

	occ := Occurrence{Start: len(m.Tokens), End: len(m.Tokens) + len(toks), Kind: trimmed}
	m.Tokens = append(m.Tokens, toks...)
	m.Occurrences = append(m.Occurrences, occ)
	idx := len(m.Occurrences) - 1

	switch stars {
	case 0:
	case 1:
		if m.Left >= 0 {
			return errors.Wrap(ErrMarkup, "more than one left operand")
		}
		m.Left = idx
	case 2:
		if m.Right >= 0 {
			return errors.Wrap(ErrMarkup, "more than one right operand")
		}
		m.Right = idx
	default:
		return errors.Wrapf(ErrMarkup, "entity %q has too many '*' markers", body)
	}
	return nil
}

// operand returns the occurrence at idx, or an empty range at token 0 for
// markup without operands
func (m *Markup) operand(idx int) Occurrence {
	if idx < 0 {
		return Occurrence{}
	}
	return m.Occurrences[idx]
}
