// Package rules implements a regular-expression style matcher over token
// sequences. Patterns are built from a closed set of primitives and compiled
// to a Thompson NFA that searches for a match anywhere in the sequence.
package rules

import (
	"strconv"
	"strings"

	"github.com/athapong/relfeat/pkg/evidence"
)

// Pattern is an immutable expression over token sequences. The variants are
// Literal, Pos, Lemma, Any, Sequence, Alternation and Star.
type Pattern interface {
	// String renders the pattern canonically; equal renderings compile to
	// equivalent programs.
	String() string
	emit(c *compiler)
}

// atom is a pattern that consumes exactly one token
type atom interface {
	Pattern
	matches(tok evidence.Token) bool
}

// Literal matches a token whose text equals Text
type Literal struct {
	Text string
}

// Pos matches a token tagged Tag
type Pos struct {
	Tag string
}

// Lemma matches a token whose lemma equals Text
type Lemma struct {
	Text string
}

// Any matches any single token
type Any struct{}

// Sequence matches its items one after the other. An empty sequence matches
// the empty run.
type Sequence struct {
	Items []Pattern
}

// Alternation matches any one of its options. An empty alternation never
// matches.
type Alternation struct {
	Options []Pattern
}

// Star matches zero or more repetitions of Sub
type Star struct {
	Sub Pattern
}

func (p Literal) matches(tok evidence.Token) bool { return tok.Text == p.Text }
func (p Pos) matches(tok evidence.Token) bool     { return tok.POS == p.Tag }
func (p Lemma) matches(tok evidence.Token) bool   { return tok.Lemma == p.Text }
func (Any) matches(evidence.Token) bool           { return true }

func (p Literal) String() string { return strconv.Quote(p.Text) }
func (p Pos) String() string     { return "pos(" + strconv.Quote(p.Tag) + ")" }
func (p Lemma) String() string   { return "lemma(" + strconv.Quote(p.Text) + ")" }
func (Any) String() string       { return "any" }

func (p Sequence) String() string    { return render("seq", p.Items) }
func (p Alternation) String() string { return render("alt", p.Options) }
func (p Star) String() string        { return "star(" + str(p.Sub) + ")" }

func render(name string, items []Pattern) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = str(item)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// str renders p, or "nil" for a missing pattern
func str(p Pattern) string {
	if p == nil {
		return "nil"
	}
	return p.String()
}

// Token matches a single token with the given text
func Token(text string) Pattern {
	return Literal{Text: text}
}

// Seq matches items one after the other
func Seq(items ...Pattern) Pattern {
	return Sequence{Items: items}
}

// Alt matches any one of options
func Alt(options ...Pattern) Pattern {
	return Alternation{Options: options}
}

// Plus matches one or more repetitions of p
func Plus(p Pattern) Pattern {
	return Sequence{Items: []Pattern{p, Star{Sub: p}}}
}

// Question matches p or the empty run
func Question(p Pattern) Pattern {
	return Alternation{Options: []Pattern{p, Sequence{}}}
}
