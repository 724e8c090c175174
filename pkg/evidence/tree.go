package evidence

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrTree is returned when a bracketed parse tree cannot be read
var ErrTree = errors.New("malformed syntactic tree")

// Tree is a node of a syntactic parse. Leaves carry a token in Label and have
// no children.
type Tree struct {
	Label    string  `json:"label"`
	Children []*Tree `json:"children,omitempty"`
}

// IsLeaf reports whether the node is a token
func (t *Tree) IsLeaf() bool {
	return len(t.Children) == 0
}

// Height returns the length of the longest path from t to a leaf, counting
// nodes. A leaf has height 1 and a preterminal height 2.
func (t *Tree) Height() int {
	if t.IsLeaf() {
		return 1
	}
	h := 0
	for _, c := range t.Children {
		h = max(h, c.Height())
	}
	return h + 1
}

// Labels returns the labels of every non-leaf node in pre-order
func (t *Tree) Labels() []string {
	var out []string
	t.walk(func(n *Tree) {
		if !n.IsLeaf() {
			out = append(out, n.Label)
		}
	})
	return out
}

// Leaves returns the tokens of the tree from left to right
func (t *Tree) Leaves() []string {
	var out []string
	t.walk(func(n *Tree) {
		if n.IsLeaf() {
			out = append(out, n.Label)
		}
	})
	return out
}

// String renders the tree in bracketed notation
func (t *Tree) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Tree) write(b *strings.Builder) {
	if t.IsLeaf() {
		b.WriteString(t.Label)
		return
	}
	b.WriteByte('(')
	b.WriteString(t.Label)
	for _, c := range t.Children {
		b.WriteByte(' ')
		c.write(b)
	}
	b.WriteByte(')')
}

func (t *Tree) walk(fn func(*Tree)) {
	fn(t)
	for _, c := range t.Children {
		c.walk(fn)
	}
}

// ParseTree reads a Penn-style bracketed tree such as
// "(S (NP (NNP Mate)) (VP (VBZ rocks)))".
func ParseTree(s string) (*Tree, error) {
	p := &treeParser{toks: lexTree(s)}
	if len(p.toks) == 0 {
		return nil, errors.Wrap(ErrTree, "empty input")
	}
	t, err := p.node()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, errors.Wrapf(ErrTree, "trailing input at token %d", p.pos)
	}
	return t, nil
}

func lexTree(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type treeParser struct {
	toks []string
	pos  int
}

func (p *treeParser) node() (*Tree, error) {
	if p.pos >= len(p.toks) || p.toks[p.pos] != "(" {
		return nil, errors.Wrapf(ErrTree, "expected '(' at token %d", p.pos)
	}
	p.pos++

	t := &Tree{}
	if p.pos < len(p.toks) && p.toks[p.pos] != "(" && p.toks[p.pos] != ")" {
		t.Label = p.toks[p.pos]
		p.pos++
	}

	for p.pos < len(p.toks) {
		switch p.toks[p.pos] {
		case ")":
			p.pos++
			if len(t.Children) == 0 {
				return nil, errors.Wrapf(ErrTree, "node %q has no children", t.Label)
			}
			return t, nil
		case "(":
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, child)
		default:
			t.Children = append(t.Children, &Tree{Label: p.toks[p.pos]})
			p.pos++
		}
	}
	return nil, errors.Wrap(ErrTree, "unbalanced parentheses")
}
