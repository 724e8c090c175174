package rules

import (
	"github.com/pkg/errors"

	"github.com/athapong/relfeat/pkg/evidence"
)

// ErrNotPattern is returned when a rule body does not produce a pattern
var ErrNotPattern = errors.New("rule body did not return a pattern")

type opcode uint8

const (
	opMatch opcode = iota
	opToken
	opSplit
	opJump
	opFail
)

type inst struct {
	op   opcode
	atom atom
	x, y int
}

// Program is a compiled pattern. It is immutable and safe for concurrent use.
type Program struct {
	insts []inst
	src   string
}

// String returns the rendering of the compiled pattern
func (p *Program) String() string {
	return p.src
}

// Validate reports ErrNotPattern when p, or any pattern nested in it, is nil
func Validate(p Pattern) error {
	switch v := p.(type) {
	case nil:
		return ErrNotPattern
	case Sequence:
		return validateAll(v.Items)
	case Alternation:
		return validateAll(v.Options)
	case Star:
		return Validate(v.Sub)
	}
	return nil
}

func validateAll(ps []Pattern) error {
	for _, p := range ps {
		if err := Validate(p); err != nil {
			return err
		}
	}
	return nil
}

// Compile translates p to a Thompson NFA
func Compile(p Pattern) (*Program, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	c := &compiler{}
	p.emit(c)
	c.add(inst{op: opMatch})
	return &Program{insts: c.insts, src: p.String()}, nil
}

// MustCompile is like Compile but panics on invalid patterns
func MustCompile(p Pattern) *Program {
	prog, err := Compile(p)
	if err != nil {
		panic(err)
	}
	return prog
}

type compiler struct {
	insts []inst
}

func (c *compiler) add(i inst) int {
	c.insts = append(c.insts, i)
	return len(c.insts) - 1
}

func (c *compiler) pc() int {
	return len(c.insts)
}

func (p Literal) emit(c *compiler) { c.add(inst{op: opToken, atom: p}) }
func (p Pos) emit(c *compiler)     { c.add(inst{op: opToken, atom: p}) }
func (p Lemma) emit(c *compiler)   { c.add(inst{op: opToken, atom: p}) }
func (p Any) emit(c *compiler)     { c.add(inst{op: opToken, atom: p}) }

func (p Sequence) emit(c *compiler) {
	for _, item := range p.Items {
		item.emit(c)
	}
}

// Alternation of a, b, c compiles to
//
//	L0: split L1, L2
//	L1: a; jump end
//	L2: split L3, L4
//	L3: b; jump end
//	L4: c
//	end:
func (p Alternation) emit(c *compiler) {
	if len(p.Options) == 0 {
		c.add(inst{op: opFail})
		return
	}

	var jumps []int
	for k, opt := range p.Options {
		if k == len(p.Options)-1 {
			opt.emit(c)
			break
		}
		split := c.add(inst{op: opSplit, x: c.pc() + 1})
		opt.emit(c)
		jumps = append(jumps, c.add(inst{op: opJump}))
		c.insts[split].y = c.pc()
	}
	for _, j := range jumps {
		c.insts[j].x = c.pc()
	}
}

// Star compiles to
//
//	L0: split L1, end
//	L1: sub; jump L0
//	end:
func (p Star) emit(c *compiler) {
	split := c.add(inst{op: opSplit, x: c.pc() + 1})
	p.Sub.emit(c)
	c.add(inst{op: opJump, x: split})
	c.insts[split].y = c.pc()
}

// threads is a sparse set of program counters
type threads struct {
	sparse []int
	dense  []int
}

func newThreads(n int) *threads {
	return &threads{sparse: make([]int, n), dense: make([]int, 0, n)}
}

func (t *threads) contains(pc int) bool {
	i := t.sparse[pc]
	return i < len(t.dense) && t.dense[i] == pc
}

func (t *threads) insert(pc int) {
	t.sparse[pc] = len(t.dense)
	t.dense = append(t.dense, pc)
}

func (t *threads) clear() {
	t.dense = t.dense[:0]
}

// follow adds pc and everything reachable from it without consuming a token.
// It reports whether the match instruction was reached.
func (p *Program) follow(t *threads, pc int) bool {
	if t.contains(pc) {
		return false
	}
	t.insert(pc)

	in := p.insts[pc]
	switch in.op {
	case opMatch:
		return true
	case opJump:
		return p.follow(t, in.x)
	case opSplit:
		// Both branches are always followed so every live thread is recorded.
		a := p.follow(t, in.x)
		b := p.follow(t, in.y)
		return a || b
	}
	return false
}

// Match reports whether the program matches some contiguous run of toks.
// The search is unanchored on both ends.
func (p *Program) Match(toks []evidence.Token) bool {
	clist, nlist := newThreads(len(p.insts)), newThreads(len(p.insts))

	for pos := 0; ; pos++ {
		if p.follow(clist, 0) {
			return true
		}
		if pos == len(toks) {
			return false
		}

		for _, pc := range clist.dense {
			in := p.insts[pc]
			if in.op == opToken && in.atom.matches(toks[pos]) {
				if p.follow(nlist, pc+1) {
					return true
				}
			}
		}
		clist, nlist = nlist, clist
		nlist.clear()
	}
}

// MatchEvidence runs the program over the whole segment of ev
func (p *Program) MatchEvidence(ev *evidence.Evidence) bool {
	if ev.Segment == nil {
		return p.Match(nil)
	}
	return p.Match(ev.Segment.Annotated())
}
