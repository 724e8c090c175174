package evidence

// Token represents a processed token with linguistic information
type Token struct {
	Text  string `json:"text"`
	POS   string `json:"pos"`
	Lemma string `json:"lemma"`
}

// Occurrence marks an entity mention as the half-open token range [Start, End)
type Occurrence struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Kind  string `json:"kind"`
}

// Len returns the number of tokens covered by the occurrence
func (o Occurrence) Len() int {
	return o.End - o.Start
}

// Segment is the tokenized text underlying an Evidence.
//
// Tokens, PosTags and Lemmas are parallel and always have the same length.
// Occurrences holds every entity occurrence recognized in the segment, a
// superset of the two occurrences of any Evidence built on it. A Segment is
// shared between evidences and must not be modified once built.
type Segment struct {
	Tokens      []string     `json:"tokens"`
	PosTags     []string     `json:"postags"`
	Lemmas      []string     `json:"lemmas"`
	Trees       []*Tree      `json:"-"`
	Occurrences []Occurrence `json:"occurrences"`
}

// Len returns the number of tokens in the segment
func (s *Segment) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Tokens)
}

// Token returns the annotated token at index i
func (s *Segment) Token(i int) Token {
	return Token{Text: s.Tokens[i], POS: s.PosTags[i], Lemma: s.Lemmas[i]}
}

// Annotated returns the whole segment as annotated tokens
func (s *Segment) Annotated() []Token {
	out := make([]Token, s.Len())
	for i := range out {
		out[i] = s.Token(i)
	}
	return out
}

// Evidence is a segment with the two entity occurrences of a candidate
// relation. Left and Right are the relation operands in declaration order,
// which need not match their order in the text.
type Evidence struct {
	ID      string
	Segment *Segment
	Left    Occurrence
	Right   Occurrence
}

// New creates an evidence over seg for the given operands
func New(id string, seg *Segment, left, right Occurrence) *Evidence {
	if seg == nil {
		seg = &Segment{}
	}
	return &Evidence{ID: id, Segment: seg, Left: left, Right: right}
}

// First returns the operand that starts first in the text
func (e *Evidence) First() Occurrence {
	if e.Right.Start < e.Left.Start {
		return e.Right
	}
	return e.Left
}

// Second returns the operand that starts last in the text
func (e *Evidence) Second() Occurrence {
	if e.Right.Start < e.Left.Start {
		return e.Left
	}
	return e.Right
}
