package rules

import (
	"github.com/athapong/relfeat/pkg/evidence"
)

// Body produces the pattern of a rule for an evidence
type Body func(ev *evidence.Evidence) Pattern

// Rule is a feature expressed as a token pattern. Calling the body yields a
// Pattern, never a feature value; rules become features through a wrapper
// that reports whether the pattern matches.
//
// Polarity records whether the author expects a match to count for or
// against the relation. It is carried as metadata and never inverts the
// match result.
type Rule struct {
	Polarity bool
	Body     Body
}

// New creates a rule
func New(polarity bool, body Body) *Rule {
	return &Rule{Polarity: polarity, Body: body}
}

// Pattern invokes the rule body and checks the result
func (r *Rule) Pattern(ev *evidence.Evidence) (Pattern, error) {
	if r.Body == nil {
		return nil, ErrNotPattern
	}
	p := r.Body(ev)
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}
