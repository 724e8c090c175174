package resolver

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/athapong/relfeat/pkg/evidence"
	"github.com/athapong/relfeat/pkg/features"
	"github.com/athapong/relfeat/pkg/metrics"
	"github.com/athapong/relfeat/pkg/rules"
)

// Kind tells plain features and rules apart
type Kind int

const (
	KindPlain Kind = iota
	KindRule
)

func (k Kind) String() string {
	if k == KindRule {
		return "rule"
	}
	return "plain"
}

// Feature is a resolved feature spec
type Feature struct {
	Spec string
	Kind Kind
	// Polarity is the declared polarity of a rule. It is informational and
	// does not change the computed value.
	Polarity bool

	compute func(ev *evidence.Evidence) (features.Value, error)
}

// Compute evaluates the feature on ev. Rules yield 1 when their pattern
// matches anywhere in the evidence tokens and 0 otherwise.
func (f *Feature) Compute(ev *evidence.Evidence) (features.Value, error) {
	return f.compute(ev)
}

// Plain creates a feature from a plain feature function
func Plain(spec string, fn features.Func) *Feature {
	return &Feature{
		Spec: spec,
		Kind: KindPlain,
		compute: func(ev *evidence.Evidence) (features.Value, error) {
			return fn(ev), nil
		},
	}
}

// maxCachedPrograms bounds the compiled programs kept per rule
const maxCachedPrograms = 1024

// WrapRule creates a feature from a rule. Compiled programs are cached per
// distinct pattern rendering. Rules whose body builds a pattern from the
// evidence should draw from a small vocabulary: the cache holds at most
// maxCachedPrograms programs and is reset when full, so a body producing a
// new pattern for most evidences compiles on almost every call.
func WrapRule(spec string, rule *rules.Rule) (*Feature, error) {
	if rule == nil || rule.Body == nil {
		return nil, errors.Wrapf(ErrType, "rule %q has no body", spec)
	}

	w := newRuleWrapper(spec, rule)
	return &Feature{
		Spec:     spec,
		Kind:     KindRule,
		Polarity: rule.Polarity,
		compute:  w.compute,
	}, nil
}

type ruleWrapper struct {
	spec     string
	rule     *rules.Rule
	limit    int
	mutex    sync.RWMutex
	programs map[string]*rules.Program
}

func newRuleWrapper(spec string, rule *rules.Rule) *ruleWrapper {
	return &ruleWrapper{
		spec:     spec,
		rule:     rule,
		limit:    maxCachedPrograms,
		programs: make(map[string]*rules.Program),
	}
}

func (w *ruleWrapper) compute(ev *evidence.Evidence) (features.Value, error) {
	pattern, err := w.rule.Pattern(ev)
	if err != nil {
		metrics.RuleMatches.WithLabelValues("error").Inc()
		return nil, errors.Wrapf(ErrType, "rule %q: %v", w.spec, err)
	}

	prog, err := w.program(pattern)
	if err != nil {
		metrics.RuleMatches.WithLabelValues("error").Inc()
		return nil, errors.Wrapf(ErrType, "rule %q: %v", w.spec, err)
	}

	if prog.MatchEvidence(ev) {
		metrics.RuleMatches.WithLabelValues("match").Inc()
		return 1, nil
	}
	metrics.RuleMatches.WithLabelValues("no_match").Inc()
	return 0, nil
}

func (w *ruleWrapper) program(pattern rules.Pattern) (*rules.Program, error) {
	key := pattern.String()

	w.mutex.RLock()
	prog, ok := w.programs[key]
	w.mutex.RUnlock()
	if ok {
		metrics.CacheHits.WithLabelValues("pattern").Inc()
		return prog, nil
	}
	metrics.CacheMisses.WithLabelValues("pattern").Inc()

	prog, err := rules.Compile(pattern)
	if err != nil {
		return nil, err
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if existing, ok := w.programs[key]; ok {
		return existing, nil
	}
	if len(w.programs) >= w.limit {
		metrics.CacheEvictions.WithLabelValues("pattern").Add(float64(len(w.programs)))
		w.programs = make(map[string]*rules.Program)
	}
	w.programs[key] = prog
	return prog, nil
}
