package resolver

import (
	"sync"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athapong/relfeat/pkg/evidence"
	"github.com/athapong/relfeat/pkg/features"
	"github.com/athapong/relfeat/pkg/rules"
)

func matchAll(*evidence.Evidence) rules.Pattern { return rules.Star{Sub: rules.Any{}} }
func onlyDot(*evidence.Evidence) rules.Pattern  { return rules.Token(".") }

// appRegistry mirrors a user module with one plain feature and four rules
func appRegistry(t *testing.T) *Registry {
	t.Helper()
	r := Builtin()
	require.NoError(t, r.RegisterFeature("app.module", "custom_feature", func(*evidence.Evidence) features.Value {
		return "custom feature"
	}))
	require.NoError(t, r.Register("app.rules", Namespace{
		"custom_rule_feature":            rules.New(true, matchAll),
		"custom_only_match_dot":          rules.New(true, onlyDot),
		"custom_negative_rule_feature":   rules.New(false, matchAll),
		"custom_negative_only_match_dot": rules.New(false, onlyDot),
	}))
	return r
}

func ev(t *testing.T, markup string) *evidence.Evidence {
	t.Helper()
	e, err := evidence.FromMarkup(markup, "DT", "JJ", "NN")
	require.NoError(t, err)
	return e
}

func TestResolve_CustomFeature(t *testing.T) {
	res := New(appRegistry(t))
	fs, err := res.Resolve([]string{"app.module.custom_feature"})
	require.NoError(t, err)
	require.Len(t, fs, 1)

	assert.Equal(t, KindPlain, fs[0].Kind)
	v, err := fs[0].Compute(ev(t, "test"))
	require.NoError(t, err)
	assert.Equal(t, "custom feature", v)
}

func TestResolve_RuleIsWrapped(t *testing.T) {
	res := New(appRegistry(t))
	fs, err := res.Resolve([]string{"app.rules.custom_rule_feature"})
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, KindRule, fs[0].Kind)
	assert.True(t, fs[0].Polarity)
}

func TestResolve_UnknownSpec(t *testing.T) {
	res := New(appRegistry(t))
	for _, spec := range []string{"does.not.exists", "app.module.missing", "missing_builtin", "", "app.", ".x"} {
		t.Run(spec, func(t *testing.T) {
			_, err := res.Resolve([]string{spec})
			require.Error(t, err)
			assert.Equal(t, ErrLookup, errors.Cause(err))
		})
	}
}

func TestRuleWrapperReturnsMatchPresence(t *testing.T) {
	res := New(appRegistry(t))
	test := ev(t, "test")
	withDot := ev(t, "{Mate|thing*} rocks {hard|thing**} .")

	tests := []struct {
		spec     string
		polarity bool
		onTest   int
		onDot    int
	}{
		{"app.rules.custom_rule_feature", true, 1, 1},
		{"app.rules.custom_only_match_dot", true, 0, 1},
		{"app.rules.custom_negative_rule_feature", false, 1, 1},
		{"app.rules.custom_negative_only_match_dot", false, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			fs, err := res.Resolve([]string{tt.spec})
			require.NoError(t, err)
			assert.Equal(t, tt.polarity, fs[0].Polarity)

			v, err := fs[0].Compute(test)
			require.NoError(t, err)
			assert.Equal(t, tt.onTest, v)

			v, err = fs[0].Compute(withDot)
			require.NoError(t, err)
			assert.Equal(t, tt.onDot, v)
		})
	}
}

func TestResolve_BuiltinsAndOrder(t *testing.T) {
	res := New(Builtin())
	specs := []string{"entity_distance", "features.bag_of_words", "entity_order"}
	fs, err := res.Resolve(specs)
	require.NoError(t, err)
	require.Len(t, fs, 3)

	e := ev(t, "Drinking {Mate|thing*} makes you go to the {toilet|thing**}")
	for k, spec := range []string{"entity_distance", "bag_of_words", "entity_order"} {
		assert.Equal(t, spec, fs[k].Spec)
	}

	v, err := fs[0].Compute(e)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = fs[1].Compute(e)
	require.NoError(t, err)
	words, ok := v.(mapset.Set[string])
	require.True(t, ok)
	assert.True(t, words.Contains("drinking", "toilet"))

	v, err = fs[2].Compute(e)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestResolve_CachesPerSpec(t *testing.T) {
	calls := 0
	lookup := LookupFunc(func(path string) (Namespace, error) {
		calls++
		return Builtin().Lookup(path)
	})
	res := New(lookup)

	a, err := res.Feature("bag_of_pos")
	require.NoError(t, err)
	b, err := res.Feature("bag_of_pos")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestResolve_Duplicate(t *testing.T) {
	res := New(appRegistry(t))
	for _, specs := range [][]string{
		{"bag_of_pos", "bag_of_pos"},
		{"bag_of_words", "features.bag_of_words"},
		{"features.entity_order", "entity_distance", "entity_order"},
		{"app.module.custom_feature", "app.module.custom_feature"},
	} {
		_, err := res.Resolve(specs)
		require.Error(t, err, specs)
		assert.Equal(t, ErrDuplicate, errors.Cause(err), specs)
	}
}

func TestCanonical(t *testing.T) {
	res := New(appRegistry(t))
	tests := []struct {
		spec string
		want string
	}{
		{"bag_of_words", "bag_of_words"},
		{"features.bag_of_words", "bag_of_words"},
		{"app.rules.custom_rule_feature", "app.rules.custom_rule_feature"},
	}
	for _, tt := range tests {
		got, err := res.Canonical(tt.spec)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	a, err := res.Feature("bag_of_words")
	require.NoError(t, err)
	b, err := res.Feature("features.bag_of_words")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestResolve_TypeErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("app", Namespace{
		"not_a_feature": 42,
		"no_body":       &rules.Rule{Polarity: true},
		"nil_pattern":   rules.New(true, func(*evidence.Evidence) rules.Pattern { return nil }),
	}))
	res := New(r)

	for _, spec := range []string{"app.not_a_feature", "app.no_body"} {
		_, err := res.Feature(spec)
		require.Error(t, err, spec)
		assert.Equal(t, ErrType, errors.Cause(err), spec)
	}

	f, err := res.Feature("app.nil_pattern")
	require.NoError(t, err)
	_, err = f.Compute(ev(t, "test"))
	require.Error(t, err)
	assert.Equal(t, ErrType, errors.Cause(err))
}

func TestRuleWrapper_EvidenceDependentPattern(t *testing.T) {
	// The pattern is built from the lemma of the left operand.
	rule := rules.New(true, func(e *evidence.Evidence) rules.Pattern {
		return rules.Seq(rules.Lemma{Text: e.Segment.Lemmas[e.Left.Start]}, rules.Token("and"))
	})
	f, err := WrapRule("app.operand", rule)
	require.NoError(t, err)

	tests := []struct {
		markup string
		want   int
	}{
		{"{Mate|thing*} and {tea|thing**}", 1},
		{"{Tea|thing*} and {mate|thing**}", 1},
		{"{mate|thing**} and {Tea|thing*}", 0},
	}
	for _, tt := range tests {
		v, err := f.Compute(ev(t, tt.markup))
		require.NoError(t, err)
		assert.Equal(t, tt.want, v, tt.markup)
	}
}

func TestRuleWrapper_ProgramCacheIsBounded(t *testing.T) {
	w := newRuleWrapper("app.operand", rules.New(true, func(e *evidence.Evidence) rules.Pattern {
		return rules.Seq(rules.Lemma{Text: e.Segment.Lemmas[e.Left.Start]}, rules.Token("and"))
	}))
	w.limit = 2

	for _, word := range []string{"mate", "tea", "coffee", "beer", "mate"} {
		v, err := w.compute(ev(t, "{"+word+"|thing*} and {water|thing**}"))
		require.NoError(t, err)
		assert.Equal(t, 1, v, word)
		assert.LessOrEqual(t, len(w.programs), 2)
	}
}

func TestRuleWrapper_Concurrent(t *testing.T) {
	f, err := WrapRule("app.dot", rules.New(true, onlyDot))
	require.NoError(t, err)
	e := ev(t, "{Mate|thing*} rocks {hard|thing**} .")

	var wg sync.WaitGroup
	results := make([]features.Value, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = f.Compute(e)
		}(i)
	}
	wg.Wait()
	for _, v := range results {
		assert.Equal(t, 1, v)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterRule("app.rules", "dot", rules.New(true, onlyDot)))

	err := r.RegisterRule("app.rules", "dot", rules.New(true, onlyDot))
	assert.Equal(t, ErrDuplicate, errors.Cause(err))
	assert.Equal(t, ErrLookup, errors.Cause(r.Register("", Namespace{})))

	ns, err := r.Lookup("app.rules")
	require.NoError(t, err)
	assert.Equal(t, []string{"dot"}, ns.Names())
	assert.Equal(t, []string{"app.rules"}, r.Paths())

	_, err = r.Lookup("app")
	assert.Equal(t, ErrLookup, errors.Cause(err))
}
