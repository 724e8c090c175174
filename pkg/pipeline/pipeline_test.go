package pipeline

import (
	"context"
	"fmt"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athapong/relfeat/pkg/evidence"
	"github.com/athapong/relfeat/pkg/features"
	"github.com/athapong/relfeat/pkg/resolver"
	"github.com/athapong/relfeat/pkg/rules"
)

func evidences(t *testing.T, n int) []*evidence.Evidence {
	t.Helper()
	markups := []string{
		"{Mate|thing*} rocks {hard|thing**} .",
		"Drinking {Mate|thing*} makes you go to the {toilet|thing**}",
		"{tea|thing**} and {mate|thing*}",
	}
	out := make([]*evidence.Evidence, n)
	for i := range out {
		ev, err := evidence.FromMarkup(markups[i%len(markups)], "DT", "JJ", "NN")
		require.NoError(t, err)
		ev.ID = fmt.Sprintf("ev-%d", i)
		out[i] = ev
	}
	return out
}

func resolve(t *testing.T, specs ...string) []*resolver.Feature {
	t.Helper()
	fs, err := resolver.New(resolver.Builtin()).Resolve(specs)
	require.NoError(t, err)
	return fs
}

func TestExtract_KeepsOrder(t *testing.T) {
	evs := evidences(t, 25)
	x := NewExtractor(resolve(t, "entity_distance", "entity_order"), WithBatchSize(4), WithWorkers(3))
	assert.Equal(t, []string{"entity_distance", "entity_order"}, x.Columns())

	rows, err := x.Extract(context.Background(), evs)
	require.NoError(t, err)
	require.Len(t, rows, len(evs))

	for i, row := range rows {
		assert.Equal(t, evs[i].ID, row.EvidenceID)
		assert.Equal(t, features.EntityDistance(evs[i]), row.Values[0])
		assert.Equal(t, features.EntityOrder(evs[i]), row.Values[1])
	}
}

func TestExtract_Empty(t *testing.T) {
	rows, err := NewExtractor(resolve(t, "bag_of_words")).Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExtract_PropagatesErrors(t *testing.T) {
	broken, err := resolver.WrapRule("app.broken", rules.New(true, func(*evidence.Evidence) rules.Pattern { return nil }))
	require.NoError(t, err)

	x := NewExtractor([]*resolver.Feature{broken}, WithBatchSize(2))
	_, err = x.Extract(context.Background(), evidences(t, 5))
	require.Error(t, err)
	assert.Equal(t, resolver.ErrType, errors.Cause(err))
	assert.Contains(t, err.Error(), "app.broken")
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(resolve(t, "bag_of_pos")).Extract(ctx, evidences(t, 3))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVectorizer_FitTransform(t *testing.T) {
	rows := []Row{
		{EvidenceID: "a", Values: []features.Value{2, mapset.NewThreadUnsafeSet("mate", "rocks"), true}},
		{EvidenceID: "b", Values: []features.Value{5, mapset.NewThreadUnsafeSet("tea"), false}},
	}
	v := NewVectorizer([]string{"entity_distance", "bag_of_words", "flag"})

	matrix, err := v.FitTransform(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"entity_distance",
		"bag_of_words=mate",
		"bag_of_words=rocks",
		"bag_of_words=tea",
		"flag",
	}, v.Columns())
	assert.Equal(t, [][]float64{
		{2, 1, 1, 0, 1},
		{5, 0, 0, 1, 0},
	}, matrix)
}

func TestVectorizer_IgnoresUnseenItems(t *testing.T) {
	v := NewVectorizer([]string{"bag_of_words"})
	require.NoError(t, v.Fit([]Row{{Values: []features.Value{mapset.NewThreadUnsafeSet("mate")}}}))

	matrix, err := v.Transform([]Row{{Values: []features.Value{mapset.NewThreadUnsafeSet("mate", "coffee")}}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}}, matrix)
}

func TestVectorizer_CompositeItems(t *testing.T) {
	rows := []Row{{Values: []features.Value{
		mapset.NewThreadUnsafeSet(features.Bigram{"mate", "rocks"}),
		mapset.NewThreadUnsafeSet(features.WordPos{Word: "mate", POS: "NN"}),
		mapset.NewThreadUnsafeSet(features.WordPosBigram{{Word: "mate", POS: "NN"}, {Word: "rocks", POS: "VBZ"}}),
	}}}
	v := NewVectorizer([]string{"bigrams", "wordpos", "wordpos_bigrams"})
	_, err := v.FitTransform(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"bigrams=mate rocks",
		"wordpos=mate/NN",
		"wordpos_bigrams=mate/NN rocks/VBZ",
	}, v.Columns())
}

func TestVectorizer_Errors(t *testing.T) {
	v := NewVectorizer([]string{"x"})
	_, err := v.Transform([]Row{{Values: []features.Value{1}}})
	require.Error(t, err)

	err = v.Fit([]Row{{Values: []features.Value{1}}, {Values: []features.Value{"a"}}})
	assert.Equal(t, ErrValue, errors.Cause(err))

	err = v.Fit([]Row{{Values: []features.Value{struct{}{}}}})
	assert.Equal(t, ErrValue, errors.Cause(err))

	err = v.Fit([]Row{{Values: []features.Value{1, 2}}})
	assert.Equal(t, ErrValue, errors.Cause(err))
}

func TestPipeline_BuiltinsVectorize(t *testing.T) {
	specs := []string{"bag_of_words_in_between", "bag_of_word_bigrams", "bag_of_wordpos", "entity_distance"}
	rows, err := NewExtractor(resolve(t, specs...)).Extract(context.Background(), evidences(t, 3))
	require.NoError(t, err)

	v := NewVectorizer(specs)
	matrix, err := v.FitTransform(rows)
	require.NoError(t, err)
	require.Len(t, matrix, 3)
	assert.Contains(t, v.Columns(), "bag_of_words_in_between=rocks")
	assert.Contains(t, v.Columns(), "bag_of_wordpos=mate/DT")
	for _, vec := range matrix {
		assert.Len(t, vec, len(v.Columns()))
	}
}
