package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athapong/relfeat/pkg/evidence"
)

type fixedTagger struct{}

func (fixedTagger) Tag(tokens []string) ([]string, error) {
	tags := make([]string, len(tokens))
	for i := range tags {
		tags[i] = "NN"
	}
	return tags, nil
}

func reader() *CorpusReader {
	return NewCorpusReader(evidence.NewHydrator(evidence.WithTagger(fixedTagger{})), nil)
}

const corpus = `{"id": "e1", "markup": "{Mate|thing*} rocks {hard|thing**} .", "postags": ["NNP", "VBZ", "JJ", "."]}

{"markup": "Drinking {Mate|thing*} makes you go to the {toilet|thing**}", "lemmas": ["drink", "mate", "make", "you", "go", "to", "the", "toilet"]}
{"id": "e3", "markup": "{tea|thing**} and {mate|thing*}", "trees": ["(S (NP (NN tea)) (CC and) (NP (NN mate)))"]}
`

func TestCorpusReader_Read(t *testing.T) {
	evs, err := reader().Read(context.Background(), "corpus.jsonl", strings.NewReader(corpus))
	require.NoError(t, err)
	require.Len(t, evs, 3)

	assert.Equal(t, "e1", evs[0].ID)
	assert.Equal(t, []string{"NNP", "VBZ", "JJ", "."}, evs[0].Segment.PosTags)
	assert.Equal(t, evidence.Occurrence{Start: 0, End: 1, Kind: "thing"}, evs[0].Left)

	assert.NotEmpty(t, evs[1].ID)
	assert.Equal(t, "drink", evs[1].Segment.Lemmas[0])
	assert.Equal(t, []string{"NN", "NN", "NN", "NN", "NN", "NN", "NN", "NN"}, evs[1].Segment.PosTags)

	require.Len(t, evs[2].Segment.Trees, 1)
	assert.Equal(t, 4, evs[2].Segment.Trees[0].Height())
}

func TestCorpusReader_GeneratedIDsAreStable(t *testing.T) {
	line := `{"markup": "{a|x*} b {c|x**}"}`
	first, err := reader().Read(context.Background(), "c.jsonl", strings.NewReader(line))
	require.NoError(t, err)
	second, err := reader().Read(context.Background(), "c.jsonl", strings.NewReader(line))
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)

	other, err := reader().Read(context.Background(), "d.jsonl", strings.NewReader(line))
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestParseRecord_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"invalid json", `{"markup": `},
		{"not an object", `["a"]`},
		{"no markup", `{"id": "x"}`},
		{"markup not a string", `{"markup": 3}`},
		{"postags not an array", `{"markup": "a", "postags": "NN"}`},
		{"non-string lemma", `{"markup": "a", "lemmas": [1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.line)
			require.Error(t, err)
			assert.Equal(t, ErrCorpus, errors.Cause(err))
		})
	}
}

func TestCorpusReader_ReportsLine(t *testing.T) {
	in := `{"markup": "ok"}` + "\n" + `{"markup": "{broken"}`
	_, err := reader().Read(context.Background(), "bad.jsonl", strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.jsonl:2")
	assert.Equal(t, evidence.ErrMarkup, errors.Cause(err))
}

func TestCorpusReader_ReadPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jsonl"), []byte(`{"id": "b", "markup": "b"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte(`{"id": "a", "markup": "a"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	evs, err := reader().ReadPath(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "a", evs[0].ID)
	assert.Equal(t, "b", evs[1].ID)

	_, err = reader().ReadPath(context.Background(), t.TempDir())
	assert.Equal(t, ErrCorpus, errors.Cause(err))
}

func TestJSONMatrixStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "matrix.json")
	store := NewJSONMatrixStore(path)
	m := &FeatureMatrix{
		Relation:    "drinks",
		Columns:     []string{"entity_distance", "bag_of_words=mate"},
		IDs:         []string{"e1", "e2"},
		Rows:        [][]float64{{2, 1}, {5, 0}},
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.StoreMatrix(context.Background(), m))
	loaded, err := store.LoadMatrix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestJSONMatrixStore_RejectsMisaligned(t *testing.T) {
	store := NewJSONMatrixStore(filepath.Join(t.TempDir(), "matrix.json"))
	err := store.StoreMatrix(context.Background(), &FeatureMatrix{
		Columns: []string{"a"},
		IDs:     []string{"e1"},
		Rows:    [][]float64{{1, 2}},
	})
	require.Error(t, err)

	_, err = store.LoadMatrix(context.Background())
	require.Error(t, err)
}
