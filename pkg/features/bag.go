package features

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/athapong/relfeat/pkg/evidence"
)

// window selects the tokens of a segment a bag feature looks at
type window func(ev *evidence.Evidence) (int, int)

func whole(ev *evidence.Evidence) (int, int) {
	return 0, segment(ev).Len()
}

func words(ev *evidence.Evidence, w window) []string {
	i, j := w(ev)
	out := make([]string, 0, j-i)
	for _, tok := range segment(ev).Tokens[i:j] {
		out = append(out, strings.ToLower(tok))
	}
	return out
}

func tags(ev *evidence.Evidence, w window) []string {
	i, j := w(ev)
	return segment(ev).PosTags[i:j]
}

func lemmas(ev *evidence.Evidence, w window) []string {
	i, j := w(ev)
	return segment(ev).Lemmas[i:j]
}

func wordPos(ev *evidence.Evidence, w window) []WordPos {
	ws, ts := words(ev, w), tags(ev, w)
	out := make([]WordPos, len(ws))
	for k := range ws {
		out[k] = WordPos{Word: ws[k], POS: ts[k]}
	}
	return out
}

// BagOfWords returns the lower-cased words of the segment
func BagOfWords(ev *evidence.Evidence) mapset.Set[string] {
	return bag(words(ev, whole))
}

// BagOfPos returns the POS tags of the segment
func BagOfPos(ev *evidence.Evidence) mapset.Set[string] {
	return bag(tags(ev, whole))
}

// BagOfWordBigrams returns the consecutive lower-cased word pairs of the segment
func BagOfWordBigrams(ev *evidence.Evidence) mapset.Set[Bigram] {
	return bag(Bigrams(words(ev, whole)))
}

// BagOfWordPos returns the (word, tag) pairs of the segment
func BagOfWordPos(ev *evidence.Evidence) mapset.Set[WordPos] {
	return bag(wordPos(ev, whole))
}

// BagOfWordPosBigrams returns the consecutive (word, tag) pairs of the segment
func BagOfWordPosBigrams(ev *evidence.Evidence) mapset.Set[WordPosBigram] {
	return bag(Bigrams(wordPos(ev, whole)))
}

// BagOfLemmas returns the lemmas of the segment
func BagOfLemmas(ev *evidence.Evidence) mapset.Set[string] {
	return bag(lemmas(ev, whole))
}

func BagOfWordsInBetween(ev *evidence.Evidence) mapset.Set[string] {
	return bag(words(ev, InBetweenOffsets))
}

func BagOfPosInBetween(ev *evidence.Evidence) mapset.Set[string] {
	return bag(tags(ev, InBetweenOffsets))
}

func BagOfWordBigramsInBetween(ev *evidence.Evidence) mapset.Set[Bigram] {
	return bag(Bigrams(words(ev, InBetweenOffsets)))
}

func BagOfWordPosInBetween(ev *evidence.Evidence) mapset.Set[WordPos] {
	return bag(wordPos(ev, InBetweenOffsets))
}

func BagOfWordPosBigramsInBetween(ev *evidence.Evidence) mapset.Set[WordPosBigram] {
	return bag(Bigrams(wordPos(ev, InBetweenOffsets)))
}

func BagOfLemmasInBetween(ev *evidence.Evidence) mapset.Set[string] {
	return bag(lemmas(ev, InBetweenOffsets))
}
